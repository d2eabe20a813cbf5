package game

import (
	"summonchess/internal/core"
	"summonchess/internal/position"
)

// State builds the full read model. Clocks are recomputed lazily so the
// displayed remaining time reflects wall-clock elapsed since the last
// action, without mutating the session.
func (s *Session) State(gameID string) core.GameStateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireDeclinedUndo()

	resp := core.GameStateResponse{
		GameID:       gameID,
		Position:     s.pos.Encode(),
		Turn:         s.pos.Turn.String(),
		State:        s.state.String(),
		IsCheck:      s.pos.Check(),
		IsCheckmate:  s.state == core.StateCheckmate,
		IsStalemate:  s.state == core.StateStalemate,
		IsDraw:       s.state == core.StateDraw,
		IsTimeout:    s.state == core.StateTimeout,
		Winner:       s.winner.String(),
		WhiteReserve: s.pos.ReserveLetters(core.White),
		BlackReserve: s.pos.ReserveLetters(core.Black),
		History:      append([]string(nil), s.history...),
		LastMove:     s.lastMove,
		Chat:         append([]core.ChatMessage(nil), s.chat...),
		White:        core.PlayerInfo{ID: s.players[0].ID, Name: s.players[0].Name},
		Black:        core.PlayerInfo{ID: s.players[1].ID, Name: s.players[1].Name},
		LastSearch:   s.lastSearch,
	}

	white, black := s.clocks[0], s.clocks[1]
	if s.state == core.StateActive {
		elapsed := s.now().Sub(s.lastTick).Seconds()
		if s.pos.Turn == core.White {
			white -= elapsed
		} else {
			black -= elapsed
		}
	}
	resp.WhiteClock = clampClock(white)
	resp.BlackClock = clampClock(black)

	if s.pending != nil {
		status := "pending"
		if s.pending.declined {
			status = "declined"
		}
		resp.PendingUndo = &core.UndoInfo{Side: s.pending.side.String(), Status: status}
	}
	return resp
}

func clampClock(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Terminal reports whether the game has ended.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Terminal()
}

// Winner returns the winning side, or NoColor for none.
func (s *Session) Winner() core.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

// Turn returns the side to move.
func (s *Session) Turn() core.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Turn
}

// Encoding returns the current position encoding.
func (s *Session) Encoding() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Encode()
}

// SearchSnapshot returns an independent copy of the position plus the prior
// hash history, for handing to a search worker.
func (s *Session) SearchSnapshot() (*position.Position, []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Clone(), append([]uint64(nil), s.hashes...)
}

// Played returns the applied (position, move, mover) records, for best-move
// reinforcement once the game concludes.
func (s *Session) Played() []PlayedMove {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PlayedMove(nil), s.played...)
}

// MoveCount returns the number of applied turn-consuming actions; the
// processor uses it to detect stale search results.
func (s *Session) MoveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.played)
}

// SetSearchInfo records the engine's view of its latest move for the read
// model.
func (s *Session) SetSearchInfo(info *core.SearchInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSearch = info
}

// BoardASCII renders the current board for terminals and debugging.
func (s *Session) BoardASCII() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.ToASCII()
}
