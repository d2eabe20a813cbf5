// Package game owns the mutable state of one game session and its action
// state machine: moves and summons, clocks, resignation, chat and the
// two-party undo handshake. A session processes one action at a time; the
// mutex serializes external callers.
package game

import (
	"sync"
	"time"

	"summonchess/internal/core"
	"summonchess/internal/position"
)

const (
	DefaultClockSeconds = 600

	maxChatMessages = 50
	maxSnapshots    = 50

	// a declined undo request stays visible this long before clearing
	undoDeclineExpiry = 5 * time.Second
)

// Error is a rejected action with a diagnostic code from core's error
// vocabulary. Invalid input is always a rejection, never a fault.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func reject(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Player is one seat. An empty ID leaves the seat unbound; turn ownership
// is only enforced once both seats are bound.
type Player struct {
	ID   string
	Name string
}

// PlayedMove is one applied action recorded for best-move reinforcement:
// the position it was played from, the move notation and the mover.
type PlayedMove struct {
	Encoding string
	Move     string
	Mover    core.Color
}

// snapshot is a serialized prior state for the undo stack. The halfmove
// counter rides alongside the encoding, which does not carry it.
type snapshot struct {
	encoding   string
	halfmove   int
	history    []string
	lastMove   *core.MoveInfo
	clocks     [2]float64
	hashes     []uint64
	playedLen  int
	lastSearch *core.SearchInfo
}

type undoState struct {
	side      core.Color
	declined  bool
	decidedAt time.Time
}

// Session is the system of record for one game.
type Session struct {
	mu sync.Mutex

	pos     *position.Position
	state   core.State
	winner  core.Color
	players [2]Player

	clocks   [2]float64 // seconds remaining, indexed by Color.Index
	lastTick time.Time

	history    []string
	lastMove   *core.MoveInfo
	chat       []core.ChatMessage
	pending    *undoState
	snapshots  []snapshot
	hashes     []uint64 // prior position hashes for repetition
	played     []PlayedMove
	lastSearch *core.SearchInfo

	now func() time.Time // injectable for tests
}

// New creates a session. An empty encoding selects the default starting
// setup; clockSeconds <= 0 selects the default time budget per side.
func New(white, black Player, clockSeconds int, encoding string) (*Session, error) {
	var pos *position.Position
	if encoding == "" {
		pos = position.New()
	} else {
		var err error
		pos, err = position.Parse(encoding)
		if err != nil {
			return nil, err
		}
	}
	if clockSeconds <= 0 {
		clockSeconds = DefaultClockSeconds
	}
	s := &Session{
		pos:     pos,
		state:   core.StateActive,
		players: [2]Player{white, black},
		clocks:  [2]float64{float64(clockSeconds), float64(clockSeconds)},
		now:     time.Now,
	}
	s.lastTick = s.now()
	return s, nil
}

// SetClock overrides the wall clock source. Tests only.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.lastTick = now()
}

// Execute applies one external action. A nil return means success and the
// caller should re-read the session state.
func (s *Session) Execute(req core.ActionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireDeclinedUndo()

	switch req.Type {
	case core.ActionChat:
		return s.doChat(req)
	case core.ActionMove:
		return s.doMove(req)
	case core.ActionSummon:
		return s.doSummon(req)
	case core.ActionResign:
		return s.doResign(req)
	case core.ActionUndoRequest:
		return s.doUndoRequest(req)
	case core.ActionUndoResponse:
		return s.doUndoResponse(req)
	default:
		return reject(core.ErrInvalidAction, "unknown action type: "+req.Type)
	}
}

// doChat appends to the bounded log. Chat never consumes a turn, never
// touches clocks, and is permitted after game end.
func (s *Session) doChat(req core.ActionRequest) error {
	if req.Text == "" {
		return reject(core.ErrInvalidAction, "chat text must not be empty")
	}
	msg := core.ChatMessage{
		Nickname: req.Nickname,
		Text:     req.Text,
		Time:     s.now().Unix(),
	}
	if len(s.chat) >= maxChatMessages {
		s.chat = s.chat[1:]
	}
	s.chat = append(s.chat, msg)
	return nil
}

func (s *Session) doMove(req core.ActionRequest) error {
	if err := s.beginTurnAction(req.PlayerID, true); err != nil {
		return err
	}
	from, err := core.ParseSquare(req.From)
	if err != nil {
		return reject(core.ErrInvalidAction, "bad from square: "+req.From)
	}
	to, err := core.ParseSquare(req.To)
	if err != nil {
		return reject(core.ErrInvalidAction, "bad to square: "+req.To)
	}
	promotion := core.NoPiece
	if req.Promotion != "" {
		promotion, err = core.ParsePiece(req.Promotion)
		if err != nil || promotion != core.Queen {
			return reject(core.ErrInvalidAction, "only queen promotion is supported")
		}
	}
	m := s.pos.FindMove(from, to, promotion)
	if m == position.NoMove {
		return reject(core.ErrIllegalMove, "illegal move: "+req.From+"-"+req.To)
	}
	s.apply(m)
	return nil
}

func (s *Session) doSummon(req core.ActionRequest) error {
	if err := s.beginTurnAction(req.PlayerID, true); err != nil {
		return err
	}
	pt, err := core.ParsePiece(req.Piece)
	if err != nil || pt == core.King {
		return reject(core.ErrInvalidAction, "bad summon piece: "+req.Piece)
	}
	to, err := core.ParseSquare(req.Square)
	if err != nil {
		return reject(core.ErrInvalidAction, "bad summon square: "+req.Square)
	}
	m := s.pos.FindDrop(pt, to)
	if m == position.NoMove {
		return reject(core.ErrIllegalDrop, "illegal summon: "+req.Piece+"@"+req.Square)
	}
	s.apply(m)
	return nil
}

// doResign ends the game in the opponent's favor. Either bound player may
// resign at any time; only the clock-and-terminal gate applies.
func (s *Session) doResign(req core.ActionRequest) error {
	if err := s.beginTurnAction(req.PlayerID, false); err != nil {
		return err
	}
	resigner := s.pos.Turn
	if req.PlayerID != "" {
		if side, ok := s.sideOf(req.PlayerID); ok {
			resigner = side
		}
	}
	s.pushSnapshot()
	s.state = core.StateResigned
	s.winner = resigner.Opponent()
	s.pending = nil
	s.lastTick = s.now()
	return nil
}

func (s *Session) doUndoRequest(req core.ActionRequest) error {
	if s.state.Terminal() {
		return reject(core.ErrGameOver, "game is over: "+s.state.String())
	}
	if s.pending != nil {
		return reject(core.ErrUndoPending, "an undo request is already pending")
	}
	if len(s.snapshots) == 0 {
		return reject(core.ErrInvalidAction, "nothing to undo")
	}
	side := s.pos.Turn
	if req.PlayerID != "" {
		if owned, ok := s.sideOf(req.PlayerID); ok {
			side = owned
		}
	}
	s.pending = &undoState{side: side}
	return nil
}

func (s *Session) doUndoResponse(req core.ActionRequest) error {
	if s.state.Terminal() {
		return reject(core.ErrGameOver, "game is over: "+s.state.String())
	}
	if s.pending == nil || s.pending.declined {
		return reject(core.ErrInvalidAction, "no undo request is pending")
	}
	if req.PlayerID != "" {
		if side, ok := s.sideOf(req.PlayerID); ok && side == s.pending.side {
			return reject(core.ErrInvalidAction, "only the opponent may answer an undo request")
		}
	}
	if !req.Accept {
		s.pending.declined = true
		s.pending.decidedAt = s.now()
		return nil
	}
	s.popSnapshot()
	s.pending = nil
	return nil
}

// beginTurnAction gates move/summon/resign: terminal check, lazy clock
// charge with timeout transition, and (for turn-owned actions) ownership.
func (s *Session) beginTurnAction(playerID string, ownTurn bool) error {
	if s.state.Terminal() {
		return reject(core.ErrGameOver, "game is over: "+s.state.String())
	}
	if err := s.chargeClock(); err != nil {
		return err
	}
	if ownTurn && s.seatsBound() && playerID != "" {
		side, ok := s.sideOf(playerID)
		if !ok || side != s.pos.Turn {
			return reject(core.ErrNotYourTurn, "it is not your turn")
		}
	}
	return nil
}

// chargeClock subtracts elapsed wall time from the side about to move. A
// clock reaching zero transitions the game to timeout and rejects the
// attempted action.
func (s *Session) chargeClock() error {
	now := s.now()
	elapsed := now.Sub(s.lastTick).Seconds()
	idx := s.pos.Turn.Index()
	s.clocks[idx] -= elapsed
	s.lastTick = now
	if s.clocks[idx] <= 0 {
		s.clocks[idx] = 0
		s.state = core.StateTimeout
		s.winner = s.pos.Turn.Opponent()
		s.pending = nil
		return reject(core.ErrTimeout, "flag fell: out of time")
	}
	return nil
}

// apply commits a legal move or summon: snapshot, execute, notation,
// terminal evaluation.
func (s *Session) apply(m position.Move) {
	s.pushSnapshot()

	mover := s.pos.Turn
	fromEncoding := s.pos.Encode()
	s.hashes = append(s.hashes, s.pos.Hash)

	notation := m.Notation()
	s.pos.Make(m)
	display := notation
	if s.pos.Check() {
		display += "+"
	}

	s.history = append(s.history, display)
	s.lastMove = &core.MoveInfo{
		Notation: display,
		To:       m.To.String(),
		Drop:     m.Kind == position.DropMove,
	}
	if m.Kind == position.BoardMove {
		s.lastMove.From = m.From.String()
	}
	// played records key the best-move cache; the check marker is
	// display-only and stays out of the key
	s.played = append(s.played, PlayedMove{
		Encoding: fromEncoding,
		Move:     notation,
		Mover:    mover,
	})
	s.pending = nil

	s.evaluateTerminal()
}

// evaluateTerminal re-derives checkmate/stalemate/draw for the side now to
// move. Checkmate accounts for escape-by-drop.
func (s *Session) evaluateTerminal() {
	switch {
	case s.pos.Checkmate():
		s.state = core.StateCheckmate
		s.winner = s.pos.Turn.Opponent()
	case s.pos.Stalemate():
		s.state = core.StateStalemate
	case s.pos.Drawn(s.hashes):
		s.state = core.StateDraw
	}
}

func (s *Session) pushSnapshot() {
	snap := snapshot{
		encoding:   s.pos.Encode(),
		halfmove:   s.pos.Halfmove,
		history:    append([]string(nil), s.history...),
		lastMove:   s.lastMove,
		clocks:     s.clocks,
		hashes:     append([]uint64(nil), s.hashes...),
		playedLen:  len(s.played),
		lastSearch: s.lastSearch,
	}
	if len(s.snapshots) >= maxSnapshots {
		s.snapshots = s.snapshots[1:]
	}
	s.snapshots = append(s.snapshots, snap)
}

// popSnapshot restores the most recent saved state. The encoding is the
// serialized source of truth; a snapshot that fails to parse would indicate
// corruption, so the restore is skipped in that case.
func (s *Session) popSnapshot() {
	if len(s.snapshots) == 0 {
		return
	}
	snap := s.snapshots[len(s.snapshots)-1]
	pos, err := position.Parse(snap.encoding)
	if err != nil {
		return
	}
	s.snapshots = s.snapshots[:len(s.snapshots)-1]
	pos.Halfmove = snap.halfmove
	s.pos = pos
	s.history = snap.history
	s.lastMove = snap.lastMove
	s.clocks = snap.clocks
	s.hashes = snap.hashes
	s.played = s.played[:snap.playedLen]
	s.lastSearch = snap.lastSearch
	s.state = core.StateActive
	s.winner = core.NoColor
	s.lastTick = s.now()
}

func (s *Session) expireDeclinedUndo() {
	if s.pending != nil && s.pending.declined &&
		s.now().Sub(s.pending.decidedAt) >= undoDeclineExpiry {
		s.pending = nil
	}
}

func (s *Session) seatsBound() bool {
	return s.players[0].ID != "" && s.players[1].ID != ""
}

func (s *Session) sideOf(playerID string) (core.Color, bool) {
	switch playerID {
	case "":
		return core.NoColor, false
	case s.players[0].ID:
		return core.White, true
	case s.players[1].ID:
		return core.Black, true
	default:
		return core.NoColor, false
	}
}
