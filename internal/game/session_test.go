package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"summonchess/internal/core"
)

var (
	white = Player{ID: "pw", Name: "Alice"}
	black = Player{ID: "pb", Name: "Bob"}
)

// fakeClock drives a session with controllable time.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newSession(t *testing.T, encoding string) (*Session, *fakeClock) {
	t.Helper()
	s, err := New(white, black, 0, encoding)
	require.NoError(t, err)
	clk := newFakeClock()
	s.SetClock(func() time.Time { return clk.now })
	return s, clk
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var gameErr *Error
	require.True(t, errors.As(err, &gameErr), "expected game.Error, got %T", err)
	require.Equal(t, code, gameErr.Code)
}

func TestNewSessionDefaults(t *testing.T) {
	s, _ := newSession(t, "")
	st := s.State("g1")

	require.Equal(t, "active", st.State)
	require.Equal(t, "w", st.Turn)
	require.Equal(t, float64(DefaultClockSeconds), st.WhiteClock)
	require.Equal(t, float64(DefaultClockSeconds), st.BlackClock)
	require.Equal(t, "QRRBBNNPPPPPPPP", st.WhiteReserve)
	require.Equal(t, "Alice", st.White.Name)
	require.Equal(t, "Bob", st.Black.Name)
}

func TestMoveAndSummonAlternateTurns(t *testing.T) {
	s, _ := newSession(t, "")

	err := s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"})
	require.NoError(t, err)
	require.Equal(t, core.Black, s.Turn())

	err = s.Execute(core.ActionRequest{Type: core.ActionSummon, PlayerID: "pb", Piece: "Q", Square: "d7"})
	require.NoError(t, err)
	require.Equal(t, core.White, s.Turn())

	st := s.State("g1")
	require.Equal(t, []string{"Ke1-e2", "Q@d7"}, st.History)
	require.Equal(t, "RRBBNNPPPPPPPP", st.BlackReserve)
	require.NotNil(t, st.LastMove)
	require.True(t, st.LastMove.Drop)
	require.Equal(t, "d7", st.LastMove.To)
}

func TestTurnOwnership(t *testing.T) {
	s, _ := newSession(t, "")

	err := s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pb", From: "e8", To: "e7"})
	requireCode(t, err, core.ErrNotYourTurn)

	err = s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "stranger", From: "e1", To: "e2"})
	requireCode(t, err, core.ErrNotYourTurn)
}

func TestIllegalMovesRejected(t *testing.T) {
	s, _ := newSession(t, "")

	err := s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e4"})
	requireCode(t, err, core.ErrIllegalMove)

	err = s.Execute(core.ActionRequest{Type: core.ActionSummon, PlayerID: "pw", Piece: "Q", Square: "a5"})
	requireCode(t, err, core.ErrIllegalDrop)

	err = s.Execute(core.ActionRequest{Type: core.ActionSummon, PlayerID: "pw", Piece: "P", Square: "d1"})
	requireCode(t, err, core.ErrIllegalDrop)

	err = s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "zz", To: "e2"})
	requireCode(t, err, core.ErrInvalidAction)

	// rejections must not consume the turn
	require.Equal(t, core.White, s.Turn())
	require.Equal(t, 0, s.MoveCount())
}

func TestClockTimeout(t *testing.T) {
	s, clk := newSession(t, "")

	// 650 seconds pass before White moves; the 600 second budget is gone
	clk.advance(650 * time.Second)
	err := s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"})
	requireCode(t, err, core.ErrTimeout)

	st := s.State("g1")
	require.Equal(t, "timeout", st.State)
	require.True(t, st.IsTimeout)
	require.Equal(t, "b", st.Winner)
	require.Equal(t, float64(0), st.WhiteClock)

	// no further turn actions are accepted
	err = s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"})
	requireCode(t, err, core.ErrGameOver)
}

func TestClockChargesOnlyTheSideToMove(t *testing.T) {
	s, clk := newSession(t, "")

	clk.advance(100 * time.Second)
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))

	clk.advance(50 * time.Second)
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pb", From: "e8", To: "e7"}))

	st := s.State("g1")
	require.InDelta(t, 500, st.WhiteClock, 0.01)
	require.InDelta(t, 550, st.BlackClock, 0.01)
}

func TestResign(t *testing.T) {
	s, _ := newSession(t, "")

	// resignation is not bound to the turn: Black resigns on White's turn
	err := s.Execute(core.ActionRequest{Type: core.ActionResign, PlayerID: "pb"})
	require.NoError(t, err)

	st := s.State("g1")
	require.Equal(t, "resigned", st.State)
	require.Equal(t, "w", st.Winner)
}

func TestChatIgnoresTurnAndSurvivesGameEnd(t *testing.T) {
	s, _ := newSession(t, "")

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionChat, PlayerID: "pb", Text: "gl", Nickname: "bob"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionResign, PlayerID: "pb"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionChat, PlayerID: "pw", Text: "gg", Nickname: "alice"}))

	st := s.State("g1")
	require.Len(t, st.Chat, 2)
	require.Equal(t, "gg", st.Chat[1].Text)

	err := s.Execute(core.ActionRequest{Type: core.ActionChat, Text: ""})
	requireCode(t, err, core.ErrInvalidAction)
}

func TestChatLogIsBounded(t *testing.T) {
	s, _ := newSession(t, "")
	for i := 0; i < maxChatMessages+10; i++ {
		require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionChat, Text: fmt.Sprintf("msg %d", i)}))
	}
	st := s.State("g1")
	require.Len(t, st.Chat, maxChatMessages)
	require.Equal(t, "msg 10", st.Chat[0].Text)
}

func TestUndoHandshakeAccept(t *testing.T) {
	s, _ := newSession(t, "")
	initial := s.Encoding()

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))
	st := s.State("g1")
	require.NotNil(t, st.PendingUndo)
	require.Equal(t, "pending", st.PendingUndo.Status)
	require.Equal(t, "w", st.PendingUndo.Side)

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoResponse, PlayerID: "pb", Accept: true}))
	require.Equal(t, initial, s.Encoding())
	require.Equal(t, 0, s.MoveCount())
	require.Nil(t, s.State("g1").PendingUndo)
}

func TestUndoHandshakeDecline(t *testing.T) {
	s, clk := newSession(t, "")

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))
	afterMove := s.Encoding()

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoResponse, PlayerID: "pb", Accept: false}))

	// position unchanged, decline visible
	require.Equal(t, afterMove, s.Encoding())
	st := s.State("g1")
	require.NotNil(t, st.PendingUndo)
	require.Equal(t, "declined", st.PendingUndo.Status)

	// while the decline lingers no new request is accepted
	err := s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"})
	requireCode(t, err, core.ErrUndoPending)

	// after the expiry window a new request goes through
	clk.advance(undoDeclineExpiry + time.Second)
	require.Nil(t, s.State("g1").PendingUndo)
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))
}

func TestUndoRejections(t *testing.T) {
	s, _ := newSession(t, "")

	// nothing to undo yet
	err := s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"})
	requireCode(t, err, core.ErrInvalidAction)

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))

	// the requester may not answer their own request
	err = s.Execute(core.ActionRequest{Type: core.ActionUndoResponse, PlayerID: "pw", Accept: true})
	requireCode(t, err, core.ErrInvalidAction)

	// a second request while one is pending is rejected
	err = s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pb"})
	requireCode(t, err, core.ErrUndoPending)
}

func TestUndoRestoresClocks(t *testing.T) {
	s, clk := newSession(t, "")

	clk.advance(100 * time.Second)
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoResponse, PlayerID: "pb", Accept: true}))

	// the time spent on the undone move stays spent
	st := s.State("g1")
	require.InDelta(t, 500, st.WhiteClock, 0.01)
}

func TestUndoRestoresHalfmoveCount(t *testing.T) {
	s, _ := newSession(t, "4k3/8/8/8/8/8/8/R3K3 w - [][]")
	s.pos.Halfmove = 30

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "a1", To: "a2"}))
	require.Equal(t, 31, s.pos.Halfmove)

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoRequest, PlayerID: "pw"}))
	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionUndoResponse, PlayerID: "pb", Accept: true}))
	require.Equal(t, 30, s.pos.Halfmove, "the encoding does not carry the halfmove count")
}

func TestCheckmateThroughSession(t *testing.T) {
	s, _ := newSession(t, "7k/8/6K1/8/8/8/8/8 w - [Q][]")

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionSummon, PlayerID: "pw", Piece: "Q", Square: "h7"}))

	st := s.State("g1")
	require.Equal(t, "checkmate", st.State)
	require.True(t, st.IsCheckmate)
	require.Equal(t, "w", st.Winner)
	require.Equal(t, []string{"Q@h7+"}, st.History)

	// the cache key stays bare: the check marker is display-only
	played := s.Played()
	require.Len(t, played, 1)
	require.Equal(t, "Q@h7", played[0].Move)

	err := s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pb", From: "h8", To: "g8"})
	requireCode(t, err, core.ErrGameOver)
}

func TestPlayedRecordsForReinforcement(t *testing.T) {
	s, _ := newSession(t, "")
	initial := s.Encoding()

	require.NoError(t, s.Execute(core.ActionRequest{Type: core.ActionMove, PlayerID: "pw", From: "e1", To: "e2"}))

	played := s.Played()
	require.Len(t, played, 1)
	require.Equal(t, initial, played[0].Encoding, "recorded against the pre-move position")
	require.Equal(t, "Ke1-e2", played[0].Move)
	require.Equal(t, core.White, played[0].Mover)
}

func TestSnapshotStackIsBounded(t *testing.T) {
	s, _ := newSession(t, "")

	for i := 0; i < maxSnapshots+20; i++ {
		s.pushSnapshot()
	}
	require.Len(t, s.snapshots, maxSnapshots)
}

func TestDrawByRepetitionThroughSession(t *testing.T) {
	s, _ := newSession(t, "4k3/8/8/8/8/8/8/4K3 w - [][]")

	// shuffle the kings until the starting position recurs a third time
	shuffle := [][2]string{
		{"e1", "e2"}, {"e8", "e7"}, {"e2", "e1"}, {"e7", "e8"},
		{"e1", "e2"}, {"e8", "e7"}, {"e2", "e1"}, {"e7", "e8"},
	}
	for i, mv := range shuffle {
		player := "pw"
		if i%2 == 1 {
			player = "pb"
		}
		require.NoError(t, s.Execute(core.ActionRequest{
			Type: core.ActionMove, PlayerID: player, From: mv[0], To: mv[1],
		}))
	}

	st := s.State("g1")
	require.Equal(t, "draw", st.State)
	require.True(t, st.IsDraw)
	require.Empty(t, st.Winner)
}
