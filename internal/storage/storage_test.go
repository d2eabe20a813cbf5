package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPos = "4k3/8/8/8/8/8/8/4K3 w - [Q][]"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s
}

// waitFor polls for an async write to land.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSaveAndLookupBestMove(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.LookupBestMove(testPos)
	require.NoError(t, err)
	require.False(t, found)

	s.SaveBestMove(testPos, "Q@d2", 150, 6)
	waitFor(t, func() bool {
		_, found, _ := s.LookupBestMove(testPos)
		return found
	})

	bm, found, err := s.LookupBestMove(testPos)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Q@d2", bm.Move)
	require.Equal(t, 150, bm.Score)
	require.Equal(t, 6, bm.Depth)
}

func TestSaveBestMoveKeepsDeeperEntry(t *testing.T) {
	s := newTestStore(t)

	s.SaveBestMove(testPos, "Q@d2", 150, 8)
	waitFor(t, func() bool {
		bm, found, _ := s.LookupBestMove(testPos)
		return found && bm.Depth == 8
	})

	// a shallower result for the same move must not clobber the deep one
	s.SaveBestMove(testPos, "Q@d2", 90, 4)
	// a deeper result replaces it
	s.SaveBestMove(testPos, "Q@d2", 200, 10)
	waitFor(t, func() bool {
		bm, found, _ := s.LookupBestMove(testPos)
		return found && bm.Depth == 10
	})

	bm, _, err := s.LookupBestMove(testPos)
	require.NoError(t, err)
	require.Equal(t, 200, bm.Score)
}

func TestLookupPrefersDeepestMove(t *testing.T) {
	s := newTestStore(t)

	s.SaveBestMove(testPos, "Ke1-e2", 20, 4)
	s.SaveBestMove(testPos, "Q@d2", 150, 8)
	waitFor(t, func() bool {
		bm, found, _ := s.LookupBestMove(testPos)
		return found && bm.Depth == 8
	})

	bm, _, err := s.LookupBestMove(testPos)
	require.NoError(t, err)
	require.Equal(t, "Q@d2", bm.Move)
}

func TestReinforceMoveCreatesAndCounts(t *testing.T) {
	s := newTestStore(t)

	// reinforcement of an unseen pair creates the row
	s.ReinforceMove(testPos, "Q@d2", true)
	s.ReinforceMove(testPos, "Q@d2", true)
	s.ReinforceMove(testPos, "Q@d2", false)
	waitFor(t, func() bool {
		bm, found, _ := s.LookupBestMove(testPos)
		return found && bm.WinCount == 2 && bm.LossCount == 1
	})
}

func TestUnreliableEntry(t *testing.T) {
	cases := []struct {
		win, loss  int
		unreliable bool
	}{
		{0, 0, false},
		{5, 2, false},
		{0, 2, false},
		{0, 3, true},
		{2, 5, true},
		{10, 12, false},
	}
	for _, tc := range cases {
		got := UnreliableEntry(BestMove{WinCount: tc.win, LossCount: tc.loss})
		require.Equal(t, tc.unreliable, got, "wins=%d losses=%d", tc.win, tc.loss)
	}
}

func TestRecordGameAndMoves(t *testing.T) {
	s := newTestStore(t)

	s.RecordNewGame(GameRecord{
		GameID:       "g1",
		InitialPos:   testPos,
		WhiteName:    "Alice",
		BlackName:    "Bob",
		ClockSeconds: 600,
		StartTimeUTC: "2026-01-01T00:00:00Z",
	})
	for i := 1; i <= 3; i++ {
		s.RecordMove(MoveRecord{
			GameID:      "g1",
			MoveNumber:  i,
			Notation:    "Ke1-e2",
			Mover:       "w",
			MoveTimeUTC: "2026-01-01T00:00:01Z",
		})
	}

	countMoves := func() int {
		var n int
		row := s.db.QueryRow(`SELECT COUNT(*) FROM moves WHERE game_id = ?`, "g1")
		require.NoError(t, row.Scan(&n))
		return n
	}
	waitFor(t, func() bool { return countMoves() == 3 })

	var white string
	row := s.db.QueryRow(`SELECT white_name FROM games WHERE game_id = ?`, "g1")
	require.NoError(t, row.Scan(&white))
	require.Equal(t, "Alice", white)

	// undo past move 1 drops the tail
	s.DeleteUndoneMoves("g1", 1)
	waitFor(t, func() bool { return countMoves() == 1 })
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.db")
	s, err := NewStore(path, false)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())

	s.SaveBestMove(testPos, "Q@d2", 100, 5)
	require.NoError(t, s.Close())

	reopened, err := NewStore(path, false)
	require.NoError(t, err)
	defer reopened.Close()

	_, found, err := reopened.LookupBestMove(testPos)
	require.NoError(t, err)
	require.True(t, found)
}

func TestHealthyByDefault(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.IsHealthy())
}
