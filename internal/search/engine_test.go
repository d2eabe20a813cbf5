package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"summonchess/internal/position"
)

func mustParse(t *testing.T, enc string) *position.Position {
	t.Helper()
	p, err := position.Parse(enc)
	require.NoError(t, err)
	return p
}

func TestSearchFindsMateInOne(t *testing.T) {
	// the queen mates on the back rank; black has nothing in hand to block
	p := mustParse(t, "7k/8/6K1/8/8/8/8/Q7 w - [][]")

	e := NewEngine()
	result, err := e.Search(p, Options{MaxDepth: 4})
	require.NoError(t, err)

	require.Greater(t, result.Score, MateScore-MaxPly, "expected a mate score, got %d", result.Score)

	p.Make(result.BestMove)
	require.True(t, p.Checkmate(), "best move %s must deliver mate", result.BestMove)
}

func TestSearchFindsMatingSummon(t *testing.T) {
	// the queen in hand mates on g7 or h7, protected by the king on g6
	p := mustParse(t, "7k/8/6K1/8/8/8/8/8 w - [Q][]")

	e := NewEngine()
	result, err := e.Search(p, Options{MaxDepth: 4})
	require.NoError(t, err)

	require.Equal(t, position.DropMove, result.BestMove.Kind)
	require.Greater(t, result.Score, MateScore-MaxPly)

	p.Make(result.BestMove)
	require.True(t, p.Checkmate(), "summon %s must deliver mate", result.BestMove)
}

func TestSearchAvoidsBlockableMate(t *testing.T) {
	// same back rank, but with a knight in hand Black blocks on g8, so the
	// check is not a forced mate
	p := mustParse(t, "7k/8/6K1/8/8/8/8/R7 w - [][N]")

	e := NewEngine()
	result, err := e.Search(p, Options{MaxDepth: 4})
	require.NoError(t, err)
	require.Less(t, result.Score, MateScore-MaxPly)
}

func TestSearchIsDeterministicAtFixedDepth(t *testing.T) {
	enc := "4k3/8/8/8/3N4/8/8/4K3 w - [RQ][PP]"

	a, err := NewEngine().Search(mustParse(t, enc), Options{MaxDepth: 3})
	require.NoError(t, err)
	b, err := NewEngine().Search(mustParse(t, enc), Options{MaxDepth: 3})
	require.NoError(t, err)

	require.Equal(t, a.BestMove, b.BestMove)
	require.Equal(t, a.Score, b.Score)
	require.Equal(t, a.Depth, b.Depth)
}

func TestSearchNoLegalMoves(t *testing.T) {
	// stalemated side to move
	p := mustParse(t, "7k/5K2/6Q1/8/8/8/8/8 b - [][]")
	_, err := NewEngine().Search(p, Options{MaxDepth: 3})
	require.Error(t, err)
}

func TestSearchResignsWhenMateIsForced(t *testing.T) {
	// white's only move walks into Rh8#
	p := mustParse(t, "r7/8/8/8/8/8/5k2/7K w - [][]")

	e := NewEngine()
	result, err := e.Search(p, Options{MaxDepth: 5})
	require.NoError(t, err)

	require.Less(t, result.Score, resignThreshold+1)
	require.True(t, result.Resign)
}

func TestSearchMultiPVLinesSorted(t *testing.T) {
	p := mustParse(t, "4k3/8/8/8/3N4/8/8/4K3 w - [R][P]")

	result, err := NewEngine().Search(p, Options{MaxDepth: 3})
	require.NoError(t, err)
	require.NotEmpty(t, result.Lines)

	for i := 1; i < len(result.Lines); i++ {
		require.GreaterOrEqual(t, result.Lines[i-1].Score, result.Lines[i].Score)
	}
	require.Equal(t, result.Lines[0].Moves[0], result.BestMove)
}

func TestSearchHonorsTimeBudget(t *testing.T) {
	p := position.New()

	start := time.Now()
	result, err := NewEngine().Search(p, Options{MaxDepth: 30, TimeBudget: 150 * time.Millisecond})
	require.NoError(t, err)
	require.Less(t, time.Since(start), 3*time.Second)
	require.NotEqual(t, position.NoMove, result.BestMove)
}

func TestTargetLoss(t *testing.T) {
	require.Equal(t, 0, TargetLoss(100))
	require.Greater(t, TargetLoss(99), 0)

	// lower accuracy concedes a larger target loss
	prev := -1
	for _, acc := range []int{90, 70, 50, 30, 10, 1} {
		loss := TargetLoss(acc)
		require.Greater(t, loss, prev, "accuracy %d", acc)
		prev = loss
	}
}

func TestChooseByAccuracyFullStrength(t *testing.T) {
	lines := []Line{
		{Moves: []position.Move{{To: 1}}, Score: 120},
		{Moves: []position.Move{{To: 2}}, Score: 80},
		{Moves: []position.Move{{To: 3}}, Score: -40},
	}
	require.Equal(t, lines[0], chooseByAccuracy(lines, 100))
}

func TestChooseByAccuracyNeverPicksLostMate(t *testing.T) {
	lines := []Line{
		{Moves: []position.Move{{To: 1}}, Score: 50},
		{Moves: []position.Move{{To: 2}}, Score: -MateScore + 3},
	}
	// even at minimum accuracy the mate-losing line is excluded
	require.Equal(t, lines[0], chooseByAccuracy(lines, 1))
}

func TestScoreToFromTTRoundTrip(t *testing.T) {
	for _, ply := range []int{0, 3, 10} {
		for _, score := range []int{0, 500, MateScore - 5, -(MateScore - 5)} {
			stored := scoreToTT(score, ply)
			require.Equal(t, score, scoreFromTT(stored, ply))
		}
	}
}
