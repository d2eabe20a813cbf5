package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"summonchess/internal/core"
	"summonchess/internal/position"
)

func mustParse(t *testing.T, enc string) *position.Position {
	t.Helper()
	p, err := position.Parse(enc)
	require.NoError(t, err)
	return p
}

func TestEvaluateStartPositionIsBalanced(t *testing.T) {
	p := position.New()
	require.Equal(t, 0, Evaluate(p))

	p.Turn = core.Black
	require.Equal(t, 0, Evaluate(p))
}

func TestEvaluateMaterialAdvantage(t *testing.T) {
	p := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 w - [][]")
	require.Greater(t, Evaluate(p), PieceValue[core.Queen]/2)

	p.Turn = core.Black
	require.Less(t, Evaluate(p), -PieceValue[core.Queen]/2)
}

func TestEvaluateReservePremium(t *testing.T) {
	inHand := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - [Q][]")
	require.Greater(t, Evaluate(inHand), PieceValue[core.Queen],
		"a pocketed queen is worth more than its board value")
}

func TestEvaluatePerspectiveIsAntisymmetric(t *testing.T) {
	p := mustParse(t, "4k3/8/8/8/3N4/8/8/4K3 w - [R][P]")
	whiteView := Evaluate(p)
	p.Turn = core.Black
	require.Equal(t, -whiteView, Evaluate(p))
}

func TestKingMobility(t *testing.T) {
	open := mustParse(t, "4k3/8/8/8/3K4/8/8/8 w - [][]")
	require.Equal(t, 8, KingMobility(open, core.White))

	corner := mustParse(t, "4k3/8/8/8/8/8/8/K7 w - [][]")
	require.Equal(t, 3, KingMobility(corner, core.White))

	// queen on g6 pins the cornered king to h8
	trapped := mustParse(t, "7k/5K2/6Q1/8/8/8/8/8 b - [][]")
	require.Equal(t, 0, KingMobility(trapped, core.Black))
}

func TestTrappedKingPenalty(t *testing.T) {
	// two rooks seal the corner: in check with zero mobility on a1, while
	// the same material leaves the king free on h1
	checked := mustParse(t, "rr5k/8/8/8/8/8/8/K7 w - [][]")
	free := mustParse(t, "rr5k/8/8/8/8/8/8/7K w - [][]")
	require.Equal(t, 0, KingMobility(checked, core.White))
	require.Less(t, Evaluate(checked), Evaluate(free)-trappedInCheck/2)
}
