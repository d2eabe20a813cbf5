package position

import (
	"testing"

	"github.com/stretchr/testify/require"

	"summonchess/internal/core"
)

func TestMakeUnmakeRestoresState(t *testing.T) {
	p := mustParse(t, "4k3/8/8/3pP3/8/2n5/8/R3K3 w d6 [QN][RP]")
	before := p.Encode()
	hash := p.Hash

	for _, m := range p.LegalMoves() {
		u := p.Make(m)
		require.NotEqual(t, hash, p.Hash, "hash must change after %s", m)
		p.Unmake(u)
		require.Equal(t, before, p.Encode(), "state after unmaking %s", m)
		require.Equal(t, hash, p.Hash, "hash after unmaking %s", m)
	}
}

func TestDropUpdatesReserveAndHalfmove(t *testing.T) {
	p := New()
	p.Halfmove = 30

	m := p.FindDrop(core.Queen, sq(t, "d2"))
	require.NotEqual(t, NoMove, m)

	u := p.Make(m)
	require.Equal(t, 0, p.Reserve(core.White, core.Queen))
	require.Equal(t, 0, p.Halfmove, "a summon resets the halfmove clock")
	require.Equal(t, core.Black, p.Turn)

	pt, c := p.At(sq(t, "d2"))
	require.Equal(t, core.Queen, pt)
	require.Equal(t, core.White, c)

	p.Unmake(u)
	require.Equal(t, 1, p.Reserve(core.White, core.Queen))
	require.Equal(t, 30, p.Halfmove)
	require.True(t, p.Empty(sq(t, "d2")))
}

func TestFindDropRejections(t *testing.T) {
	p := New()

	require.Equal(t, NoMove, p.FindDrop(core.Pawn, sq(t, "d1")), "pawn on rank 1")
	require.Equal(t, NoMove, p.FindDrop(core.Queen, sq(t, "a5")), "unreachable square")
	require.Equal(t, NoMove, p.FindDrop(core.King, sq(t, "d2")), "kings are never in reserve")

	empty := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - [][]")
	require.Equal(t, NoMove, empty.FindDrop(core.Queen, sq(t, "d2")), "empty reserve")
}

func TestFindMove(t *testing.T) {
	p := New()

	m := p.FindMove(sq(t, "e1"), sq(t, "e2"), core.NoPiece)
	require.NotEqual(t, NoMove, m)
	require.Equal(t, core.King, m.Piece)

	require.Equal(t, NoMove, p.FindMove(sq(t, "e1"), sq(t, "e3"), core.NoPiece))
	require.Equal(t, NoMove, p.FindMove(sq(t, "a1"), sq(t, "a2"), core.NoPiece))
}

func TestQueenDropCheckmate(t *testing.T) {
	// white king g6 supports a queen summon next to the cornered black king;
	// with an empty black reserve there is no escape
	p := mustParse(t, "7k/8/6K1/8/8/8/8/8 w - [Q][]")

	m := p.FindDrop(core.Queen, sq(t, "h7"))
	require.NotEqual(t, NoMove, m)

	p.Make(m)
	require.True(t, p.InCheck(core.Black))
	require.True(t, p.Checkmate())
	require.False(t, p.Stalemate())
}

func TestCheckmateEscapeByDrop(t *testing.T) {
	// back-rank check: with a knight in hand Black blocks on g8, without it
	// the same position is mate
	withReserve := mustParse(t, "7k/8/6K1/8/8/8/8/R7 w - [][N]")
	m := withReserve.FindMove(sq(t, "a1"), sq(t, "a8"), core.NoPiece)
	require.NotEqual(t, NoMove, m)
	withReserve.Make(m)

	require.True(t, withReserve.InCheck(core.Black))
	require.False(t, withReserve.hasLegalBoardMove())
	require.False(t, withReserve.Checkmate(), "N@g8 blocks the check")
	require.NotEqual(t, NoMove, withReserve.FindDrop(core.Knight, sq(t, "g8")))

	bare := mustParse(t, "7k/8/6K1/8/8/8/8/R7 w - [][]")
	bare.Make(bare.FindMove(sq(t, "a1"), sq(t, "a8"), core.NoPiece))
	require.True(t, bare.Checkmate())
}

func TestStalemateNeedsEmptyReserveOrNoDrops(t *testing.T) {
	// cornered black king, not in check, no board moves
	stale := mustParse(t, "7k/5K2/6Q1/8/8/8/8/8 b - [][]")
	require.False(t, stale.InCheck(core.Black))
	require.True(t, stale.Stalemate())
	require.False(t, stale.Checkmate())

	// the same position with a knight in hand has a legal summon
	withDrop := mustParse(t, "7k/5K2/6Q1/8/8/8/8/8 b - [][N]")
	require.False(t, withDrop.Stalemate())
}

func TestDrawnThreefoldRepetition(t *testing.T) {
	p := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - [][]")
	require.False(t, p.Drawn(nil))
	require.False(t, p.Drawn([]uint64{p.Hash}))
	require.True(t, p.Drawn([]uint64{p.Hash, 42, p.Hash}))
}

func TestDrawnFiftyMoveGatedOnReserves(t *testing.T) {
	depleted := mustParse(t, "4k3/8/8/8/8/8/8/R3K3 w - [][]")
	depleted.Halfmove = 100
	require.True(t, depleted.Drawn(nil))

	// with reserve material left the halfmove rule does not apply
	holding := mustParse(t, "4k3/8/8/8/8/8/8/R3K3 w - [P][]")
	holding.Halfmove = 100
	require.False(t, holding.Drawn(nil))
}

func TestDrawnInsufficientMaterial(t *testing.T) {
	kk := mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - [][]")
	require.True(t, kk.Drawn(nil))

	kkn := mustParse(t, "4k3/8/8/8/8/2N5/8/4K3 w - [][]")
	require.True(t, kkn.Drawn(nil))

	kkr := mustParse(t, "4k3/8/8/8/8/2R5/8/4K3 w - [][]")
	require.False(t, kkr.Drawn(nil))
}

func TestLegalMovesFilterSelfCheck(t *testing.T) {
	// pinned rook: moving it off the e-file exposes the king
	p := mustParse(t, "4k3/8/8/8/4r3/8/4R3/4K3 w - [][]")
	for _, m := range p.LegalMoves() {
		if m.From == sq(t, "e2") {
			require.Equal(t, 4, m.To.File(), "pinned rook must stay on the e-file, got %s", m)
		}
	}
}
