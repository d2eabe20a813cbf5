package position

import "summonchess/internal/core"

// Zobrist keys for incremental position hashing. Reserve counts participate
// in the hash so that two positions with identical boards but different
// pockets never collide by construction.
var (
	zPiece     [2][core.PieceCount][64]uint64
	zReserve   [2][core.PieceCount][maxReserve + 1]uint64
	zEnPassant [8]uint64
	zSide      uint64
)

// maxReserve is the largest per-type reserve count (eight pawns).
const maxReserve = 8

// xorshift64* with a fixed seed so hashes are reproducible across runs.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func init() {
	rng := prng{state: 0x51D0F3A28C6E97B4}

	for c := 0; c < 2; c++ {
		for pt := core.Pawn; pt < core.PieceCount; pt++ {
			for sq := 0; sq < 64; sq++ {
				zPiece[c][pt][sq] = rng.next()
			}
			for n := 0; n <= maxReserve; n++ {
				zReserve[c][pt][n] = rng.next()
			}
		}
	}
	for f := 0; f < 8; f++ {
		zEnPassant[f] = rng.next()
	}
	zSide = rng.next()
}

// computeHash builds the hash from scratch. Used after parsing an encoding;
// make/unmake maintain it incrementally from then on.
func (p *Position) computeHash() uint64 {
	var h uint64
	for sq := core.Square(0); sq < 64; sq++ {
		if pc, c := p.At(sq); pc != core.NoPiece {
			h ^= zPiece[c.Index()][pc][sq]
		}
	}
	for c := 0; c < 2; c++ {
		for pt := core.Pawn; pt < core.PieceCount; pt++ {
			h ^= zReserve[c][pt][p.Reserves[c][pt]]
		}
	}
	if p.EnPassant.Valid() {
		h ^= zEnPassant[p.EnPassant.File()]
	}
	if p.Turn == core.Black {
		h ^= zSide
	}
	return h
}
