// Package position implements the summon chess rules engine: the board and
// reserve representation, pseudo-legal move and drop generation, legality
// filtering and terminal state detection.
//
// Both sides start with a lone king on the board and a pocket of reserve
// pieces. A reserve piece may be summoned onto any empty square one of the
// player's own pieces could reach by its normal movement rule. Captured
// pieces leave the game; reserves only ever shrink.
package position

import "summonchess/internal/core"

// Position is the mutable board state. Make/Unmake form an exact pair: the
// returned Undo captures the full delta needed to restore the prior state,
// so search loops never deep-copy the board.
type Position struct {
	Board     [64]int8                      // signed piece codes, sign = color
	Reserves  [2][core.PieceCount]uint8     // [color index][piece type]
	Turn      core.Color
	EnPassant core.Square // target square of a just-made double push, or NoSquare
	Hash      uint64
	Halfmove  int // plies since the last capture, pawn move or drop

	kings [2]core.Square
}

// Undo is the delta captured by Make.
type Undo struct {
	Move          Move
	PrevEnPassant core.Square
	PrevHash      uint64
	PrevHalfmove  int
}

// defaultReserve is the fixed starting pocket per side.
var defaultReserve = [core.PieceCount]uint8{
	core.Pawn:   8,
	core.Knight: 2,
	core.Bishop: 2,
	core.Rook:   2,
	core.Queen:  1,
}

// New returns the default starting position: kings on e1 and e8, full
// reserves, White to move.
func New() *Position {
	p := &Position{
		Turn:      core.White,
		EnPassant: core.NoSquare,
	}
	p.put(core.MakeSquare(4, 0), core.King, core.White)
	p.put(core.MakeSquare(4, 7), core.King, core.Black)
	p.Reserves[0] = defaultReserve
	p.Reserves[1] = defaultReserve
	p.Hash = p.computeHash()
	return p
}

// At returns the piece and color on a square.
func (p *Position) At(sq core.Square) (core.Piece, core.Color) {
	v := p.Board[sq]
	switch {
	case v > 0:
		return core.Piece(v), core.White
	case v < 0:
		return core.Piece(-v), core.Black
	default:
		return core.NoPiece, core.NoColor
	}
}

// Empty reports whether a square holds no piece.
func (p *Position) Empty(sq core.Square) bool {
	return p.Board[sq] == 0
}

// KingSquare returns the cached king location for a side.
func (p *Position) KingSquare(c core.Color) core.Square {
	return p.kings[c.Index()]
}

// Reserve returns the pocket count for one piece type.
func (p *Position) Reserve(c core.Color, pt core.Piece) int {
	return int(p.Reserves[c.Index()][pt])
}

// ReserveEmpty reports whether a side has no pieces left to summon.
func (p *Position) ReserveEmpty(c core.Color) bool {
	for pt := core.Pawn; pt < core.PieceCount; pt++ {
		if p.Reserves[c.Index()][pt] > 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	q := *p
	return &q
}

// put places a piece without hash bookkeeping. Setup only.
func (p *Position) put(sq core.Square, pt core.Piece, c core.Color) {
	p.Board[sq] = int8(pt) * int8(c)
	if pt == core.King {
		p.kings[c.Index()] = sq
	}
}

// addPiece and removePiece keep the incremental hash in sync.
func (p *Position) addPiece(sq core.Square, pt core.Piece, c core.Color) {
	p.Board[sq] = int8(pt) * int8(c)
	p.Hash ^= zPiece[c.Index()][pt][sq]
	if pt == core.King {
		p.kings[c.Index()] = sq
	}
}

func (p *Position) removePiece(sq core.Square, pt core.Piece, c core.Color) {
	p.Board[sq] = 0
	p.Hash ^= zPiece[c.Index()][pt][sq]
}

// adjustReserve changes a pocket count by delta, rehashing the count.
func (p *Position) adjustReserve(c core.Color, pt core.Piece, delta int) {
	i := c.Index()
	p.Hash ^= zReserve[i][pt][p.Reserves[i][pt]]
	p.Reserves[i][pt] = uint8(int(p.Reserves[i][pt]) + delta)
	p.Hash ^= zReserve[i][pt][p.Reserves[i][pt]]
}

func (p *Position) setEnPassant(sq core.Square) {
	if p.EnPassant.Valid() {
		p.Hash ^= zEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = sq
	if sq.Valid() {
		p.Hash ^= zEnPassant[sq.File()]
	}
}

// Make applies a move for the side to move and returns the undo delta. The
// move is assumed pseudo-legal; legality (self-check) is the caller's
// concern via Legal or LegalMoves.
func (p *Position) Make(m Move) Undo {
	u := Undo{
		Move:          m,
		PrevEnPassant: p.EnPassant,
		PrevHash:      p.Hash,
		PrevHalfmove:  p.Halfmove,
	}
	mover := p.Turn

	switch m.Kind {
	case DropMove:
		p.setEnPassant(core.NoSquare)
		p.adjustReserve(mover, m.Piece, -1)
		p.addPiece(m.To, m.Piece, mover)
		p.Halfmove = 0 // a summon is irreversible

	case BoardMove:
		p.setEnPassant(core.NoSquare)
		p.removePiece(m.From, m.Piece, mover)
		if m.EnPassant {
			capSq := core.MakeSquare(m.To.File(), m.From.Rank())
			p.removePiece(capSq, core.Pawn, mover.Opponent())
		} else if m.Captured != core.NoPiece {
			p.removePiece(m.To, m.Captured, mover.Opponent())
		}
		placed := m.Piece
		if m.Promotion != core.NoPiece {
			placed = m.Promotion
		}
		p.addPiece(m.To, placed, mover)

		if m.Piece == core.Pawn {
			p.Halfmove = 0
			if diff := m.To.Rank() - m.From.Rank(); diff == 2 || diff == -2 {
				p.setEnPassant(core.MakeSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2))
			}
		} else if m.Captured != core.NoPiece {
			p.Halfmove = 0
		} else {
			p.Halfmove++
		}
	}

	p.Turn = mover.Opponent()
	p.Hash ^= zSide
	return u
}

// Unmake restores the position captured by Make.
func (p *Position) Unmake(u Undo) {
	m := u.Move
	p.Turn = p.Turn.Opponent()
	mover := p.Turn

	switch m.Kind {
	case DropMove:
		p.Board[m.To] = 0
		i := mover.Index()
		p.Reserves[i][m.Piece]++

	case BoardMove:
		p.Board[m.To] = 0
		p.Board[m.From] = int8(m.Piece) * int8(mover)
		if m.Piece == core.King {
			p.kings[mover.Index()] = m.From
		}
		if m.EnPassant {
			capSq := core.MakeSquare(m.To.File(), m.From.Rank())
			p.Board[capSq] = int8(core.Pawn) * int8(mover.Opponent())
		} else if m.Captured != core.NoPiece {
			p.Board[m.To] = int8(m.Captured) * int8(mover.Opponent())
		}
	}

	p.EnPassant = u.PrevEnPassant
	p.Hash = u.PrevHash
	p.Halfmove = u.PrevHalfmove
}

// MakeNull passes the turn for null-move pruning. Undo by calling UnmakeNull
// with the returned delta.
func (p *Position) MakeNull() Undo {
	u := Undo{Move: NoMove, PrevEnPassant: p.EnPassant, PrevHash: p.Hash, PrevHalfmove: p.Halfmove}
	p.setEnPassant(core.NoSquare)
	p.Turn = p.Turn.Opponent()
	p.Hash ^= zSide
	return u
}

func (p *Position) UnmakeNull(u Undo) {
	p.Turn = p.Turn.Opponent()
	p.EnPassant = u.PrevEnPassant
	p.Hash = u.PrevHash
	p.Halfmove = u.PrevHalfmove
}
