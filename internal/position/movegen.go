package position

import "summonchess/internal/core"

// Movement deltas as (file, rank) pairs so board edges never wrap.
var (
	knightDeltas = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDeltas   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs     = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func offset(sq core.Square, df, dr int) core.Square {
	f, r := sq.File()+df, sq.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return core.NoSquare
	}
	return core.MakeSquare(f, r)
}

// pawnDir is the rank direction a pawn advances for a color.
func pawnDir(c core.Color) int {
	if c == core.White {
		return 1
	}
	return -1
}

func pawnStartRank(c core.Color) int {
	if c == core.White {
		return 1
	}
	return 6
}

func lastRank(c core.Color) int {
	if c == core.White {
		return 7
	}
	return 0
}

// GenerateMoves returns all pseudo-legal moves for the side to move: board
// moves followed by summon moves. Self-check filtering is done by Legal.
func (p *Position) GenerateMoves() []Move {
	moves := make([]Move, 0, 64)
	moves = p.appendBoardMoves(moves)
	moves = p.appendDrops(moves)
	return moves
}

// GenerateBoardMoves returns pseudo-legal board moves only.
func (p *Position) GenerateBoardMoves() []Move {
	return p.appendBoardMoves(make([]Move, 0, 48))
}

// GenerateDrops returns pseudo-legal summon moves only.
func (p *Position) GenerateDrops() []Move {
	return p.appendDrops(make([]Move, 0, 32))
}

func (p *Position) appendBoardMoves(moves []Move) []Move {
	us := p.Turn
	for sq := core.Square(0); sq < 64; sq++ {
		pt, c := p.At(sq)
		if c != us {
			continue
		}
		switch pt {
		case core.Pawn:
			moves = p.appendPawnMoves(moves, sq)
		case core.Knight:
			moves = p.appendStepMoves(moves, sq, core.Knight, knightDeltas[:])
		case core.King:
			moves = p.appendStepMoves(moves, sq, core.King, kingDeltas[:])
		case core.Bishop:
			moves = p.appendSlideMoves(moves, sq, core.Bishop, bishopDirs[:])
		case core.Rook:
			moves = p.appendSlideMoves(moves, sq, core.Rook, rookDirs[:])
		case core.Queen:
			moves = p.appendSlideMoves(moves, sq, core.Queen, rookDirs[:])
			moves = p.appendSlideMoves(moves, sq, core.Queen, bishopDirs[:])
		}
	}
	return moves
}

func (p *Position) appendStepMoves(moves []Move, from core.Square, pt core.Piece, deltas [][2]int) []Move {
	us := p.Turn
	for _, d := range deltas {
		to := offset(from, d[0], d[1])
		if !to.Valid() {
			continue
		}
		tpt, tc := p.At(to)
		if tc == us {
			continue
		}
		moves = append(moves, newBoardMove(from, to, pt, tpt, core.NoPiece, false))
	}
	return moves
}

func (p *Position) appendSlideMoves(moves []Move, from core.Square, pt core.Piece, dirs [][2]int) []Move {
	us := p.Turn
	for _, d := range dirs {
		for to := offset(from, d[0], d[1]); to.Valid(); to = offset(to, d[0], d[1]) {
			tpt, tc := p.At(to)
			if tc == us {
				break
			}
			moves = append(moves, newBoardMove(from, to, pt, tpt, core.NoPiece, false))
			if tpt != core.NoPiece {
				break
			}
		}
	}
	return moves
}

func (p *Position) appendPawnMoves(moves []Move, from core.Square) []Move {
	us := p.Turn
	dir := pawnDir(us)
	promoRank := lastRank(us)

	// promotion is forced to queen on the last rank
	promoFor := func(to core.Square) core.Piece {
		if to.Rank() == promoRank {
			return core.Queen
		}
		return core.NoPiece
	}

	if one := offset(from, 0, dir); one.Valid() && p.Empty(one) {
		moves = append(moves, newBoardMove(from, one, core.Pawn, core.NoPiece, promoFor(one), false))
		if from.Rank() == pawnStartRank(us) {
			if two := offset(from, 0, 2*dir); two.Valid() && p.Empty(two) {
				moves = append(moves, newBoardMove(from, two, core.Pawn, core.NoPiece, core.NoPiece, false))
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		to := offset(from, df, dir)
		if !to.Valid() {
			continue
		}
		tpt, tc := p.At(to)
		if tc == us.Opponent() {
			moves = append(moves, newBoardMove(from, to, core.Pawn, tpt, promoFor(to), false))
		} else if to == p.EnPassant {
			moves = append(moves, newBoardMove(from, to, core.Pawn, core.NoPiece, core.NoPiece, true))
		}
	}
	return moves
}

// ReachableSquares returns the summon targets for a side: the set of empty
// squares some piece the side owns could land on under its normal movement
// rule. Sliding pieces respect line-of-sight blocking; pawns contribute
// their push squares.
func (p *Position) ReachableSquares(c core.Color) [64]bool {
	var reach [64]bool
	mark := func(sq core.Square) {
		if sq.Valid() && p.Empty(sq) {
			reach[sq] = true
		}
	}
	markSlides := func(from core.Square, dirs [][2]int) {
		for _, d := range dirs {
			for to := offset(from, d[0], d[1]); to.Valid(); to = offset(to, d[0], d[1]) {
				if !p.Empty(to) {
					break
				}
				reach[to] = true
			}
		}
	}

	for sq := core.Square(0); sq < 64; sq++ {
		pt, pc := p.At(sq)
		if pc != c {
			continue
		}
		switch pt {
		case core.Pawn:
			dir := pawnDir(c)
			if one := offset(sq, 0, dir); one.Valid() && p.Empty(one) {
				reach[one] = true
				if sq.Rank() == pawnStartRank(c) {
					mark(offset(sq, 0, 2*dir))
				}
			}
		case core.Knight:
			for _, d := range knightDeltas {
				mark(offset(sq, d[0], d[1]))
			}
		case core.King:
			for _, d := range kingDeltas {
				mark(offset(sq, d[0], d[1]))
			}
		case core.Bishop:
			markSlides(sq, bishopDirs[:])
		case core.Rook:
			markSlides(sq, rookDirs[:])
		case core.Queen:
			markSlides(sq, rookDirs[:])
			markSlides(sq, bishopDirs[:])
		}
	}
	return reach
}

func (p *Position) appendDrops(moves []Move) []Move {
	us := p.Turn
	if p.ReserveEmpty(us) {
		return moves
	}
	reach := p.ReachableSquares(us)
	for pt := core.Pawn; pt < core.PieceCount; pt++ {
		if p.Reserves[us.Index()][pt] == 0 {
			continue
		}
		for sq := core.Square(0); sq < 64; sq++ {
			if !reach[sq] {
				continue
			}
			if pt == core.Pawn {
				r := sq.Rank()
				if r == 0 || r == 7 {
					continue
				}
			}
			moves = append(moves, newDropMove(pt, sq))
		}
	}
	return moves
}

// Attacked reports whether a square is attacked by any piece of the given
// color: pawn diagonals, knight jumps, king adjacency, or a sliding piece
// with a clear line.
func (p *Position) Attacked(sq core.Square, by core.Color) bool {
	// pawn attacks come from the rank behind the target, relative to the
	// attacker's direction of travel
	dir := pawnDir(by)
	for _, df := range [2]int{-1, 1} {
		if from := offset(sq, df, -dir); from.Valid() {
			if pt, c := p.At(from); c == by && pt == core.Pawn {
				return true
			}
		}
	}
	for _, d := range knightDeltas {
		if from := offset(sq, d[0], d[1]); from.Valid() {
			if pt, c := p.At(from); c == by && pt == core.Knight {
				return true
			}
		}
	}
	for _, d := range kingDeltas {
		if from := offset(sq, d[0], d[1]); from.Valid() {
			if pt, c := p.At(from); c == by && pt == core.King {
				return true
			}
		}
	}
	for _, d := range rookDirs {
		for from := offset(sq, d[0], d[1]); from.Valid(); from = offset(from, d[0], d[1]) {
			pt, c := p.At(from)
			if pt == core.NoPiece {
				continue
			}
			if c == by && (pt == core.Rook || pt == core.Queen) {
				return true
			}
			break
		}
	}
	for _, d := range bishopDirs {
		for from := offset(sq, d[0], d[1]); from.Valid(); from = offset(from, d[0], d[1]) {
			pt, c := p.At(from)
			if pt == core.NoPiece {
				continue
			}
			if c == by && (pt == core.Bishop || pt == core.Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether a side's king is attacked.
func (p *Position) InCheck(c core.Color) bool {
	return p.Attacked(p.KingSquare(c), c.Opponent())
}

// Check reports whether the side to move is in check.
func (p *Position) Check() bool {
	return p.InCheck(p.Turn)
}
