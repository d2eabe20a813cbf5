// Package eval scores a position from the side-to-move's perspective.
// Component magnitudes follow material > position > king safety > tactical
// drop bonuses.
package eval

import (
	"summonchess/internal/core"
	"summonchess/internal/position"
)

// PieceValue holds base material values in centipawns. Exported for move
// ordering (MVV/LVA) in the search.
var PieceValue = [core.PieceCount]int{
	core.Pawn:   100,
	core.Knight: 320,
	core.Bishop: 330,
	core.Rook:   500,
	core.Queen:  900,
}

const (
	// reserve pieces carry a premium over on-board material: a pocketed
	// piece can appear anywhere reachable, which is worth something
	reservePremiumPct = 110

	centerWeight    = 4
	pressureWeight  = 2
	pawnAdvanceMul  = 3
	mobilityWeight  = 8
	trappedInCheck  = 600
	netKnightBonus  = 150
	netQueenBonus   = 100
)

// centerBonus rewards proximity to the four center squares, 0..3 per axis.
var centerBonus [64]int

func init() {
	for sq := 0; sq < 64; sq++ {
		f, r := sq%8, sq/8
		df, dr := centerDist(f), centerDist(r)
		d := df
		if dr > d {
			d = dr
		}
		centerBonus[sq] = 3 - d
	}
}

func centerDist(x int) int {
	if x < 4 {
		return 3 - x
	}
	return x - 4
}

// Evaluate returns the static score for the side to move; positive favors
// the mover.
func Evaluate(p *position.Position) int {
	score := sideScore(p, core.White) - sideScore(p, core.Black)
	if p.Turn == core.Black {
		score = -score
	}
	return score
}

func sideScore(p *position.Position, us core.Color) int {
	them := us.Opponent()
	enemyKing := p.KingSquare(them)
	score := 0

	for sq := core.Square(0); sq < 64; sq++ {
		pt, c := p.At(sq)
		if c != us {
			continue
		}
		score += PieceValue[pt]
		score += centerBonus[sq] * centerWeight
		score += (7 - chebyshev(sq, enemyKing)) * pressureWeight
		if pt == core.Pawn {
			score += pawnProgress(sq, us) * pawnProgress(sq, us) * pawnAdvanceMul
		}
	}

	for pt := core.Pawn; pt < core.PieceCount; pt++ {
		n := p.Reserve(us, pt)
		if n > 0 {
			score += n * PieceValue[pt] * reservePremiumPct / 100
		}
	}

	mobility := KingMobility(p, us)
	score += mobility * mobilityWeight
	if mobility == 0 && p.InCheck(us) {
		score -= trappedInCheck
	}

	score += matingNetBonus(p, us)
	return score
}

func chebyshev(a, b core.Square) int {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}

// pawnProgress is how far a pawn has advanced from its start rank, 0..5.
func pawnProgress(sq core.Square, c core.Color) int {
	if c == core.White {
		return sq.Rank() - 1
	}
	return 6 - sq.Rank()
}

// KingMobility counts king step squares that are on the board, not occupied
// by a friendly piece, and not attacked by the enemy.
func KingMobility(p *position.Position, us core.Color) int {
	king := p.KingSquare(us)
	them := us.Opponent()
	n := 0
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			f, r := king.File()+df, king.Rank()+dr
			if f < 0 || f > 7 || r < 0 || r > 7 {
				continue
			}
			to := core.MakeSquare(f, r)
			if _, c := p.At(to); c == us {
				continue
			}
			if !p.Attacked(to, them) {
				n++
			}
		}
	}
	return n
}

// matingNetBonus rewards reserve knights and queens that could drop to give
// check against a king with at most one escape square.
func matingNetBonus(p *position.Position, us core.Color) int {
	them := us.Opponent()
	hasKnight := p.Reserve(us, core.Knight) > 0
	hasQueen := p.Reserve(us, core.Queen) > 0
	if !hasKnight && !hasQueen {
		return 0
	}
	if KingMobility(p, them) > 1 {
		return 0
	}

	enemyKing := p.KingSquare(them)
	reach := p.ReachableSquares(us)
	bonus := 0
	knightDone, queenDone := !hasKnight, !hasQueen
	for sq := core.Square(0); sq < 64; sq++ {
		if !reach[sq] {
			continue
		}
		if !knightDone && knightChecks(sq, enemyKing) {
			bonus += netKnightBonus
			knightDone = true
		}
		if !queenDone && queenChecks(p, sq, enemyKing) {
			bonus += netQueenBonus
			queenDone = true
		}
		if knightDone && queenDone {
			break
		}
	}
	return bonus
}

func knightChecks(from, king core.Square) bool {
	df := from.File() - king.File()
	dr := from.Rank() - king.Rank()
	if df < 0 {
		df = -df
	}
	if dr < 0 {
		dr = -dr
	}
	return (df == 1 && dr == 2) || (df == 2 && dr == 1)
}

// queenChecks reports whether a queen on from would attack the king along a
// clear rank, file or diagonal.
func queenChecks(p *position.Position, from, king core.Square) bool {
	df := sign(king.File() - from.File())
	dr := sign(king.Rank() - from.Rank())
	if df == 0 && dr == 0 {
		return false
	}
	adf, adr := abs(king.File()-from.File()), abs(king.Rank()-from.Rank())
	if df != 0 && dr != 0 && adf != adr {
		return false
	}
	f, r := from.File()+df, from.Rank()+dr
	for f != king.File() || r != king.Rank() {
		if !p.Empty(core.MakeSquare(f, r)) {
			return false
		}
		f += df
		r += dr
	}
	return true
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
