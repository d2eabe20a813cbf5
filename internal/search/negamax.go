package search

import (
	"sort"
	"time"

	"summonchess/internal/core"
	"summonchess/internal/eval"
	"summonchess/internal/position"
)

const (
	nullMoveReduction = 2
	lmrMinDepth       = 3
	lmrMoveThreshold  = 4
)

// negamax is the core alpha-beta recursion. A return value after e.aborted
// is set is meaningless and must be discarded by the caller; the iterative
// deepener keeps the last fully completed depth instead.
func (e *Engine) negamax(depth, ply, alpha, beta int) int {
	if e.nodes&timeCheckMask == 0 && e.hasDeadline && time.Now().After(e.deadline) {
		e.aborted = true
		return 0
	}
	e.nodes++
	e.pvLen[ply] = ply

	if ply >= MaxPly-1 {
		return eval.Evaluate(e.pos)
	}

	if e.isSearchDraw() {
		return 0
	}

	// transposition lookup
	var hashMove position.Move
	if entry, ok := e.tt.probe(e.pos.Hash); ok {
		hashMove = entry.best
		if int(entry.depth) >= depth {
			score := scoreFromTT(int(entry.score), ply)
			switch entry.flag {
			case ttExact:
				return score
			case ttLower:
				if score > alpha {
					alpha = score
				}
			case ttUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return e.quiescence(ply, alpha, beta)
	}

	us := e.pos.Turn
	inCheck := e.pos.InCheck(us)

	// null move pruning: pass the turn to cheaply detect positions already
	// good enough to beat beta
	if !inCheck && depth >= nullMoveReduction+1 && beta < MateScore-MaxPly && e.hasSlidingOrMinor(us) {
		u := e.pos.MakeNull()
		score := -e.negamax(depth-1-nullMoveReduction, ply+1, -beta, -beta+1)
		e.pos.UnmakeNull(u)
		if e.aborted {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	moves := e.pos.GenerateMoves()
	e.orderMoves(moves, ply, hashMove)

	bestScore := -Infinity
	bestMove := position.NoMove
	flag := ttUpper
	searched := 0

	for _, m := range moves {
		u := e.pos.Make(m)
		if e.pos.InCheck(us) {
			e.pos.Unmake(u)
			continue
		}
		givesCheck := e.pos.Check()
		e.path = append(e.path, e.pos.Hash)
		searched++

		var score int
		if searched == 1 {
			score = -e.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			// late move reduction for quiet, non-checking moves: scout at
			// reduced depth, re-search at full depth only if it beats alpha
			reduction := 0
			if depth >= lmrMinDepth && searched > lmrMoveThreshold &&
				!inCheck && !givesCheck && !m.IsCapture() && m.Promotion == core.NoPiece {
				reduction = 1
				if searched > 2*lmrMoveThreshold {
					reduction = 2
				}
			}
			score = -e.negamax(depth-1-reduction, ply+1, -alpha-1, -alpha)
			if score > alpha && (reduction > 0 || score < beta) {
				score = -e.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}

		e.path = e.path[:len(e.path)-1]
		e.pos.Unmake(u)

		if e.aborted {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				flag = ttExact
				e.pv[ply][ply] = m
				for i := ply + 1; i < e.pvLen[ply+1]; i++ {
					e.pv[ply][i] = e.pv[ply+1][i]
				}
				e.pvLen[ply] = e.pvLen[ply+1]
			}
		}

		if score >= beta {
			if !m.IsCapture() {
				e.storeKiller(m, ply)
				e.history[us.Index()][m.Piece][m.To] += int32(depth * depth)
			}
			e.tt.store(e.pos.Hash, depth, scoreToTT(score, ply), ttLower, m)
			return score
		}
	}

	// terminal detection inside the recursion: mate scores are ply-adjusted
	// so nearer mates score higher
	if searched == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	e.tt.store(e.pos.Hash, depth, scoreToTT(bestScore, ply), flag, bestMove)
	return bestScore
}

// quiescence extends capture and promotion sequences with a stand-pat
// cutoff until the position is quiet.
func (e *Engine) quiescence(ply, alpha, beta int) int {
	if e.nodes&timeCheckMask == 0 && e.hasDeadline && time.Now().After(e.deadline) {
		e.aborted = true
		return 0
	}
	e.nodes++

	standPat := eval.Evaluate(e.pos)
	if ply >= MaxPly-1 {
		return standPat
	}
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	us := e.pos.Turn
	moves := e.pos.GenerateBoardMoves()
	noisy := moves[:0]
	for _, m := range moves {
		if m.IsCapture() || m.Promotion != core.NoPiece {
			noisy = append(noisy, m)
		}
	}
	e.orderMoves(noisy, ply, position.NoMove)

	for _, m := range noisy {
		u := e.pos.Make(m)
		if e.pos.InCheck(us) {
			e.pos.Unmake(u)
			continue
		}
		score := -e.quiescence(ply+1, -beta, -alpha)
		e.pos.Unmake(u)

		if e.aborted {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// isSearchDraw detects repetition against the game history and search path,
// plus the depleted-reserve drawing conditions.
func (e *Engine) isSearchDraw() bool {
	hash := e.pos.Hash
	seen := 0
	for _, h := range e.path {
		if h == hash {
			seen++
		}
	}
	// the current position's hash is already on the path; one more
	// occurrence anywhere means the position repeated
	if seen >= 2 {
		return true
	}
	for _, h := range e.rootHashes {
		if h == hash {
			seen++
			if seen >= 2 {
				return true
			}
		}
	}
	if e.pos.ReserveEmpty(core.White) && e.pos.ReserveEmpty(core.Black) {
		if e.pos.Halfmove >= 100 {
			return true
		}
	}
	return false
}

// hasSlidingOrMinor guards null-move pruning against low-material zugzwang:
// with pieces in hand or on the board beyond king and pawns, passing is
// almost never the best option.
func (e *Engine) hasSlidingOrMinor(us core.Color) bool {
	for pt := core.Knight; pt <= core.Queen; pt++ {
		if e.pos.Reserve(us, pt) > 0 {
			return true
		}
	}
	for sq := core.Square(0); sq < 64; sq++ {
		pt, c := e.pos.At(sq)
		if c == us && pt >= core.Knight && pt <= core.Queen {
			return true
		}
	}
	return false
}

const (
	scoreHashMove = 1 << 24
	scoreCapture  = 1 << 20
	scoreKiller1  = 1 << 18
	scoreKiller2  = 1<<18 - 1
	scoreDropBase = 1 << 12
)

// orderMoves sorts in place: hash move first, captures by MVV/LVA, drops
// near the enemy king (with a bonus for a knight check against a trapped
// king), then killers and history.
func (e *Engine) orderMoves(moves []position.Move, ply int, hashMove position.Move) {
	if len(moves) < 2 {
		return
	}
	us := e.pos.Turn
	them := us.Opponent()
	enemyKing := e.pos.KingSquare(them)
	kingTrapped := eval.KingMobility(e.pos, them) <= 1

	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = e.scoreMove(m, ply, hashMove, enemyKing, kingTrapped)
	}
	sort.Sort(&moveSorter{moves: moves, scores: scores})
}

func (e *Engine) scoreMove(m position.Move, ply int, hashMove position.Move, enemyKing core.Square, kingTrapped bool) int {
	if m == hashMove {
		return scoreHashMove
	}
	if m.IsCapture() {
		captured := m.Captured
		if m.EnPassant {
			captured = core.Pawn
		}
		return scoreCapture + eval.PieceValue[captured]*8 - eval.PieceValue[m.Piece]
	}
	if m.Kind == position.DropMove {
		score := scoreDropBase + (7-chebyshev(m.To, enemyKing))*64
		if kingTrapped && m.Piece == core.Knight && knightDistance(m.To, enemyKing) {
			score += scoreCapture / 2
		}
		return score
	}
	if ply < MaxPly {
		if m == e.killers[ply][0] {
			return scoreKiller1
		}
		if m == e.killers[ply][1] {
			return scoreKiller2
		}
	}
	return int(e.history[e.pos.Turn.Index()][m.Piece][m.To])
}

func (e *Engine) storeKiller(m position.Move, ply int) {
	if ply >= MaxPly || e.killers[ply][0] == m {
		return
	}
	e.killers[ply][1] = e.killers[ply][0]
	e.killers[ply][0] = m
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

func knightDistance(a, b core.Square) bool {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	return (df == 1 && dr == 2) || (df == 2 && dr == 1)
}

type moveSorter struct {
	moves  []position.Move
	scores []int
}

func (s *moveSorter) Len() int           { return len(s.moves) }
func (s *moveSorter) Less(i, j int) bool { return s.scores[i] > s.scores[j] }
func (s *moveSorter) Swap(i, j int) {
	s.moves[i], s.moves[j] = s.moves[j], s.moves[i]
	s.scores[i], s.scores[j] = s.scores[j], s.scores[i]
}
