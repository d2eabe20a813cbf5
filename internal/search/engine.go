// Package search implements the iterative-deepening negamax searcher with a
// transposition table, quiescence search, null-move pruning, late-move
// reductions, killer/history move ordering, multi-PV extraction and an
// accuracy dial for deliberate weakening.
//
// All search tables are fields of Engine. One Engine serves one search at a
// time; concurrent games each get their own instance (a shared table would
// cross-contaminate move ordering between unrelated searches).
package search

import (
	"fmt"
	"math"
	"time"

	"summonchess/internal/eval"
	"summonchess/internal/position"
)

const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 64

	// resign when the chosen line concedes a mate-adjacent score
	resignThreshold = -(MateScore - 500)

	// wall clock is consulted every timeCheckMask+1 nodes
	timeCheckMask = 2047
)

// Options configures one search invocation.
type Options struct {
	MaxDepth   int
	TimeBudget time.Duration
	Accuracy   int      // 100 = best play; lower values deliberately weaken
	History    []uint64 // prior position hashes for repetition detection
}

// Line is one principal variation with its score from the mover's
// perspective.
type Line struct {
	Moves []position.Move
	Score int
}

// Result is the outcome of a search.
type Result struct {
	BestMove position.Move
	Score    int // evaluation of the chosen line, mover's perspective
	Depth    int // last fully completed depth
	Lines    []Line
	Resign   bool
}

// Engine owns all mutable search state.
type Engine struct {
	tt      *transTable
	killers [MaxPly][2]position.Move
	history [2][8][64]int32 // [color][piece type][to square]

	pos         *position.Position
	nodes       uint64
	deadline    time.Time
	hasDeadline bool
	aborted     bool

	pv    [MaxPly][MaxPly]position.Move
	pvLen [MaxPly]int

	rootHashes []uint64
	path       []uint64
}

func NewEngine() *Engine {
	return &Engine{tt: newTransTable()}
}

// Reset clears every table. Call between independently keyed games when an
// Engine outlives one search session.
func (e *Engine) Reset() {
	e.tt.clear()
	e.killers = [MaxPly][2]position.Move{}
	e.history = [2][8][64]int32{}
}

// Search runs iterative deepening on a copy of the supplied position and
// returns the best move, score, completed depth and the ordered candidate
// lines. Results from an aborted depth never replace a completed one.
func (e *Engine) Search(p *position.Position, opt Options) (Result, error) {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = 6
	}
	if opt.MaxDepth > MaxPly-1 {
		opt.MaxDepth = MaxPly - 1
	}
	if opt.Accuracy <= 0 || opt.Accuracy > 100 {
		opt.Accuracy = 100
	}

	e.pos = p.Clone()
	e.nodes = 0
	e.aborted = false
	e.hasDeadline = opt.TimeBudget > 0
	if e.hasDeadline {
		e.deadline = time.Now().Add(opt.TimeBudget)
	}
	e.rootHashes = append(e.rootHashes[:0], opt.History...)
	e.path = e.path[:0]

	rootMoves := e.pos.LegalMoves()
	if len(rootMoves) == 0 {
		return Result{}, fmt.Errorf("no legal moves to search")
	}

	var (
		completed []Line
		depth     int
	)
	for d := 1; d <= opt.MaxDepth; d++ {
		lines := e.searchRoot(rootMoves, d)
		if e.aborted {
			break
		}
		completed = lines
		depth = d

		// reorder root moves so the deepening front searches the current
		// best line first
		rootMoves = rootMoves[:0]
		for _, l := range lines {
			rootMoves = append(rootMoves, l.Moves[0])
		}

		if completed[0].Score > MateScore-MaxPly && e.hasDeadline {
			break
		}
	}

	if len(completed) == 0 {
		// not even depth 1 finished inside the budget; fall back to a
		// static ordering of the root moves
		completed = e.staticRootLines(rootMoves)
		depth = 0
	}

	chosen := chooseByAccuracy(completed, opt.Accuracy)
	return Result{
		BestMove: chosen.Moves[0],
		Score:    chosen.Score,
		Depth:    depth,
		Lines:    completed,
		Resign:   chosen.Score <= resignThreshold,
	}, nil
}

// searchRoot evaluates every root move with a full window so all candidate
// lines carry exact scores for multi-PV extraction. Returns lines sorted
// best-first; the caller must discard the result if the search aborted.
func (e *Engine) searchRoot(rootMoves []position.Move, depth int) []Line {
	lines := make([]Line, 0, len(rootMoves))
	for _, m := range rootMoves {
		u := e.pos.Make(m)
		e.path = append(e.path, e.pos.Hash)
		e.pvLen[1] = 1
		score := -e.negamax(depth-1, 1, -Infinity, Infinity)
		e.path = e.path[:len(e.path)-1]
		e.pos.Unmake(u)

		if e.aborted {
			return nil
		}

		moves := make([]position.Move, 0, e.pvLen[1])
		moves = append(moves, m)
		for i := 1; i < e.pvLen[1]; i++ {
			moves = append(moves, e.pv[1][i])
		}
		lines = append(lines, Line{Moves: moves, Score: score})
	}

	sortLines(lines)
	best := lines[0]
	e.tt.store(e.pos.Hash, depth, scoreToTT(best.Score, 0), ttExact, best.Moves[0])
	return lines
}

func (e *Engine) staticRootLines(rootMoves []position.Move) []Line {
	lines := make([]Line, 0, len(rootMoves))
	for _, m := range rootMoves {
		u := e.pos.Make(m)
		score := -eval.Evaluate(e.pos)
		e.pos.Unmake(u)
		lines = append(lines, Line{Moves: []position.Move{m}, Score: score})
	}
	sortLines(lines)
	return lines
}

func sortLines(lines []Line) {
	// insertion sort; root move lists are short and mostly ordered
	for i := 1; i < len(lines); i++ {
		l := lines[i]
		j := i - 1
		for j >= 0 && lines[j].Score < l.Score {
			lines[j+1] = lines[j]
			j--
		}
		lines[j+1] = l
	}
}

// chooseByAccuracy implements the weakening dial. At 100 the best line is
// chosen. Below that, a target evaluation loss grows logarithmically as
// accuracy drops, and the candidate whose loss from the best line is closest
// to the target wins.
func chooseByAccuracy(lines []Line, accuracy int) Line {
	best := lines[0]
	if accuracy >= 100 || len(lines) == 1 {
		return best
	}
	target := TargetLoss(accuracy)
	chosen := best
	bestDist := target // distance of the best line itself (loss 0)
	if bestDist < 0 {
		bestDist = -bestDist
	}
	for _, l := range lines[1:] {
		// never blunder into a lost mate for style points
		if l.Score < -MateScore+MaxPly {
			continue
		}
		loss := best.Score - l.Score
		dist := loss - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			chosen = l
		}
	}
	return chosen
}

// TargetLoss maps an accuracy percentage to the centipawn loss the engine
// aims to concede. Exported so the mapping itself is testable.
func TargetLoss(accuracy int) int {
	if accuracy >= 100 {
		return 0
	}
	if accuracy < 1 {
		accuracy = 1
	}
	return int(40 * math.Log1p(float64(100-accuracy)))
}

// Nodes returns the node count of the last search.
func (e *Engine) Nodes() uint64 {
	return e.nodes
}
