package search

import "summonchess/internal/position"

type ttFlag uint8

const (
	ttExact ttFlag = iota
	ttLower
	ttUpper
)

// ttEntry is one transposition table slot, keyed by hash modulo table size.
// Later stores overwrite earlier ones when at least as deep; hash collisions
// are accepted, the full hash field guards against using a foreign entry.
type ttEntry struct {
	hash  uint64
	depth int8
	flag  ttFlag
	score int32
	best  position.Move
}

const ttSizePow = 20 // 1M entries

type transTable struct {
	entries []ttEntry
	mask    uint64
}

func newTransTable() *transTable {
	n := 1 << ttSizePow
	return &transTable{
		entries: make([]ttEntry, n),
		mask:    uint64(n - 1),
	}
}

func (t *transTable) clear() {
	for i := range t.entries {
		t.entries[i] = ttEntry{}
	}
}

func (t *transTable) probe(hash uint64) (ttEntry, bool) {
	e := t.entries[hash&t.mask]
	if e.hash == hash && e.depth > 0 {
		return e, true
	}
	return ttEntry{}, false
}

func (t *transTable) store(hash uint64, depth int, score int, flag ttFlag, best position.Move) {
	e := &t.entries[hash&t.mask]
	if e.hash == hash && int(e.depth) > depth {
		return
	}
	*e = ttEntry{
		hash:  hash,
		depth: int8(depth),
		flag:  flag,
		score: int32(score),
		best:  best,
	}
}

// Mate scores are stored relative to the node so cached mate distances stay
// correct when the search is re-rooted: shift by ply on store, shift back on
// retrieve.
func scoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
