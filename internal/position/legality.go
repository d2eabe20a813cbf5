package position

import "summonchess/internal/core"

// Legal reports whether a pseudo-legal move leaves the mover's own king out
// of check. The trial mutation is undone before returning.
func (p *Position) Legal(m Move) bool {
	mover := p.Turn
	u := p.Make(m)
	ok := !p.InCheck(mover)
	p.Unmake(u)
	return ok
}

// LegalMoves returns every legal move and summon for the side to move.
func (p *Position) LegalMoves() []Move {
	pseudo := p.GenerateMoves()
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.Legal(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMove reports whether any legal move or summon exists, with early
// exit.
func (p *Position) HasLegalMove() bool {
	for _, m := range p.GenerateMoves() {
		if p.Legal(m) {
			return true
		}
	}
	return false
}

// hasLegalBoardMove ignores the reserve.
func (p *Position) hasLegalBoardMove() bool {
	for _, m := range p.GenerateBoardMoves() {
		if p.Legal(m) {
			return true
		}
	}
	return false
}

// Checkmate reports true checkmate: the side to move is in check, no board
// move escapes, and no single reserve drop resolves the check. The drop
// trial is exhaustive over every piece type in the reserve and every empty
// reachable square, re-derived on each call.
func (p *Position) Checkmate() bool {
	us := p.Turn
	if !p.InCheck(us) {
		return false
	}
	if p.hasLegalBoardMove() {
		return false
	}
	return !p.checkEscapeByDrop()
}

// checkEscapeByDrop tries every distinct (piece type, empty reachable
// square) drop and reports whether one leaves the king safe.
func (p *Position) checkEscapeByDrop() bool {
	us := p.Turn
	if p.ReserveEmpty(us) {
		return false
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
			if pt == core.Pawn && (sq.Rank() == 0 || sq.Rank() == 7) {
				continue
			}
			u := p.Make(newDropMove(pt, sq))
			safe := !p.InCheck(us)
			p.Unmake(u)
			if safe {
				return true
			}
		}
	}
	return false
}

// Stalemate reports that the side to move is not in check yet has neither a
// legal board move nor a legal summon. A side with an empty reserve and no
// board moves is immediately stalemated.
func (p *Position) Stalemate() bool {
	if p.InCheck(p.Turn) {
		return false
	}
	return !p.HasLegalMove()
}

// Drawn reports a draw: threefold repetition against the supplied history of
// prior position hashes, or, once both reserves are depleted, the standard
// 50-move and insufficient-material conditions.
func (p *Position) Drawn(priorHashes []uint64) bool {
	count := 0
	for _, h := range priorHashes {
		if h == p.Hash {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	if !p.ReserveEmpty(core.White) || !p.ReserveEmpty(core.Black) {
		return false
	}
	if p.Halfmove >= 100 {
		return true
	}
	return p.insufficientMaterial()
}

// insufficientMaterial covers king vs king, optionally with a single minor
// piece on either side.
func (p *Position) insufficientMaterial() bool {
	minors := 0
	for sq := core.Square(0); sq < 64; sq++ {
		switch pt, _ := p.At(sq); pt {
		case core.NoPiece, core.King:
		case core.Knight, core.Bishop:
			minors++
			if minors > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// FindMove resolves a from/to/promotion triple against the current legal
// board moves. Returns NoMove if nothing matches.
func (p *Position) FindMove(from, to core.Square, promotion core.Piece) Move {
	for _, m := range p.GenerateBoardMoves() {
		if m.From != from || m.To != to {
			continue
		}
		if promotion != core.NoPiece && m.Promotion != promotion {
			continue
		}
		if p.Legal(m) {
			return m
		}
		return NoMove
	}
	return NoMove
}

// FindDrop resolves a summon of a piece type onto a square. Returns NoMove
// if the drop fails reserve, emptiness, rank or reachability rules.
func (p *Position) FindDrop(pt core.Piece, to core.Square) Move {
	if pt == core.NoPiece || pt == core.King || !to.Valid() {
		return NoMove
	}
	if p.Reserve(p.Turn, pt) == 0 || !p.Empty(to) {
		return NoMove
	}
	if pt == core.Pawn && (to.Rank() == 0 || to.Rank() == 7) {
		return NoMove
	}
	if !p.ReachableSquares(p.Turn)[to] {
		return NoMove
	}
	m := newDropMove(pt, to)
	if !p.Legal(m) {
		return NoMove
	}
	return m
}
