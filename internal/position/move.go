package position

import (
	"strings"

	"summonchess/internal/core"
)

// MoveKind distinguishes the two move variants.
type MoveKind uint8

const (
	BoardMove MoveKind = iota
	DropMove
)

// Move is a tagged move value. BoardMove uses From/To/Piece plus the
// Captured, Promotion and EnPassant annotations; DropMove uses Piece and To.
type Move struct {
	Kind      MoveKind
	From      core.Square
	To        core.Square
	Piece     core.Piece
	Captured  core.Piece
	Promotion core.Piece
	EnPassant bool
}

// NoMove is the zero move, never legal.
var NoMove = Move{From: core.NoSquare, To: core.NoSquare}

func newBoardMove(from, to core.Square, piece, captured, promotion core.Piece, ep bool) Move {
	return Move{
		Kind:      BoardMove,
		From:      from,
		To:        to,
		Piece:     piece,
		Captured:  captured,
		Promotion: promotion,
		EnPassant: ep,
	}
}

func newDropMove(piece core.Piece, to core.Square) Move {
	return Move{Kind: DropMove, From: core.NoSquare, To: to, Piece: piece}
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Kind == BoardMove && (m.Captured != core.NoPiece || m.EnPassant)
}

// Notation renders a human-readable move string: "Qd1-h5", "Nb1xc3",
// "e7-e8=Q" or "N@f6" for drops.
func (m Move) Notation() string {
	if m == NoMove {
		return "-"
	}
	var sb strings.Builder
	if m.Kind == DropMove {
		sb.WriteByte(m.Piece.Letter())
		sb.WriteByte('@')
		sb.WriteString(m.To.String())
		return sb.String()
	}
	if m.Piece != core.Pawn {
		sb.WriteByte(m.Piece.Letter())
	}
	sb.WriteString(m.From.String())
	if m.IsCapture() {
		sb.WriteByte('x')
	} else {
		sb.WriteByte('-')
	}
	sb.WriteString(m.To.String())
	if m.Promotion != core.NoPiece {
		sb.WriteByte('=')
		sb.WriteByte(m.Promotion.Letter())
	}
	return sb.String()
}

func (m Move) String() string {
	return m.Notation()
}
