// Package core holds the shared vocabulary of the summon chess server:
// colors, piece types, squares, game states and the wire-level request and
// response types exchanged with external callers.
package core

import "fmt"

// Color is the side a piece or player belongs to. The numeric values are
// chosen so that a signed board cell is piece*color.
type Color int8

const (
	NoColor Color = 0
	White   Color = 1
	Black   Color = -1
)

// Index maps a color to a 0/1 array index.
func (c Color) Index() int {
	if c == White {
		return 0
	}
	return 1
}

func (c Color) Opponent() Color {
	return -c
}

func (c Color) String() string {
	switch c {
	case White:
		return "w"
	case Black:
		return "b"
	default:
		return ""
	}
}

// ParseColor accepts "w" or "b".
func ParseColor(s string) (Color, error) {
	switch s {
	case "w":
		return White, nil
	case "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("invalid color: %q", s)
	}
}

// Piece is a piece type without color.
type Piece int8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	PieceCount
)

var pieceLetters = [PieceCount]byte{0, 'P', 'N', 'B', 'R', 'Q', 'K'}

// Letter returns the uppercase letter used in position encodings and
// reserve listings.
func (p Piece) Letter() byte {
	if p <= NoPiece || p >= PieceCount {
		return '?'
	}
	return pieceLetters[p]
}

func (p Piece) String() string {
	return string(p.Letter())
}

// ParsePiece accepts a single piece letter in either case.
func ParsePiece(s string) (Piece, error) {
	if len(s) != 1 {
		return NoPiece, fmt.Errorf("invalid piece: %q", s)
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for p := Pawn; p < PieceCount; p++ {
		if pieceLetters[p] == c {
			return p, nil
		}
	}
	return NoPiece, fmt.Errorf("invalid piece: %q", s)
}

// Square is a board index, 0 = a1 through 63 = h8.
type Square int8

const NoSquare Square = -1

func MakeSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare accepts algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return MakeSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}
