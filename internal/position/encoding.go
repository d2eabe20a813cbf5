package position

import (
	"fmt"
	"strings"

	"summonchess/internal/core"
)

// The position encoding is an extended board notation: piece placement and
// side to move as in FEN, an en-passant target square (or "-"), then two
// bracketed reserve listings, White's first:
//
//	4k3/8/8/8/8/8/8/4K3 w - [QRRBBNNPPPPPPPP][QRRBBNNPPPPPPPP]
//
// The reserve segment is optional on input; absent brackets mean empty
// reserves.

// reserveOrder lists piece letters in descending value for canonical output.
var reserveOrder = [5]core.Piece{core.Queen, core.Rook, core.Bishop, core.Knight, core.Pawn}

// Encode renders the canonical encoding of a position.
func (p *Position) Encode() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pt, c := p.At(core.MakeSquare(file, rank))
			if pt == core.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			letter := pt.Letter()
			if c == core.Black {
				letter += 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.Turn.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(p.reserveString(core.White))
	sb.WriteString(p.reserveString(core.Black))
	return sb.String()
}

func (p *Position) reserveString(c core.Color) string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(p.ReserveLetters(c))
	sb.WriteByte(']')
	return sb.String()
}

// ReserveLetters renders one side's pocket as uppercase letters in
// descending piece value, e.g. "QRRBBNNPPPPPPPP".
func (p *Position) ReserveLetters(c core.Color) string {
	var sb strings.Builder
	for _, pt := range reserveOrder {
		for i := 0; i < p.Reserve(c, pt); i++ {
			sb.WriteByte(pt.Letter())
		}
	}
	return sb.String()
}

// Parse decodes an extended position encoding.
func Parse(s string) (*Position, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid position: expected at least placement and turn, got %q", s)
	}

	p := &Position{EnPassant: core.NoSquare}
	p.kings = [2]core.Square{core.NoSquare, core.NoSquare}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid position: expected 8 ranks, got %d", len(ranks))
	}
	var kingCount [2]int
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if file >= 8 {
				return nil, fmt.Errorf("invalid position: too many pieces in rank %d", rank+1)
			}
			c := core.White
			letter := ch
			if ch >= 'a' && ch <= 'z' {
				c = core.Black
				letter = ch - ('a' - 'A')
			}
			pt, err := core.ParsePiece(string(letter))
			if err != nil {
				return nil, fmt.Errorf("invalid position: bad piece %q in rank %d", ch, rank+1)
			}
			if pt == core.King {
				kingCount[c.Index()]++
			}
			p.put(core.MakeSquare(file, rank), pt, c)
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid position: rank %d has %d files", rank+1, file)
		}
	}

	turn, err := core.ParseColor(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid position: %w", err)
	}
	p.Turn = turn

	rest := fields[2:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "[") {
		if rest[0] != "-" {
			ep, err := core.ParseSquare(rest[0])
			if err != nil {
				return nil, fmt.Errorf("invalid position: bad en passant square %q", rest[0])
			}
			p.EnPassant = ep
		}
		rest = rest[1:]
	}

	if len(rest) > 0 {
		if err := p.parseReserves(strings.Join(rest, "")); err != nil {
			return nil, err
		}
	}

	if kingCount[0] != 1 || kingCount[1] != 1 {
		return nil, fmt.Errorf("invalid position: each side must have exactly one king")
	}

	p.Hash = p.computeHash()
	return p, nil
}

func (p *Position) parseReserves(s string) error {
	open := strings.Count(s, "[")
	if open != 2 || strings.Count(s, "]") != 2 {
		return fmt.Errorf("invalid position: expected two bracketed reserves, got %q", s)
	}
	for _, c := range [2]core.Color{core.White, core.Black} {
		start := strings.Index(s, "[")
		end := strings.Index(s, "]")
		if start == -1 || end < start {
			return fmt.Errorf("invalid position: malformed reserve segment %q", s)
		}
		for _, ch := range s[start+1 : end] {
			pt, err := core.ParsePiece(string(ch))
			if err != nil || pt == core.King {
				return fmt.Errorf("invalid position: bad reserve piece %q", ch)
			}
			if p.Reserves[c.Index()][pt] >= maxReserve {
				return fmt.Errorf("invalid position: reserve overflow for %s", pt)
			}
			p.Reserves[c.Index()][pt]++
		}
		s = s[end+1:]
	}
	return nil
}

// ToASCII renders the board for terminals and the debug endpoint.
func (p *Position) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(fmt.Sprintf("%d ", rank+1))
		for file := 0; file < 8; file++ {
			pt, c := p.At(core.MakeSquare(file, rank))
			if pt == core.NoPiece {
				sb.WriteString(". ")
				continue
			}
			letter := pt.Letter()
			if c == core.Black {
				letter += 'a' - 'A'
			}
			sb.WriteByte(letter)
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf(" %d\n", rank+1))
	}
	sb.WriteString("  a b c d e f g h\n")
	sb.WriteString(fmt.Sprintf("White reserve: [%s]\n", p.ReserveLetters(core.White)))
	sb.WriteString(fmt.Sprintf("Black reserve: [%s]", p.ReserveLetters(core.Black)))
	return sb.String()
}
