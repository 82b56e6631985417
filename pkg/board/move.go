package board

import (
	"fmt"
	"strings"
)

// MoveFlag marks the special properties of a move that MakeMove/UnmakeMove need in
// order to update castling rights, the en passant target and the half-move clock
// without re-deriving them from the board.
type MoveFlag uint8

const (
	Quiet MoveFlag = 0

	Capture MoveFlag = 1 << iota
	EnPassant
	Castle
	DoublePush
	Promotion
)

func (f MoveFlag) Has(flag MoveFlag) bool {
	return f&flag == flag
}

// Move represents a not-necessarily-legal move along with the metadata needed to
// make and unmake it on a Position.
type Move struct {
	From, To  Square
	Promotion Piece // desired piece for promotion, if Flags has Promotion.
	Flags     MoveFlag

	// Score is a move-ordering priority, not part of move identity. It is ignored
	// by Equals and Encode/Decode.
	Score Score
}

// Encode packs the move into 16 bits: 6 bits From, 6 bits To, 3 bits Promotion,
// 1 bit Promotion-flag. Castle/Capture/EnPassant/DoublePush are derivable from the
// position at Decode time and are not packed, matching the transposition table's
// best-move slot which only needs From/To/Promotion to replay a move.
func (m Move) Encode() uint16 {
	var v uint16
	v |= uint16(m.From)
	v |= uint16(m.To) << 6
	if m.Flags.Has(Promotion) {
		v |= uint16(m.Promotion) << 12
		v |= 1 << 15
	}
	return v
}

func DecodeMove(v uint16) Move {
	m := Move{
		From: Square(v & 0x3f),
		To:   Square((v >> 6) & 0x3f),
	}
	if v&(1<<15) != 0 {
		m.Promotion = Piece((v >> 12) & 0x7)
		m.Flags |= Promotion
	}
	return m
}

// ParseMove parses a move in pure algebraic coordinate notation, such as "a2a4" or
// "a7a8q". The parsed move carries no contextual flags; Position.Move re-derives
// those by matching it against the legal move list.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from: %q: %w", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to: %q: %w", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion: %q", str)
		}
		return Move{From: from, To: to, Promotion: promo, Flags: Promotion}, nil
	}

	return Move{From: from, To: to}, nil
}

// Equals compares move identity: the squares and the promotion piece. Flags and
// Score are metadata filled in by move generation, not part of identity, since two
// generators may disagree on e.g. whether DoublePush is worth tagging.
func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) IsZero() bool {
	return m.From == m.To
}

func (m Move) IsCapture() bool   { return m.Flags.Has(Capture) || m.Flags.Has(EnPassant) }
func (m Move) IsPromotion() bool { return m.Flags.Has(Promotion) }
func (m Move) IsCastle() bool    { return m.Flags.Has(Castle) }
func (m Move) IsQuiet() bool     { return m.Flags == Quiet }

func (m Move) String() string {
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteString(m.To.String())
	if m.Flags.Has(Promotion) {
		sb.WriteString(m.Promotion.String())
	}
	return sb.String()
}
