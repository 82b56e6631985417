// Package fen contains utilities for reading and writing positions in Forsyth-
// Edwards Notation.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/arrowgate/chessd/pkg/board"
)

const (
	Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Decode returns a new position and game status from a FEN description.
//
// Example:
//
//	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(fen string) (*board.Position, board.Color, int, int, error) {
	// A FEN record contains six space-separated fields.

	parts := strings.Fields(strings.TrimSpace(fen))
	if len(parts) != 6 {
		return nil, 0, 0, 0, fmt.Errorf("invalid number of sections in FEN: %q", fen)
	}

	// (1) Piece placement (from white's perspective). Each rank is described,
	// starting with rank 8 and ending with rank 1; within each rank, the
	// contents of each square are described from file a through file h.

	var pieces []board.Placement

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, 0, 0, 0, fmt.Errorf("invalid number of ranks in FEN: %q", fen)
	}
	for i, row := range ranks {
		rank := board.Rank(7 - i)
		file := 0
		for _, r := range row {
			switch {
			case unicode.IsDigit(r):
				file += int(r - '0')

			case unicode.IsLetter(r):
				// Following Standard Algebraic Notation, each piece is identified by a
				// single letter from the English names (pawn=P, knight=N, bishop=B,
				// rook=R, queen=Q, king=K); White is upper-case, Black lower-case.

				if file >= 8 {
					return nil, 0, 0, 0, fmt.Errorf("invalid rank length in FEN: %q", fen)
				}
				color, piece, ok := parsePiece(r)
				if !ok {
					return nil, 0, 0, 0, fmt.Errorf("invalid piece %q in FEN: %q", r, fen)
				}
				sq := board.NewSquare(board.File(file), rank)
				pieces = append(pieces, board.Placement{Square: sq, Color: color, Piece: piece})
				file++

			default:
				return nil, 0, 0, 0, fmt.Errorf("invalid character in FEN: %q", fen)
			}
		}
		if file != 8 {
			return nil, 0, 0, 0, fmt.Errorf("invalid number of squares in rank %q of FEN: %q", row, fen)
		}
	}

	// (2) Active color. "w" means white moves next, "b" means black.

	active, ok := parseColor(parts[1])
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("invalid active color in FEN: %q", fen)
	}

	// (3) Castling availability. If neither side can castle, this is "-".
	// Otherwise one or more of "K","Q","k","q".

	castling, err := board.ParseCastling(parts[2])
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("invalid castling in FEN: %q: %w", fen, err)
	}

	// (4) En passant target square. "-" if none. If a pawn just made a 2-square
	// move, this is the square "behind" it.

	ep := board.NoSquare
	if parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, 0, 0, 0, fmt.Errorf("invalid en passant in FEN: %q: %w", fen, err)
		}
		ep = sq
	}

	// (5) Halfmove clock: plies since the last pawn advance or capture, used for
	// the fifty-move rule.

	np, err := strconv.Atoi(parts[4])
	if err != nil || np < 0 {
		return nil, 0, 0, 0, fmt.Errorf("invalid halfmove clock in FEN: %q", fen)
	}

	// (6) Fullmove number: starts at 1, incremented after Black's move.

	fm, err := strconv.Atoi(parts[5])
	if err != nil || fm < 1 {
		return nil, 0, 0, 0, fmt.Errorf("invalid full move number in FEN: %q", fen)
	}

	pos, err := board.NewPosition(pieces, castling, ep)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("invalid position in FEN: %q: %w", fen, err)
	}
	return pos, active, np, fm, nil
}

// Encode encodes the position and game metadata in FEN notation.
func Encode(pos *board.Position, turn board.Color, noprogress, fullmoves int) string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		blanks := 0
		for f := 0; f < 8; f++ {
			color, piece, ok := pos.PieceAt(board.NewSquare(board.File(f), board.Rank(r)))
			if !ok {
				blanks++
				continue
			}
			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteRune(printPiece(color, piece))
		}
		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r > 0 {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if pos.EnPassant() != board.NoSquare {
		ep = pos.EnPassant().String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), printColor(turn), pos.Castling(), ep, noprogress, fullmoves)
}

func parseColor(str string) (board.Color, bool) {
	switch str {
	case "w", "W":
		return board.White, true
	case "b", "B":
		return board.Black, true
	default:
		return 0, false
	}
}

func printColor(c board.Color) string {
	if c == board.White {
		return "w"
	}
	return "b"
}

func parsePiece(r rune) (board.Color, board.Piece, bool) {
	switch r {
	case 'P':
		return board.White, board.Pawn, true
	case 'B':
		return board.White, board.Bishop, true
	case 'N':
		return board.White, board.Knight, true
	case 'R':
		return board.White, board.Rook, true
	case 'Q':
		return board.White, board.Queen, true
	case 'K':
		return board.White, board.King, true

	case 'p':
		return board.Black, board.Pawn, true
	case 'b':
		return board.Black, board.Bishop, true
	case 'n':
		return board.Black, board.Knight, true
	case 'r':
		return board.Black, board.Rook, true
	case 'q':
		return board.Black, board.Queen, true
	case 'k':
		return board.Black, board.King, true

	default:
		return 0, 0, false
	}
}

func printPiece(c board.Color, p board.Piece) rune {
	switch p {
	case board.Pawn:
		r := 'P'
		if c == board.Black {
			r = 'p'
		}
		return r
	case board.Bishop:
		if c == board.Black {
			return 'b'
		}
		return 'B'
	case board.Knight:
		if c == board.Black {
			return 'n'
		}
		return 'N'
	case board.Rook:
		if c == board.Black {
			return 'r'
		}
		return 'R'
	case board.Queen:
		if c == board.Black {
			return 'q'
		}
		return 'Q'
	case board.King:
		if c == board.Black {
			return 'k'
		}
		return 'K'
	default:
		return '?'
	}
}
