// Package eval contains static position evaluation.
package eval

import (
	"context"

	"github.com/arrowgate/chessd/pkg/board"
)

// Evaluator is a static position evaluator. It returns the score for the side
// to move, in centipawns, positive meaning an advantage for that side.
type Evaluator interface {
	Evaluate(ctx context.Context, b *board.Board) board.Score
}

// Material returns the nominal material balance for the side to move.
type Material struct{}

func (Material) Evaluate(_ context.Context, b *board.Board) board.Score {
	pos := b.Position()
	turn := b.Turn()

	var score board.Score
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		c, p, ok := pos.PieceAt(sq)
		if !ok {
			continue
		}
		v := NominalValue(p)
		if c == turn {
			score += v
		} else {
			score -= v
		}
	}
	return score
}

// NominalValue is the absolute nominal value in centipawns of a piece kind.
func NominalValue(p board.Piece) board.Score {
	switch p {
	case board.Pawn:
		return 100
	case board.Knight:
		return 320
	case board.Bishop:
		return 330
	case board.Rook:
		return 500
	case board.Queen:
		return 900
	case board.King:
		return 0
	default:
		return 0
	}
}

// NominalValueGain is the nominal material gain of making a move, used by
// quiescence search to prune losing captures before a full evaluation. pos must
// be the position before the move is made.
func NominalValueGain(pos *board.Position, m board.Move) board.Score {
	var gain board.Score
	switch {
	case m.Flags.Has(board.EnPassant):
		gain += NominalValue(board.Pawn)
	case m.Flags.Has(board.Capture):
		_, captured, _ := pos.PieceAt(m.To)
		gain += NominalValue(captured)
	}
	if m.Flags.Has(board.Promotion) {
		gain += NominalValue(m.Promotion) - NominalValue(board.Pawn)
	}
	return gain
}
