package eval

import (
	"context"
	"math/rand"

	"github.com/arrowgate/chessd/pkg/board"
)

// Noise adds a small amount of randomness to an evaluation, so the engine does
// not play the identical game every time at low depth. Limit bounds the range
// in centipawns, [-limit/2;limit/2]; a non-positive limit always returns zero.
type Noise struct {
	rand  *rand.Rand
	limit int
}

func NewNoise(limit int, seed int64) Noise {
	return Noise{
		limit: limit,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

func (n Noise) Evaluate(_ context.Context, _ *board.Board) board.Score {
	if n.limit <= 0 {
		return 0
	}
	return board.Score(n.rand.Intn(n.limit) - n.limit/2)
}

// Mixed combines a base evaluator with Noise, so the engine's playing style
// stays intact while still varying its choices across otherwise-identical
// games.
type Mixed struct {
	Base  Evaluator
	Noise Noise
}

func (m Mixed) Evaluate(ctx context.Context, b *board.Board) board.Score {
	return m.Base.Evaluate(ctx, b) + m.Noise.Evaluate(ctx, b)
}
