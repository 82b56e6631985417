package eval_test

import (
	"context"
	"testing"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, position string) *board.Board {
	t.Helper()
	pos, turn, np, fm, err := fen.Decode(position)
	require.NoError(t, err)
	return board.NewBoard(board.NewZobristTable(1), pos, turn, np, fm)
}

func TestMaterialBalanced(t *testing.T) {
	b := mustBoard(t, fen.Initial)
	assert.Equal(t, board.Score(0), eval.Material{}.Evaluate(context.Background(), b))
}

func TestMaterialUpAQueen(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	assert.Equal(t, eval.NominalValue(board.Queen), eval.Material{}.Evaluate(context.Background(), b))
}

func TestStandardBishopPair(t *testing.T) {
	withPair := mustBoard(t, "4k3/8/8/8/8/8/8/2BBK3 w - - 0 1")
	withoutPair := mustBoard(t, "4k3/8/8/8/8/8/8/3BK3 w - - 0 1")

	s := eval.Standard{}
	assert.Greater(t, s.Evaluate(context.Background(), withPair), s.Evaluate(context.Background(), withoutPair))
}

func TestNoiseZeroLimitIsDeterministic(t *testing.T) {
	n := eval.NewNoise(0, 1)
	b := mustBoard(t, fen.Initial)
	assert.Equal(t, board.Score(0), n.Evaluate(context.Background(), b))
}
