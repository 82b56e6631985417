package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/eval"
	"github.com/arrowgate/chessd/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeControlBudgetClockDerived(t *testing.T) {
	tc := search.TimeControl{White: 28 * time.Second}
	assert.Equal(t, 1*time.Second, tc.Budget(board.White))
}

func TestTimeControlBudgetClampedToMinimum(t *testing.T) {
	tc := search.TimeControl{White: 100 * time.Millisecond}
	assert.Equal(t, 30*time.Millisecond, tc.Budget(board.White))
}

func TestTimeControlBudgetClampedToMaximum(t *testing.T) {
	tc := search.TimeControl{White: 10 * time.Minute}
	assert.Equal(t, 1200*time.Millisecond, tc.Budget(board.White))
}

func TestTimeControlBudgetDefaultsWithNoClock(t *testing.T) {
	tc := search.TimeControl{}
	assert.Equal(t, 200*time.Millisecond, tc.Budget(board.Black))
}

func TestTimeControlBudgetExplicitMoveTimeWins(t *testing.T) {
	tc := search.TimeControl{White: 28 * time.Second, MoveTime: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, tc.Budget(board.White))
}

func newBoard(t *testing.T, position string) *board.Board {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	require.NoError(t, err)
	zt := board.NewZobristTable(1)
	return board.NewBoard(zt, pos, turn, noprogress, fullmoves)
}

func TestAlphaBetaFindsMateInOne(t *testing.T) {
	// White to move, mate in one: Re1-e8#, back rank exposed.
	b := newBoard(t, "6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1")
	ab := search.AlphaBeta{Eval: eval.Standard{}, TT: search.NewTranspositionTable(1)}

	_, score, pv, err := ab.Search(context.Background(), b, 3)
	require.NoError(t, err)
	require.NotEmpty(t, pv)
	assert.True(t, score.IsMate())
	assert.Equal(t, "e1e8", pv[0].String())
}

func TestAlphaBetaPrefersMaterialGain(t *testing.T) {
	// White to move, can win a free rook: Rxd8.
	b := newBoard(t, "3r2k1/8/8/8/8/8/8/3R2K1 w - - 0 1")
	ab := search.AlphaBeta{Eval: eval.Standard{}, TT: search.NewTranspositionTable(1)}

	_, score, pv, err := ab.Search(context.Background(), b, 2)
	require.NoError(t, err)
	require.NotEmpty(t, pv)
	assert.Equal(t, "d1d8", pv[0].String())
	assert.Greater(t, int(score), 0)
}

func TestIterativeDeepeningRespectsDepthLimit(t *testing.T) {
	b := newBoard(t, fen.Initial)
	it := search.Iterative{Search: search.AlphaBeta{Eval: eval.Standard{}, TT: search.NewTranspositionTable(1)}}

	_, out := it.Launch(context.Background(), b, search.Options{DepthLimit: 2})

	var last search.PV
	for pv := range out {
		last = pv
	}
	assert.Equal(t, 2, last.Depth)
	assert.NotEmpty(t, last.Moves)
}

func TestTranspositionTableRoundTrip(t *testing.T) {
	tt := search.NewTranspositionTable(1)
	hash := board.ZobristHash(0x1234)
	move := board.Move{From: board.E2, To: board.E4}

	tt.Write(hash, search.ExactBound, 0, 4, 120, move)

	bound, depth, score, got, ok := tt.Read(hash, 0)
	require.True(t, ok)
	assert.Equal(t, search.ExactBound, bound)
	assert.Equal(t, 4, depth)
	assert.Equal(t, board.Score(120), score)
	assert.True(t, got.Equals(move))
}

func TestTranspositionTableMateScoreNormalization(t *testing.T) {
	tt := search.NewTranspositionTable(1)
	hash := board.ZobristHash(0x5678)

	// A mate 3 plies from the root, written by a node at ply=2: the table
	// stores it as a mate 1 ply below that node.
	tt.Write(hash, search.ExactBound, 2, 3, board.Mate-3, board.Move{})

	// Re-read from a node at ply=0: the stored mate, 1 ply below the node, is
	// now 1 ply from the root, so the score is 2 plies shorter than written.
	_, _, score, _, ok := tt.Read(hash, 0)
	require.True(t, ok)
	assert.Equal(t, board.Mate-1, score)
}

func TestTranspositionTableKeepsDeeperEntry(t *testing.T) {
	tt := search.NewTranspositionTable(1)
	hash := board.ZobristHash(0xabc)

	tt.Write(hash, search.ExactBound, 0, 6, 50, board.Move{})
	tt.Write(hash, search.ExactBound, 0, 2, 999, board.Move{})

	_, depth, score, _, ok := tt.Read(hash, 0)
	require.True(t, ok)
	assert.Equal(t, 6, depth)
	assert.Equal(t, board.Score(50), score)
}
