package book_test

import (
	"context"
	"testing"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lines = []book.Line{
	{"e2e4", "e7e5", "g1f3"},
	{"e2e4", "e7e5", "b1c3"},
	{"e2e4", "c7c5"},
}

func initialPosition(t *testing.T) (*board.Position, board.Color, []board.Move) {
	t.Helper()
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	return pos, turn, pos.LegalMoves(turn)
}

func TestDeterministicBookIsStable(t *testing.T) {
	b, err := book.NewDeterministicBook(lines)
	require.NoError(t, err)

	pos, turn, legal := initialPosition(t)

	m1, ok, err := b.Select(context.Background(), nil, pos, turn, legal)
	require.NoError(t, err)
	require.True(t, ok)

	m2, ok, err := b.Select(context.Background(), nil, pos, turn, legal)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, m1.Equals(m2), "deterministic book must return the same move every time")
}

func TestWeightedBookStaysInRepertoire(t *testing.T) {
	b, err := book.NewWeightedBook(lines, 42)
	require.NoError(t, err)

	pos, turn, legal := initialPosition(t)

	for i := 0; i < 20; i++ {
		m, ok, err := b.Select(context.Background(), nil, pos, turn, legal)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "e2e4", m.String())
	}
}

func TestBookHasNoDataOutsideRepertoire(t *testing.T) {
	b, err := book.NewDeterministicBook(lines)
	require.NoError(t, err)

	pos, turn, _, _, err := fen.Decode("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	_, ok, err := b.Select(context.Background(), nil, pos, turn, pos.LegalMoves(turn))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidLineRejected(t *testing.T) {
	_, err := book.NewDeterministicBook([]book.Line{{"e2e5"}})
	assert.Error(t, err)
}

func TestWeightedBookPrefixFallback(t *testing.T) {
	b, err := book.NewWeightedBook(lines, 7)
	require.NoError(t, err)

	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	zt := board.NewZobristTable(1)
	bd := board.NewBoard(zt, pos, turn, 0, 1)
	e4, err := board.ParseMove("e2e4")
	require.NoError(t, err)
	require.True(t, bd.PushMove(e4))
	e5, err := board.ParseMove("e7e5")
	require.NoError(t, err)
	require.True(t, bd.PushMove(e5))
	d4, err := board.ParseMove("d2d4") // not in the book: forces fallback to "e2e4"
	require.NoError(t, err)
	require.True(t, bd.PushMove(d4))

	history := []string{"e2e4", "e7e5", "d2d4"}
	m, ok, err := b.Select(context.Background(), history, bd.Position(), bd.Turn(), bd.Position().LegalMoves(bd.Turn()))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []string{"e7e5", "c7c5"}, m.String())
}
