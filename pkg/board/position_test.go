package board_test

import (
	"testing"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T, position string) *board.Board {
	t.Helper()

	pos, turn, np, fm, err := fen.Decode(position)
	require.NoError(t, err)

	zt := board.NewZobristTable(1)
	return board.NewBoard(zt, pos, turn, np, fm)
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	b := newBoard(t, fen.Initial)
	before := b.Position().String()
	beforeHash := b.Hash()

	m, err := board.ParseMove("e2e4")
	require.NoError(t, err)
	m.Flags = board.DoublePush

	require.True(t, b.PushMove(m))
	assert.NotEqual(t, before, b.Position().String())

	undone, ok := b.PopMove()
	require.True(t, ok)
	assert.True(t, m.Equals(undone))
	assert.Equal(t, before, b.Position().String())
	assert.Equal(t, beforeHash, b.Hash())
}

func TestCastlingRightsRevoked(t *testing.T) {
	b := newBoard(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	m, err := board.ParseMove("h1h2")
	require.NoError(t, err)
	require.True(t, b.PushMove(m))

	assert.False(t, b.Position().Castling().IsAllowed(board.WhiteKingSideCastle))
	assert.True(t, b.Position().Castling().IsAllowed(board.WhiteQueenSideCastle))

	_, ok := b.PopMove()
	require.True(t, ok)
	assert.True(t, b.Position().Castling().IsAllowed(board.WhiteKingSideCastle))
}

func TestCastlingMove(t *testing.T) {
	b := newBoard(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	require.True(t, b.PushMove(board.Move{From: board.E1, To: board.G1, Flags: board.Castle}))

	c, p, ok := b.Position().PieceAt(board.F1)
	require.True(t, ok)
	assert.Equal(t, board.White, c)
	assert.Equal(t, board.Rook, p)

	_, _, ok = b.Position().PieceAt(board.H1)
	assert.False(t, ok)

	_, ok = b.PopMove()
	require.True(t, ok)
	_, rookPiece, ok := b.Position().PieceAt(board.H1)
	require.True(t, ok)
	assert.Equal(t, board.Rook, rookPiece)
}

func TestEnPassantCapture(t *testing.T) {
	b := newBoard(t, "rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")

	m := board.Move{From: board.E5, To: board.D6, Flags: board.Capture | board.EnPassant}
	require.True(t, b.PushMove(m))

	_, _, ok := b.Position().PieceAt(board.D5)
	assert.False(t, ok, "captured pawn should be removed")

	_, ok = b.PopMove()
	require.True(t, ok)
	_, p, ok := b.Position().PieceAt(board.D5)
	require.True(t, ok)
	assert.Equal(t, board.Pawn, p)
}

func TestIsCheckedAndCheckmate(t *testing.T) {
	// Fool's mate final position: black has just delivered mate.
	pos, turn, np, fm, err := fen.Decode("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	zt := board.NewZobristTable(7)
	b := board.NewBoard(zt, pos, turn, np, fm)

	assert.True(t, b.Position().IsChecked(board.White))
	assert.Empty(t, b.Position().LegalMoves(board.White))

	result := b.AdjudicateNoLegalMoves()
	assert.Equal(t, board.BlackWins, result)
}

func TestPerftInitialPosition(t *testing.T) {
	tests := []struct {
		depth int
		nodes uint64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
	}

	for _, tt := range tests {
		b := newBoard(t, fen.Initial)
		assert.Equal(t, tt.nodes, board.Perft(b, tt.depth), "depth %d", tt.depth)
	}
}

func TestPerftKiwipete(t *testing.T) {
	// The "Kiwipete" position, a standard perft stress test covering castling,
	// en passant and promotions early.
	b := newBoard(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	assert.Equal(t, uint64(48), board.Perft(b, 1))
	assert.Equal(t, uint64(2039), board.Perft(b, 2))
}
