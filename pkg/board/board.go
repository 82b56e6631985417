// Package board contains the chess board representation, move generation and
// game-history bookkeeping (draw adjudication, repetition, FEN encoding).
package board

import "fmt"

const (
	repetitionLimit    = 3
	noprogressPlyLimit = 100 // 50-move rule, counted in plies
)

// ply records what PopMove needs to exactly reverse one PushMove.
type ply struct {
	move       Move
	undo       Undo
	prevHash   ZobristHash
	prevNoProg int
}

// Board wraps a Position with the turn, move counters, a maintained Zobrist hash
// and enough history to adjudicate repetition and the 50-move rule. It is the
// mutable, make/unmake-based counterpart to Position's raw board state; not
// thread-safe.
type Board struct {
	zt *ZobristTable
	pos *Position

	turn      Color
	noprogress int // plies since the last capture or pawn move
	fullmoves int
	hash      ZobristHash

	repetitions map[ZobristHash]int
	history     []ply

	result Result
}

func NewBoard(zt *ZobristTable, pos *Position, turn Color, noprogress, fullmoves int) *Board {
	hash := zt.Hash(pos, turn)
	return &Board{
		zt:          zt,
		pos:         pos,
		turn:        turn,
		noprogress:  noprogress,
		fullmoves:   fullmoves,
		hash:        hash,
		repetitions: map[ZobristHash]int{hash: 1},
	}
}

// Fork returns an independent copy for search to mutate without disturbing the
// board the caller is tracking the game on.
func (b *Board) Fork() *Board {
	repetitions := make(map[ZobristHash]int, len(b.repetitions))
	for k, v := range b.repetitions {
		repetitions[k] = v
	}
	history := make([]ply, len(b.history))
	copy(history, b.history)

	return &Board{
		zt:          b.zt,
		pos:         b.pos.Clone(),
		turn:        b.turn,
		noprogress:  b.noprogress,
		fullmoves:   b.fullmoves,
		hash:        b.hash,
		repetitions: repetitions,
		history:     history,
		result:      b.result,
	}
}

func (b *Board) Position() *Position { return b.pos }
func (b *Board) Turn() Color         { return b.turn }
func (b *Board) NoProgress() int     { return b.noprogress }
func (b *Board) FullMoves() int      { return b.fullmoves }
func (b *Board) Hash() ZobristHash   { return b.hash }
func (b *Board) Result() Result      { return b.result }

// IsGameOver reports whether the board has been adjudicated, either because a
// terminal position was reached or Adjudicate/AdjudicateNoLegalMoves was called.
func (b *Board) IsGameOver() bool {
	return b.result != Undecided
}

// PushMove attempts to make a pseudo-legal move, maintaining the Zobrist hash
// incrementally. Returns false, leaving the board unchanged, if the move would
// leave the mover's own king in check.
func (b *Board) PushMove(m Move) bool {
	if b.IsGameOver() {
		return false
	}

	turn := b.turn
	_, moving, _ := b.pos.PieceAt(m.From)
	prevCastling := b.pos.Castling()
	prevEnPassant := b.pos.EnPassant()

	u := b.pos.MakeMove(turn, m)
	if b.pos.IsChecked(turn) {
		b.pos.UnmakeMove(turn, m, u)
		return false
	}

	h := b.hash
	h ^= b.zt.Piece(turn, moving, m.From)
	if m.Flags.Has(Promotion) {
		h ^= b.zt.Piece(turn, m.Promotion, m.To)
	} else {
		h ^= b.zt.Piece(turn, moving, m.To)
	}
	if m.Flags.Has(EnPassant) {
		capSq := NewSquare(m.To.File(), m.From.Rank())
		h ^= b.zt.Piece(turn.Opponent(), u.CapturedPiece, capSq)
	} else if m.Flags.Has(Capture) {
		h ^= b.zt.Piece(turn.Opponent(), u.CapturedPiece, m.To)
	}
	if m.Flags.Has(Castle) {
		rookFrom, rookTo := castlingRookSquares(m.To)
		h ^= b.zt.Piece(turn, Rook, rookFrom)
		h ^= b.zt.Piece(turn, Rook, rookTo)
	}
	h ^= b.zt.Castling(prevCastling)
	h ^= b.zt.Castling(b.pos.Castling())
	if prevEnPassant != NoSquare {
		h ^= b.zt.EnPassant(prevEnPassant.File())
	}
	if b.pos.EnPassant() != NoSquare {
		h ^= b.zt.EnPassant(b.pos.EnPassant().File())
	}
	h ^= b.zt.Turn()

	b.history = append(b.history, ply{move: m, undo: u, prevHash: b.hash, prevNoProg: b.noprogress})

	b.hash = h
	b.turn = turn.Opponent()
	if moving == Pawn || m.Flags.Has(Capture) {
		b.noprogress = 0
	} else {
		b.noprogress++
	}
	if b.turn == White {
		b.fullmoves++
	}
	b.repetitions[b.hash]++

	b.adjudicateAfterMove(m)
	return true
}

// PopMove reverses the last PushMove. Returns false if there is no history.
func (b *Board) PopMove() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	last := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]

	b.repetitions[b.hash]--
	if b.repetitions[b.hash] == 0 {
		delete(b.repetitions, b.hash)
	}

	if b.turn == White {
		b.fullmoves--
	}
	b.turn = b.turn.Opponent()
	b.pos.UnmakeMove(b.turn, last.move, last.undo)
	b.hash = last.prevHash
	b.noprogress = last.prevNoProg
	b.result = Undecided

	return last.move, true
}

func (b *Board) adjudicateAfterMove(m Move) {
	if b.repetitions[b.hash] >= repetitionLimit {
		b.result = Draw
		return
	}
	if b.noprogress >= noprogressPlyLimit {
		b.result = Draw
		return
	}
	if m.Flags.Has(Capture) && b.hasInsufficientMaterial() {
		b.result = Draw
	}
}

// hasInsufficientMaterial reports true for the classic dead positions: king vs
// king, king+minor vs king, and king+bishop vs king+bishop on the same color.
func (b *Board) hasInsufficientMaterial() bool {
	var minors, others int
	var bishopSquares []Square

	for sq := ZeroSquare; sq < NumSquares; sq++ {
		c, piece, ok := b.pos.PieceAt(sq)
		if !ok || piece == King {
			continue
		}
		switch piece {
		case Knight:
			minors++
		case Bishop:
			minors++
			bishopSquares = append(bishopSquares, sq)
		default:
			others++
		}
		_ = c
	}
	if others > 0 || minors > 2 {
		return false
	}
	if minors <= 1 {
		return true
	}
	if len(bishopSquares) == 2 {
		return squareColor(bishopSquares[0]) == squareColor(bishopSquares[1])
	}
	return false
}

func squareColor(sq Square) int {
	return (int(sq.File()) + int(sq.Rank())) % 2
}

// AdjudicateNoLegalMoves adjudicates the position assuming the side to move has
// no legal moves: checkmate if in check, stalemate otherwise.
func (b *Board) AdjudicateNoLegalMoves() Result {
	var result Result
	if b.pos.IsChecked(b.turn) {
		result = WinsFor(b.turn.Opponent())
	} else {
		result = Draw
	}
	b.Adjudicate(result)
	return result
}

// Adjudicate forces the board's result, e.g. after an external draw claim.
func (b *Board) Adjudicate(result Result) {
	b.result = result
}

// LastMove returns the most recently pushed move, if any.
func (b *Board) LastMove() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	return b.history[len(b.history)-1].move, true
}

// HasCastled returns true iff the color has castled at any point in the history.
func (b *Board) HasCastled(c Color) bool {
	turn := b.turn
	for i := len(b.history) - 1; i >= 0; i-- {
		turn = turn.Opponent()
		if turn == c && b.history[i].move.Flags.Has(Castle) {
			return true
		}
	}
	return false
}

func (b *Board) String() string {
	return fmt.Sprintf("board{pos=%v, turn=%v, hash=%x, noprogress=%v, fullmoves=%v, result=%v}",
		b.pos, b.turn, b.hash, b.noprogress, b.fullmoves, b.result)
}
