package eval

import (
	"context"

	"github.com/arrowgate/chessd/pkg/board"
)

// centerWeight rewards knights and bishops for sitting near the center: the four
// true center squares score highest, the surrounding ring less, the rim zero.
var centerWeight = buildCenterWeight()

func buildCenterWeight() [board.NumSquares]board.Score {
	var w [board.NumSquares]board.Score
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		d := centerDistance(int(sq.File()), int(sq.Rank()))
		switch d {
		case 0:
			w[sq] = 4
		case 1:
			w[sq] = 2
		default:
			w[sq] = 0
		}
	}
	return w
}

// centerDistance is the Chebyshev distance of (f,r) from the nearest of the
// four center squares (d4,d5,e4,e5), in the 0..3 file/rank index space.
func centerDistance(f, r int) int {
	df := fileRankDistance(f)
	dr := fileRankDistance(r)
	if df > dr {
		return df
	}
	return dr
}

func fileRankDistance(v int) int {
	if v <= 3 {
		return 3 - v
	}
	return v - 4
}

// Standard is the engine's default positional evaluator: material plus additive
// positional terms — piece centralization, pawn advancement, the bishop pair,
// doubled/isolated pawns, king safety and a penalty for a queen still on its
// home square in the first eight moves.
type Standard struct {
	Material Material
}

func (s Standard) Evaluate(ctx context.Context, b *board.Board) board.Score {
	pos := b.Position()
	turn := b.Turn()

	score := s.Material.Evaluate(ctx, b)
	fullmoves := b.FullMoves()
	score += s.positional(pos, turn, fullmoves) - s.positional(pos, turn.Opponent(), fullmoves)
	return score
}

func (s Standard) positional(pos *board.Position, c board.Color, fullmoves int) board.Score {
	var score board.Score

	bishops := 0
	var pawnFiles [8]int

	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		pc, piece, ok := pos.PieceAt(sq)
		if !ok || pc != c {
			continue
		}

		switch piece {
		case board.Knight:
			score += centerWeight[sq]
		case board.Bishop:
			score += centerWeight[sq]
			bishops++
		case board.Pawn:
			score += pawnAdvance(c, sq)
			pawnFiles[sq.File()]++
		}
	}

	if bishops >= 2 {
		score += 25
	}
	for f := 0; f < 8; f++ {
		if pawnFiles[f] > 1 {
			score -= 10 * board.Score(pawnFiles[f]-1)
		}
		if pawnFiles[f] > 0 && !hasNeighborPawn(pawnFiles, f) {
			score -= 8
		}
	}

	score += kingSafety(pos, c, fullmoves)
	score += earlyQueenPenalty(pos, c, fullmoves)

	return score
}

func pawnAdvance(c board.Color, sq board.Square) board.Score {
	r := int(sq.Rank())
	if c == board.Black {
		r = 7 - r
	}
	// r=1 is the starting rank; reward each rank advanced toward promotion.
	score := board.Score(r-1) * 4
	if sq.File() == board.FileD || sq.File() == board.FileE {
		score += board.Score(r-1) * 2
	}
	return score
}

func hasNeighborPawn(files [8]int, f int) bool {
	if f > 0 && files[f-1] > 0 {
		return true
	}
	if f < 7 && files[f+1] > 0 {
		return true
	}
	return false
}

// kingSafety rewards a king that has reached its canonical castled square and
// penalizes one that hasn't once the game is far enough along that it should
// have by now.
func kingSafety(pos *board.Position, c board.Color, fullmoves int) board.Score {
	king := findKing(pos, c)
	if king == board.NoSquare {
		return 0
	}

	castledKingside, castledQueenside := board.G1, board.C1
	if c == board.Black {
		castledKingside, castledQueenside = board.G8, board.C8
	}
	if king == castledKingside || king == castledQueenside {
		return 18
	}
	if fullmoves >= 10 {
		return -18
	}
	return 0
}

// earlyQueenPenalty discourages leaving the queen on its home square deep
// into the opening, when it should normally already be in play.
func earlyQueenPenalty(pos *board.Position, c board.Color, fullmoves int) board.Score {
	if fullmoves > 8 {
		return 0
	}

	backRank := board.Rank1
	if c == board.Black {
		backRank = board.Rank8
	}

	queenHome := board.NewSquare(board.FileD, backRank)
	if pc, piece, ok := pos.PieceAt(queenHome); ok && pc == c && piece == board.Queen {
		return -8
	}
	return 0
}

func findKing(pos *board.Position, c board.Color) board.Square {
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		if pc, piece, ok := pos.PieceAt(sq); ok && pc == c && piece == board.King {
			return sq
		}
	}
	return board.NoSquare
}
