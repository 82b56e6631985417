package search

import (
	"context"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/eval"
)

// maxPly bounds recursion depth so killers/history indexing never overflows;
// no reasonable time control reaches it before the hard time limit fires.
const maxPly = maxKillerPly

// AlphaBeta is a negamax alpha-beta searcher with quiescence search at the
// leaves, a transposition table, and killer-move/history move ordering. One
// instance runs exactly one search at a time; Search makes and unmakes moves
// on the given board itself, not on a fork of it.
//
// See: https://en.wikipedia.org/wiki/Alpha-beta_pruning.
type AlphaBeta struct {
	Eval eval.Evaluator
	TT   *TranspositionTable
}

// Search runs a fixed-depth negamax search from b's current position over the
// full window and returns the node count, score and principal variation, all
// from the perspective of the side to move. It returns ErrHalted if ctx is
// cancelled before the search completes; any partial node count is still
// returned.
func (a AlphaBeta) Search(ctx context.Context, b *board.Board, depth int) (uint64, board.Score, []board.Move, error) {
	return a.searchWindow(ctx, b, depth, -board.Mate, board.Mate)
}

// searchWindow runs a fixed-depth negamax search within [alpha;beta], used by
// the iterative-deepening driver to try a narrow aspiration window first.
func (a AlphaBeta) searchWindow(ctx context.Context, b *board.Board, depth int, alpha, beta board.Score) (uint64, board.Score, []board.Move, error) {
	r := &run{
		ctx:  ctx,
		tt:   a.TT,
		eval: a.Eval,
		b:    b,
	}

	score, pv := r.search(0, depth, alpha, beta)
	if err := ctx.Err(); err != nil {
		return r.nodes, 0, nil, ErrHalted
	}
	return r.nodes, score, pv, nil
}

type run struct {
	ctx   context.Context
	tt    *TranspositionTable
	eval  eval.Evaluator
	b     *board.Board
	nodes uint64

	killers killers
	history history
}

// search returns the score of b's current position, from the perspective of
// the side to move, and the principal variation leading to it.
func (r *run) search(ply, depth int, alpha, beta board.Score) (board.Score, []board.Move) {
	if ply > 0 && r.ctx.Err() != nil {
		return 0, nil
	}
	if r.b.IsGameOver() {
		return r.terminalScore(), nil
	}

	var ttMove board.Move
	if bound, d, score, move, ok := r.tt.Read(r.b.Hash(), ply); ok {
		ttMove = move
		if d >= depth {
			switch bound {
			case ExactBound:
				return score, []board.Move{move}
			case LowerBound:
				if score > alpha {
					alpha = score
				}
			case UpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score, []board.Move{move}
			}
		}
	}

	if depth <= 0 {
		score, pv := r.quiescence(ply, alpha, beta)
		return score, pv
	}

	r.nodes++

	turn := r.b.Turn()
	priority := board.First(ttMove, func(m board.Move) board.MovePriority {
		switch {
		case m.IsCapture() || m.IsPromotion():
			return 100000 + board.MVVLVA(r.b.Position(), m)
		case r.killers.isKiller(ply, m):
			return 50000
		default:
			return board.MovePriority(r.history.get(turn, m))
		}
	})

	moves := board.NewMoveList(r.b.Position().PseudoLegalMoves(turn), priority)

	var best []board.Move
	bound := UpperBound
	legal := 0

	for {
		m, ok := moves.Next()
		if !ok {
			break
		}
		if !r.b.PushMove(m) {
			continue
		}
		legal++

		var score board.Score
		var pv []board.Move
		if ply+1 < maxPly {
			score, pv = r.search(ply+1, depth-1, beta.Negate(), alpha.Negate())
			score = board.IncrementMateDistance(score).Negate()
		} else {
			score = r.eval.Evaluate(r.ctx, r.b).Negate()
		}

		r.b.PopMove()

		if score > alpha {
			alpha = score
			bound = ExactBound
			best = append([]board.Move{m}, pv...)
		}
		if alpha >= beta {
			bound = LowerBound
			if !m.IsCapture() {
				r.killers.add(ply, m)
				r.history.add(turn, m, depth)
			}
			break
		}
	}

	if legal == 0 {
		return r.terminalScore(), nil
	}

	r.tt.Write(r.b.Hash(), bound, ply, depth, alpha, firstOrZero(best))
	return alpha, best
}

// terminalScore evaluates a position with no legal moves or an already
// adjudicated result: checkmate is a loss for the side to move, anything
// else (stalemate, draw by repetition or material) is a draw.
func (r *run) terminalScore() board.Score {
	result := r.b.Result()
	if result == board.Undecided {
		result = r.b.AdjudicateNoLegalMoves()
	}
	switch result {
	case board.Draw, board.Undecided:
		return 0
	case board.WinsFor(r.b.Turn()):
		return board.Mate
	default:
		return -board.Mate
	}
}

func firstOrZero(pv []board.Move) board.Move {
	if len(pv) == 0 {
		return board.Move{}
	}
	return pv[0]
}
