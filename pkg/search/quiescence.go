package search

import "github.com/arrowgate/chessd/pkg/board"

// quiescence extends search at the leaves of the main tree with captures and
// capture-promotions only, to avoid misjudging positions where the side to
// move is mid-exchange. It returns the stand-pat score if staying put is
// already good enough, otherwise the best score reachable by following a
// capture sequence.
func (r *run) quiescence(ply int, alpha, beta board.Score) (board.Score, []board.Move) {
	r.nodes++

	if r.b.IsGameOver() {
		return r.terminalScore(), nil
	}

	standPat := r.eval.Evaluate(r.ctx, r.b)
	if standPat >= beta {
		return standPat, nil
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= maxPly {
		return alpha, nil
	}

	turn := r.b.Turn()
	pos := r.b.Position()
	priority := func(m board.Move) board.MovePriority { return board.MVVLVA(pos, m) }

	var best []board.Move
	moves := board.NewMoveList(captureCandidates(pos, turn), priority)
	for {
		m, ok := moves.Next()
		if !ok {
			break
		}
		if !r.b.PushMove(m) {
			continue
		}

		score, pv := r.quiescence(ply+1, beta.Negate(), alpha.Negate())
		score = board.IncrementMateDistance(score).Negate()

		r.b.PopMove()

		if score > alpha {
			alpha = score
			best = append([]board.Move{m}, pv...)
		}
		if alpha >= beta {
			break
		}
	}

	return alpha, best
}

func captureCandidates(pos *board.Position, turn board.Color) []board.Move {
	all := pos.PseudoLegalMoves(turn)
	out := all[:0:0]
	for _, m := range all {
		if m.IsCapture() {
			out = append(out, m)
		}
	}
	return out
}
