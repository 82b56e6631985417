package search

import "github.com/arrowgate/chessd/pkg/board"

const maxKillerPly = 128

// killers keeps, per ply, the two most recent quiet moves that caused a
// beta cutoff. Tried early in move ordering at the same ply in sibling
// nodes, since a killer there is often good here too.
type killers struct {
	moves [maxKillerPly][2]board.Move
}

func (k *killers) add(ply int, m board.Move) {
	if ply < 0 || ply >= maxKillerPly || m.Equals(k.moves[ply][0]) {
		return
	}
	k.moves[ply][1] = k.moves[ply][0]
	k.moves[ply][0] = m
}

func (k *killers) isKiller(ply int, m board.Move) bool {
	if ply < 0 || ply >= maxKillerPly {
		return false
	}
	return m.Equals(k.moves[ply][0]) || m.Equals(k.moves[ply][1])
}

// history scores quiet moves by how often they have produced a cutoff
// anywhere in the tree, indexed by moving side and from/to square. Used to
// order quiet moves that are not killers at the current ply.
type history struct {
	score [board.NumColors][board.NumSquares][board.NumSquares]int32
}

func (h *history) add(c board.Color, m board.Move, depth int) {
	h.score[c][m.From][m.To] += int32(depth * depth)
}

func (h *history) get(c board.Color, m board.Move) int32 {
	return h.score[c][m.From][m.To]
}
