package board

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// MovePriority represents a move ordering priority; higher values are searched
// first.
type MovePriority int32

// MovePriorityFn assigns a priority to a move.
type MovePriorityFn func(move Move) MovePriority

// First puts the given move first. Otherwise uses the given function. Used to
// force the transposition table's best move or a killer move to the front.
func First(first Move, fn MovePriorityFn) MovePriorityFn {
	return func(m Move) MovePriority {
		if first.Equals(m) {
			return math.MaxInt32
		}
		return fn(m)
	}
}

// MVVLVA returns the standard "most valuable victim, least valuable attacker"
// priority for a capture: 10*victim - attacker, so that e.g. pawn-takes-queen
// outranks queen-takes-pawn.
func MVVLVA(pos *Position, m Move) MovePriority {
	if !m.Flags.Has(Capture) {
		return 0
	}
	_, attacker, _ := pos.PieceAt(m.From)

	var victim Piece = Pawn // en passant always captures a pawn
	if !m.Flags.Has(EnPassant) {
		_, victim, _ = pos.PieceAt(m.To)
	}
	return MovePriority(10*int(victim) - int(attacker))
}

// SortByPriority sorts the moves by priority, descending, preserving order
// between moves of equal priority.
func SortByPriority(moves []Move, fn MovePriorityFn) {
	sort.SliceStable(moves, func(i, j int) bool {
		return fn(moves[i]) > fn(moves[j])
	})
}

// MoveList is a move priority queue used to try the most promising moves first
// during search, without materializing a fully sorted slice up front.
type MoveList struct {
	h moveHeap
}

// NewMoveList returns a new move list ordered by the given priority function.
func NewMoveList(moves []Move, fn MovePriorityFn) *MoveList {
	h := make(moveHeap, len(moves))
	for i, m := range moves {
		h[i] = elm{m: m, val: fn(m)}
	}
	heap.Init(&h)
	return &MoveList{h: h}
}

// Next returns the next-highest-priority move, or false if the list is empty.
func (ml *MoveList) Next() (Move, bool) {
	if ml.Size() == 0 {
		return Move{}, false
	}
	ret := heap.Pop(&ml.h).(elm)
	return ret.m, true
}

func (ml *MoveList) Size() int {
	return ml.h.Len()
}

func (ml *MoveList) String() string {
	if ml.Size() == 0 {
		return "[size=0]"
	}
	return fmt.Sprintf("[top=%v, size=%v]", ml.h[0].m, ml.Size())
}

type elm struct {
	m   Move
	val MovePriority
}

type moveHeap []elm

func (h moveHeap) Len() int { return len(h) }

func (h moveHeap) Less(i, j int) bool { return h[i].val > h[j].val }

func (h moveHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *moveHeap) Push(x any) {
	*h = append(*h, x.(elm))
}

func (h *moveHeap) Pop() any {
	old := *h
	n := len(old)
	ret := old[n-1]
	*h = old[:n-1]
	return ret
}
