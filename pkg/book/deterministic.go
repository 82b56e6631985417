package book

import (
	"context"
	"strings"

	"github.com/arrowgate/chessd/pkg/board"
)

// DeterministicBook always returns the first legal candidate recorded for the
// exact history key, in repertoire-build order; no prefix fallback, and no
// principle scoring. Useful for reproducible matches and regression testing,
// where WeightedBook's randomness would be a liability.
type DeterministicBook struct {
	rep repertoire
}

func NewDeterministicBook(lines []Line) (*DeterministicBook, error) {
	rep, err := build(lines)
	if err != nil {
		return nil, err
	}
	return &DeterministicBook{rep: rep}, nil
}

func (b *DeterministicBook) Select(_ context.Context, history []string, pos *board.Position, turn board.Color, legal []board.Move) (board.Move, bool, error) {
	_, _ = pos, turn
	entries := b.rep.lookup(strings.Join(history, " "))
	for _, e := range entries {
		if isLegal(legal, e.move) {
			return e.move, true, nil
		}
	}
	return board.Move{}, false, nil
}
