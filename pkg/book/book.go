// Package book implements an opening book: a small database of known-good move
// sequences consulted before search takes over. It knows nothing about whether a
// book move is still a good idea given how the rest of a match has gone; that
// safety gate lives in the engine that owns the book.
package book

import (
	"context"
	"fmt"
	"strings"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
)

// Book is an opening book strategy. Implementations differ only in how they
// resolve ties among multiple known continuations for the same history:
// Weighted scores candidates by opening principle and picks randomly within
// the top tier, Deterministic always returns the first legal candidate
// recorded for the line. Both share the same underlying line data and the
// same lookup signature: played-move history in, candidate move out.
type Book interface {
	// Select returns a candidate move for the position reached after history
	// (long-algebraic moves from the start position), or ok=false if the book
	// has no data for it. legal is the current position's legal move list,
	// used to validate a candidate and, for the weighted variant, to score
	// opening principles against the moving piece. pos/turn describe the
	// position reached after history, needed to look up which piece a
	// candidate moves; the weighted variant takes the ply count from
	// len(history).
	Select(ctx context.Context, history []string, pos *board.Position, turn board.Color, legal []board.Move) (m board.Move, ok bool, err error)
}

// Line is an opening line in pure algebraic coordinate notation, e.g.
// []string{"e2e4", "e7e5", "g1f3"}.
type Line []string

func (l Line) String() string {
	return strings.Join(l, " ")
}

// candidate is one recorded continuation for a given history prefix.
type candidate struct {
	move Move

	weight int
	// lineDepth is the number of plies remaining in the longest known line
	// that passes through this candidate, used by the weighted variant's
	// consistency bonus to favor well-trodden continuations over one-off
	// sidelines.
	lineDepth int
}

// Move is a re-export alias kept local to the package so entry construction
// below does not need to repeat the board import everywhere; it is always
// board.Move.
type Move = board.Move

// repertoire maps a whitespace-joined move-history key (spec.md §3's book-entry
// key) to the candidates recorded for it, in deterministic first-seen order so
// DeterministicBook's "first legal candidate" is stable across runs.
type repertoire struct {
	byKey map[string][]candidate
}

func (r repertoire) lookup(key string) []candidate {
	return r.byKey[key]
}

// build replays each line move by move against a fresh board, recording one
// candidate per (prefix, move) pair. Lines that share a prefix accumulate
// weight on the same candidate rather than duplicate it.
func build(lines []Line) (repertoire, error) {
	byKey := map[string][]candidate{}

	for _, line := range lines {
		pos, turn, _, _, err := fen.Decode(fen.Initial)
		if err != nil {
			return repertoire{}, fmt.Errorf("invalid initial position: %w", err)
		}
		zt := board.NewZobristTable(1)
		b := board.NewBoard(zt, pos, turn, 0, 1)

		var history []string
		for i, str := range line {
			next, err := board.ParseMove(str)
			if err != nil {
				return repertoire{}, fmt.Errorf("invalid line %v: %w", line, err)
			}

			var matched *board.Move
			for _, cand := range b.Position().LegalMoves(b.Turn()) {
				if cand.Equals(next) {
					matched = &cand
					break
				}
			}
			if matched == nil {
				return repertoire{}, fmt.Errorf("invalid line %v: move %v is not legal", line, next)
			}

			prefix := strings.Join(history, " ")
			depth := len(line) - i - 1

			entries := byKey[prefix]
			idx := -1
			for j, e := range entries {
				if e.move.Equals(*matched) {
					idx = j
					break
				}
			}
			if idx < 0 {
				entries = append(entries, candidate{move: *matched, weight: 1, lineDepth: depth})
			} else {
				entries[idx].weight++
				if depth > entries[idx].lineDepth {
					entries[idx].lineDepth = depth
				}
			}
			byKey[prefix] = entries

			if !b.PushMove(*matched) {
				return repertoire{}, fmt.Errorf("invalid line %v: move %v leaves king in check", line, next)
			}
			history = append(history, str)
		}
	}

	return repertoire{byKey: byKey}, nil
}

func isLegal(legal []board.Move, m board.Move) bool {
	for _, cand := range legal {
		if cand.Equals(m) {
			return true
		}
	}
	return false
}
