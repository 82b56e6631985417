// Package search contains alpha-beta search and its supporting transposition
// table, move ordering and iterative-deepening harness.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arrowgate/chessd/pkg/board"
)

// ErrHalted is returned by Search when the context was cancelled mid-search,
// e.g. because the engine received a "stop" command.
var ErrHalted = errors.New("search halted")

// PV is the principal variation found at a completed search depth.
type PV struct {
	Depth int
	Nodes uint64
	Score board.Score
	Moves []board.Move
	Time  time.Duration
	Hash  float64 // transposition table utilization, [0;1]
}

func (p PV) String() string {
	var sb strings.Builder
	for i, m := range p.Moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.String())
	}
	return fmt.Sprintf("depth=%v score=%v nodes=%v time=%v pv=%v", p.Depth, p.Score, p.Nodes, p.Time, sb.String())
}

// TimeControl mirrors a UCI "go" clock: remaining time and increment per side,
// and an optional fixed move time that overrides clock-based derivation.
type TimeControl struct {
	White, Black       time.Duration
	WhiteInc, BlackInc time.Duration
	MoveTime           time.Duration // explicit "go movetime N", 0 if unset
}

const (
	minBudget     = 30 * time.Millisecond
	maxBudget     = 1200 * time.Millisecond
	defaultBudget = 200 * time.Millisecond
)

// Budget derives the single move-time budget for the side to move: the
// explicit MoveTime if given, else remaining/28 + increment/2 clamped to
// [30ms, 1200ms], or the default of 200ms if no clock was supplied at all.
func (t TimeControl) Budget(c board.Color) time.Duration {
	if t.MoveTime > 0 {
		return t.MoveTime
	}

	remaining, inc := t.White, t.WhiteInc
	if c == board.Black {
		remaining, inc = t.Black, t.BlackInc
	}
	if remaining == 0 {
		return defaultBudget
	}

	budget := remaining/28 + inc/2
	if budget < minBudget {
		budget = minBudget
	}
	if budget > maxBudget {
		budget = maxBudget
	}
	return budget
}

func (t TimeControl) String() string {
	if t.MoveTime > 0 {
		return fmt.Sprintf("movetime=%v", t.MoveTime)
	}
	return fmt.Sprintf("%.1f<>%.1f", t.White.Seconds(), t.Black.Seconds())
}

// Options hold the dynamic parameters of a single search request.
type Options struct {
	DepthLimit  int // 0 == no limit
	TimeControl *TimeControl
	Infinite    bool // run until Halt, ignoring TimeControl; DepthLimit and a forced mate still end it
}

// Launcher launches iterative-deepening searches from a position.
type Launcher interface {
	// Launch starts a new search on an exclusively-owned (forked) board and
	// returns a handle plus a channel of increasingly deep PVs. The channel is
	// closed once the search stops, for any reason.
	Launch(ctx context.Context, b *board.Board, opt Options) (Handle, <-chan PV)
}

// Handle lets the owner stop a running search and recover its best result.
type Handle interface {
	// Halt stops the search, if running, and returns the last completed PV.
	// Idempotent.
	Halt() PV
}
