package search

import (
	"context"
	"sync"
	"time"

	"github.com/arrowgate/chessd/pkg/board"
)

// aspirationWindow is the half-width, in centipawns, of the window searched
// around the previous iteration's score before falling back to a full
// re-search.
const aspirationWindow = board.Score(80)

// Iterative runs AlphaBeta under iterative deepening: depth 1, 2, 3, ...,
// each one (from depth 2 on) first tried inside a narrow aspiration window
// around the previous depth's score, widening to the full window on a fail.
// It stops at the configured depth limit, on a forced mate, when the time
// budget is spent, or when Halt is called.
type Iterative struct {
	Search AlphaBeta
}

// Launch starts the iterative-deepening loop in a goroutine and returns
// immediately. The returned channel receives one PV per completed depth and
// is closed when the search stops.
func (it Iterative) Launch(ctx context.Context, b *board.Board, opt Options) (Handle, <-chan PV) {
	cctx, cancel := context.WithCancel(ctx)
	out := make(chan PV, 1)
	h := &handle{cancel: cancel}

	go it.run(cctx, h, b, opt, out)

	return h, out
}

func (it Iterative) run(ctx context.Context, h *handle, b *board.Board, opt Options, out chan PV) {
	defer close(out)

	var budget time.Duration
	if opt.TimeControl != nil && !opt.Infinite {
		budget = opt.TimeControl.Budget(b.Turn())
		timer := time.AfterFunc(budget, h.cancel)
		defer timer.Stop()
	}

	start := time.Now()
	fork := b.Fork()

	var last PV
	var prevScore board.Score
	depth := 1
	for {
		if opt.DepthLimit > 0 && depth > opt.DepthLimit {
			break
		}

		alpha, beta := -board.Mate, board.Mate
		if depth >= 2 {
			alpha, beta = prevScore-aspirationWindow, prevScore+aspirationWindow
		}

		nodes, score, moves, err := it.searchWindowed(ctx, fork, depth, alpha, beta)
		if err != nil || ctx.Err() != nil {
			break // keep `last`, the most recently completed depth
		}

		pv := PV{
			Depth: depth,
			Nodes: nodes,
			Score: score,
			Moves: moves,
			Time:  time.Since(start),
		}
		if it.Search.TT != nil {
			pv.Hash = it.Search.TT.Used()
		}

		last = pv
		prevScore = score
		h.set(pv)
		publish(out, pv)

		if score.IsMate() || (!opt.Infinite && budget > 0 && time.Since(start) >= budget) {
			break
		}
		depth++
	}

	h.set(last)
	h.done()
}

// searchWindowed runs a depth search within [alpha;beta] and, if the score
// falls outside that window, re-searches once with the full window.
func (it Iterative) searchWindowed(ctx context.Context, b *board.Board, depth int, alpha, beta board.Score) (uint64, board.Score, []board.Move, error) {
	nodes, score, moves, err := it.Search.searchWindow(ctx, b, depth, alpha, beta)
	if err != nil {
		return nodes, score, moves, err
	}
	if score <= alpha || score >= beta {
		nodes2, score2, moves2, err2 := it.Search.Search(ctx, b, depth)
		return nodes + nodes2, score2, moves2, err2
	}
	return nodes, score, moves, err
}

func publish(out chan PV, pv PV) {
	select {
	case out <- pv:
	default:
		select {
		case <-out:
		default:
		}
		out <- pv
	}
}

type handle struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	pv      PV
	stopped bool
	wait    chan struct{}
	once    sync.Once
}

func (h *handle) set(pv PV) {
	h.mu.Lock()
	h.pv = pv
	h.mu.Unlock()
}

func (h *handle) done() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopped = true
		if h.wait != nil {
			close(h.wait)
		}
		h.mu.Unlock()
	})
}

// Halt stops the search, waits for the goroutine to observe cancellation and
// returns the last completed PV. Safe to call more than once.
func (h *handle) Halt() PV {
	h.mu.Lock()
	if h.stopped {
		pv := h.pv
		h.mu.Unlock()
		return pv
	}
	if h.wait == nil {
		h.wait = make(chan struct{})
	}
	wait := h.wait
	h.mu.Unlock()

	h.cancel()
	<-wait

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pv
}
