package supervisor

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/arrowgate/chessd/pkg/apperr"
	"github.com/arrowgate/chessd/pkg/uciclient"
)

// HintRequest asks the secondary (stronger) engine for its top MultiPV
// candidate lines at a position, rather than committing to a single move.
type HintRequest struct {
	FEN        string
	MovesUCI   []string
	MultiPV    int
	MovetimeMS int
}

// HintLine is one MultiPV candidate: the move it starts with, its score,
// and the principal variation following it.
type HintLine struct {
	UCI     string
	ScoreCp int
	PVMoves []string
}

// HintResult is the outcome of a /api/hint call: the top move and the full
// ranked MultiPV line set, or Timeout if the engine never answered.
type HintResult struct {
	Best    *string
	Lines   []HintLine
	Timeout bool
}

// Hint runs a MultiPV search against the secondary engine. It returns
// apperr.StockfishUnavailableError if no secondary engine started.
func (s *Supervisor) Hint(ctx context.Context, req HintRequest) (HintResult, error) {
	if s.stockfish == nil {
		return HintResult{}, apperr.StockfishUnavailableError()
	}

	multipv := clamp(req.MultiPV, 1, 8, 3)
	movetimeMS := clamp(req.MovetimeMS, 50, 2000, 120)

	var mu sync.Mutex
	byIndex := map[int]HintLine{}
	timedOut := false

	done := s.stockfish.queue.Enqueue(func(ctx context.Context) error {
		return s.runHint(ctx, req, multipv, movetimeMS, &mu, byIndex, &timedOut)
	})

	select {
	case err := <-done:
		if err != nil {
			return HintResult{}, apperr.EngineErrorf("%v", err)
		}
	case <-ctx.Done():
		return HintResult{}, apperr.EngineErrorf("request cancelled: %v", ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	res := collectHintLines(byIndex)
	res.Timeout = timedOut
	return res, nil
}

func (s *Supervisor) runHint(ctx context.Context, req HintRequest, multipv, movetimeMS int, mu *sync.Mutex, byIndex map[int]HintLine, timedOut *bool) error {
	c := s.stockfish.client

	if err := c.Send("setoption name MultiPV value " + strconv.Itoa(multipv)); err != nil {
		return err
	}
	if err := c.Send("isready"); err != nil {
		return err
	}
	if _, err := c.Await(ctx, uciclient.HasPrefix("readyok"), handshakeTimeout, ""); err != nil {
		return err
	}

	cancel := c.Observe(func(line string) {
		k, hl, ok := parseMultiPVLine(line)
		if !ok {
			return
		}
		mu.Lock()
		byIndex[k] = hl
		mu.Unlock()
	})
	defer cancel()

	if err := c.Send(positionCommand(req.FEN, req.MovesUCI)); err != nil {
		return err
	}
	if err := c.Send("go movetime " + strconv.Itoa(movetimeMS)); err != nil {
		return err
	}

	timeout := timeoutFor(movetimeMS)
	_, err := c.Await(ctx, uciclient.HasPrefix("bestmove "), timeout, "")
	if err == uciclient.ErrTimeout {
		*timedOut = true
		return nil // best-effort: keep whatever MultiPV lines arrived before the deadline
	}
	return err
}

// parseMultiPVLine extracts "multipv N ... score cp|mate V ... pv ..." from
// a UCI info line. Mate scores are projected onto the centipawn axis
// (100000-n for a positive mate-in-n, -100000-n for a mate-in-n against the
// side to move) so lines sort consistently regardless of score type.
func parseMultiPVLine(line string) (int, HintLine, bool) {
	if !strings.HasPrefix(line, "info ") {
		return 0, HintLine{}, false
	}
	fields := strings.Fields(line)

	k := 0
	cp := 0
	havePV := false
	var pv []string

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					k = n
				}
			}
		case "score":
			if i+2 < len(fields) {
				n, err := strconv.Atoi(fields[i+2])
				if err == nil {
					switch fields[i+1] {
					case "cp":
						cp = n
					case "mate":
						if n >= 0 {
							cp = 100000 - n
						} else {
							cp = -100000 - n
						}
					}
				}
			}
		case "pv":
			pv = fields[i+1:]
			havePV = true
			i = len(fields)
		}
	}

	if k == 0 || !havePV || len(pv) == 0 {
		return 0, HintLine{}, false
	}
	return k, HintLine{UCI: pv[0], ScoreCp: cp, PVMoves: pv}, true
}

func collectHintLines(byIndex map[int]HintLine) HintResult {
	indices := make([]int, 0, len(byIndex))
	for k := range byIndex {
		indices = append(indices, k)
	}
	sort.Ints(indices)

	lines := make([]HintLine, 0, len(indices))
	for _, k := range indices {
		lines = append(lines, byIndex[k])
	}

	res := HintResult{Lines: lines}
	if len(lines) > 0 {
		best := lines[0].UCI
		res.Best = &best
	}
	return res
}
