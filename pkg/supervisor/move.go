package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arrowgate/chessd/pkg/apperr"
	"github.com/arrowgate/chessd/pkg/uciclient"
)

// MoveRequest is the resolved input to a move search: fen/moves identify the
// position, the rest configure the search, all already validated by the
// HTTP layer.
type MoveRequest struct {
	FEN        string
	MovesUCI   []string
	Skill      string
	MovetimeMS int // caller override, 0 if not given
	Depth      int // caller override, 0 if not given
	HashMB     int // caller override, 0 if not given
}

// MoveResult is the outcome of a move search, shaped to map directly onto
// the /api/move response body.
type MoveResult struct {
	RequestID string
	UCI       *string
	Terminal  bool
	Reason    string
	Depth     *int
	Score     *Score
	PV        string
	Bookhit   bool
	Timeout   bool
}

// Move resolves search options, enqueues a go-to-bestmove cycle against the
// primary engine, and waits for it to either finish or time out. requestID
// is the caller's x-request-id, or one generated by the HTTP layer.
func (s *Supervisor) Move(ctx context.Context, requestID string, req MoveRequest) (MoveResult, error) {
	movetimeMS, depth, hashMB := s.resolveMoveOptions(req)
	timeout := timeoutFor(movetimeMS)

	s.requests.register(requestID)

	done := s.engine.queue.Enqueue(func(ctx context.Context) error {
		return s.runMove(ctx, requestID, req, movetimeMS, depth, hashMB, timeout)
	})

	select {
	case err := <-done:
		s.engine.client.CancelRequest(requestID)
		if err != nil {
			s.requests.withLock(requestID, func(r *RequestState) {
				r.Active = false
				r.FinishedAt = time.Now()
				r.Error = string(apperr.EngineError)
			})
			return MoveResult{}, apperr.EngineErrorf("%v", err)
		}
	case <-ctx.Done():
		s.engine.client.CancelRequest(requestID)
		return MoveResult{}, apperr.EngineErrorf("request cancelled: %v", ctx.Err())
	}

	snap, _ := s.requests.get(requestID)
	return snapshotToMoveResult(snap), nil
}

func (s *Supervisor) runMove(ctx context.Context, requestID string, req MoveRequest, movetimeMS, depth, hashMB int, timeout time.Duration) error {
	if err := s.ensureReady(ctx, s.engine, hashMB); err != nil {
		return err
	}

	if err := s.engine.client.Send(positionCommand(req.FEN, req.MovesUCI)); err != nil {
		return err
	}

	s.active.Store(requestID)

	goCmd := fmt.Sprintf("go movetime %d", movetimeMS)
	if depth > 0 {
		goCmd = fmt.Sprintf("go depth %d", depth)
	}
	if err := s.engine.client.Send(goCmd); err != nil {
		s.active.Store("")
		return err
	}

	_, err := s.engine.client.Await(ctx, uciclient.HasPrefix("bestmove "), timeout, requestID)
	if errors.Is(err, uciclient.ErrTimeout) {
		s.active.Store("")
		s.requests.withLock(requestID, func(r *RequestState) {
			r.Active = false
			r.FinishedAt = time.Now()
			r.Error = string(apperr.EngineTimeout)
		})
		return nil // a timeout is a result, not a task failure
	}
	return err
}

// ensureReady resizes the transposition table if hashMB differs from the
// last value sent to this client, awaiting readyok before returning so a
// subsequent "position"/"go" is never raced against a pending setoption.
func (s *Supervisor) ensureReady(ctx context.Context, c *clientHandle, hashMB int) error {
	if hashMB <= 0 || hashMB == c.lastHashMB {
		return nil
	}
	if err := c.client.Send(fmt.Sprintf("setoption name Hash value %d", hashMB)); err != nil {
		return err
	}
	if err := c.client.Send("isready"); err != nil {
		return err
	}
	if _, err := c.client.Await(ctx, uciclient.HasPrefix("readyok"), handshakeTimeout, ""); err != nil {
		return err
	}
	c.lastHashMB = hashMB
	return nil
}

// resolveMoveOptions starts from the named skill preset, then applies any
// positive-integer caller override, falling back to a 200ms default move
// time if neither the preset nor the caller supplied one.
func (s *Supervisor) resolveMoveOptions(req MoveRequest) (movetimeMS, depth, hashMB int) {
	preset := s.cfg.Skill[req.Skill]
	movetimeMS, depth, hashMB = preset.MovetimeMS, preset.Depth, preset.HashMB

	if req.Depth > 0 {
		depth = req.Depth
	}
	if req.MovetimeMS > 0 {
		movetimeMS = req.MovetimeMS
	}
	if req.HashMB > 0 {
		hashMB = req.HashMB
	}
	if hashMB <= 0 {
		hashMB = s.cfg.Engine.DefaultHashMB
	}
	if movetimeMS <= 0 {
		movetimeMS = 200
	}
	return movetimeMS, depth, hashMB
}

// timeoutFor is the bestmove wait deadline: max(5000, movetime_ms+4000)ms,
// per §4.8, regardless of whether the search itself runs on a depth or
// movetime budget.
func timeoutFor(movetimeMS int) time.Duration {
	ms := movetimeMS + 4000
	if ms < 5000 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}

func positionCommand(fen string, movesUCI []string) string {
	if len(movesUCI) > 0 {
		return "position startpos moves " + strings.Join(movesUCI, " ")
	}
	return "position fen " + fen
}

func snapshotToMoveResult(s RequestState) MoveResult {
	if s.Error == string(apperr.EngineTimeout) {
		return MoveResult{RequestID: s.ID, Timeout: true}
	}

	res := MoveResult{RequestID: s.ID, Bookhit: s.Bookhit, PV: s.LastInfo.PV}
	if s.LastInfo.Depth > 0 {
		d := s.LastInfo.Depth
		res.Depth = &d
	}
	if s.LastInfo.Score.Type != "" {
		sc := s.LastInfo.Score
		res.Score = &sc
	}
	if s.Terminal {
		res.Terminal = true
		res.Reason = s.Reason
		return res
	}

	uci := s.BestMove
	res.UCI = &uci
	return res
}
