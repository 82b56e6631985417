// Package supervisor is the long-lived orchestration layer: it spawns
// chessd-engine (and, optionally, a second, stronger external engine) as
// child processes, speaks UCI to them over pkg/uciclient, serializes
// concurrent callers per engine via a task queue, and tracks per-request
// live search telemetry for the HTTP surface in pkg/httpapi to read.
package supervisor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/arrowgate/chessd/pkg/apperr"
	"github.com/arrowgate/chessd/pkg/uciclient"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

const handshakeTimeout = 5 * time.Second

// clientHandle pairs a UCI client with the task queue serializing access to
// it and the last Hash value sent, so a repeat request at the same hash size
// skips a redundant setoption/isready round trip.
type clientHandle struct {
	client *uciclient.Client
	queue  *taskQueue
	ready  atomic.Bool

	// lastHashMB is only ever read or written from within a task running on
	// this handle's queue, so it needs no lock of its own: the queue itself
	// is the serialization point.
	lastHashMB int
}

// Supervisor owns the primary engine client (always present) and an
// optional secondary, stronger engine used only for /api/hint.
type Supervisor struct {
	cfg Config

	engine    *clientHandle
	stockfish *clientHandle // nil if no secondary engine is available

	requests *requestStore

	// active names the request id the primary client's permanent info
	// observer should attribute "info"/"bestmove" lines to. Empty when no
	// move search is in flight. Serialization is guaranteed by the engine's
	// own task queue: only one go-to-bestmove cycle against the primary
	// client is ever outstanding at a time.
	active atomic.String
}

// New starts the primary engine and, best-effort, the secondary engine, and
// returns a ready Supervisor. Failure to start the primary is fatal; failure
// to start the secondary is not (§4.8: "marked unavailable, not fatal").
func New(ctx context.Context, cfg Config) (*Supervisor, error) {
	s := &Supervisor{cfg: cfg, requests: newRequestStore()}

	eng, err := startClient(ctx, cfg.Engine.Path)
	if err != nil {
		return nil, apperr.EngineErrorf("start primary engine %v: %v", cfg.Engine.Path, err)
	}
	eng.lastHashMB = cfg.Engine.DefaultHashMB
	s.engine = eng
	s.installInfoObserver(ctx)

	s.stockfish = s.tryStartStockfish(ctx)

	logw.Infof(ctx, "Supervisor ready: engine=%v stockfish_available=%v", cfg.Engine.Path, s.stockfish != nil)
	return s, nil
}

// Close shuts down both engine processes gracefully (quit, then a kill
// after a grace period). The supervisor never restarts a dead engine; this
// is shutdown discipline for a clean exit, not fault recovery.
func (s *Supervisor) Close() {
	s.engine.client.Shutdown(2 * time.Second)
	if s.stockfish != nil {
		s.stockfish.client.Shutdown(2 * time.Second)
	}
}

func startClient(ctx context.Context, path string, args ...string) (*clientHandle, error) {
	c, err := uciclient.Start(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	h := &clientHandle{client: c, queue: newTaskQueue(ctx)}

	if err := c.Send("uci"); err != nil {
		return nil, err
	}
	if _, err := c.Await(ctx, uciclient.HasPrefix("uciok"), handshakeTimeout, ""); err != nil {
		return nil, err
	}
	if err := c.Send("isready"); err != nil {
		return nil, err
	}
	if _, err := c.Await(ctx, uciclient.HasPrefix("readyok"), handshakeTimeout, ""); err != nil {
		return nil, err
	}
	h.ready.Store(true)
	return h, nil
}

func (s *Supervisor) tryStartStockfish(ctx context.Context) *clientHandle {
	for _, path := range s.stockfishCandidates() {
		if path == "" {
			continue
		}
		h, err := startClient(ctx, path)
		if err != nil {
			logw.Warningf(ctx, "Secondary engine %v unavailable: %v", path, err)
			continue
		}
		logw.Infof(ctx, "Secondary engine ready: %v", path)
		return h
	}
	logw.Warningf(ctx, "No secondary engine available; /api/hint will return 503")
	return nil
}

func (s *Supervisor) stockfishCandidates() []string {
	if s.cfg.Stockfish.Path != "" {
		return []string{s.cfg.Stockfish.Path}
	}
	return s.cfg.Stockfish.Candidates
}

// installInfoObserver registers the primary client's one permanent
// observer: while a move request is active, it attributes "info" lines to
// that request's live state and finalizes the request on "bestmove".
func (s *Supervisor) installInfoObserver(ctx context.Context) {
	s.engine.client.Observe(func(line string) {
		id := s.active.Load()
		if id == "" {
			return
		}

		switch {
		case strings.HasPrefix(line, "info string bookhit"):
			s.requests.withLock(id, func(r *RequestState) { r.Bookhit = true })

		case strings.HasPrefix(line, "info "):
			if info, ok := parseInfoLine(line); ok {
				s.requests.withLock(id, func(r *RequestState) {
					r.LastInfo = info
					r.LastInfoAt = time.Now()
				})
			}

		case strings.HasPrefix(line, "bestmove "):
			fields := strings.Fields(line)
			uci := ""
			if len(fields) >= 2 {
				uci = fields[1]
			}
			s.requests.withLock(id, func(r *RequestState) {
				r.Active = false
				r.FinishedAt = time.Now()
				if uci == "" || uci == "0000" {
					r.Terminal = true
					r.Reason = terminalReason(r.LastInfo.Score)
				} else {
					r.BestMove = uci
				}
			})
			s.active.Store("")
			logw.Debugf(ctx, "Request %v finalized: bestmove=%v", id, uci)
		}
	})
}

func terminalReason(score Score) string {
	if score.Type == "mate" {
		return "CHECKMATE"
	}
	return "NO_LEGAL_MOVES"
}

// parseInfoLine extracts depth, score and pv from a UCI "info" line. Unknown
// or additional tokens (nodes, nps, time, ...) are ignored.
func parseInfoLine(line string) (Info, bool) {
	fields := strings.Fields(line)
	var info Info
	found := false

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					info.Depth = n
					found = true
				}
			}
		case "score":
			if i+2 < len(fields) {
				if n, err := strconv.Atoi(fields[i+2]); err == nil {
					switch fields[i+1] {
					case "cp":
						info.Score = Score{Type: "cp", Value: n}
						found = true
					case "mate":
						info.Score = Score{Type: "mate", Value: n}
						found = true
					}
				}
			}
		case "pv":
			info.PV = strings.Join(fields[i+1:], " ")
			found = true
			i = len(fields)
		}
	}
	return info, found
}

func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
