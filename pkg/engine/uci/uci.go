// Package uci drives an Engine over the UCI protocol, reading commands from
// an input line channel and writing responses to an output line channel.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/engine"
	"github.com/arrowgate/chessd/pkg/search"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Driver speaks UCI on behalf of an Engine.
type Driver struct {
	e *engine.Engine

	out chan<- string

	active       atomic.Bool
	ponder       chan search.PV
	lastPosition string

	quit   chan struct{}
	closed atomic.Bool
}

// NewDriver starts the driver's processing goroutine and returns it along
// with the output channel it writes responses to. The output channel is
// closed when in is closed or "quit" is received.
func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:      e,
		out:    out,
		ponder: make(chan search.PV, 400),
		quit:   make(chan struct{}),
	}
	go d.process(ctx, in)
	return d, out
}

func (d *Driver) Close() {
	if d.closed.CAS(false, true) {
		close(d.quit)
	}
}

func (d *Driver) Closed() <-chan struct{} { return d.quit }

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- "option name Hash type spin default 64 min 1 max 2048"
	d.out <- "option name Threads type spin default 1 min 1 max 32"
	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream closed")
				return
			}
			if !d.handle(ctx, line) {
				return
			}

		case pv := <-d.ponder:
			if d.active.Load() {
				d.out <- printInfo(pv)
			}

		case <-d.quit:
			d.ensureInactive(ctx)
			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

// handle processes a single input line; it returns false if the driver should
// stop (e.g. on "quit" or a malformed command).
func (d *Driver) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return true
	}

	cmd, args := strings.ToLower(parts[0]), parts[1:]
	switch cmd {
	case "isready":
		d.out <- "readyok"

	case "debug":
		// accepted, not surfaced: no extra debug output is emitted.

	case "setoption":
		d.handleSetOption(args)

	case "ucinewgame":
		d.ensureInactive(ctx)
		d.lastPosition = ""

	case "position":
		if !d.handlePosition(ctx, trimmed, args) {
			return false
		}

	case "go":
		d.handleGo(ctx, args)

	case "stop":
		pv, err := d.e.Halt(ctx)
		if err == nil {
			d.searchCompleted(ctx, pv)
		}

	case "ponderhit":
		// ponder is not implemented; nothing to switch.

	case "quit":
		return false

	default:
		logw.Warningf(ctx, "Unknown UCI command %q", cmd)
	}
	return true
}

func (d *Driver) handleSetOption(args []string) {
	var name, value string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "name":
			if i+1 < len(args) {
				name = args[i+1]
			}
		case "value":
			if i+1 < len(args) {
				value = args[i+1]
			}
		}
	}
	if name == "Hash" {
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetHash(n)
		}
	}
}

func (d *Driver) handlePosition(ctx context.Context, line string, args []string) bool {
	d.ensureInactive(ctx)

	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(moves) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid move %q in %q: %v", arg, line, err)
				return false
			}
		}
		d.lastPosition = line
		return true
	}

	position := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	rest := args
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
		rest = args[7:]
	} else if len(args) >= 1 && args[0] == "startpos" {
		rest = args[1:]
	}

	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position %q: %v", line, err)
		return false
	}

	playing := false
	for _, arg := range rest {
		if arg == "moves" {
			playing = true
			continue
		}
		if !playing {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid move %q in %q: %v", arg, line, err)
			return false
		}
	}
	d.lastPosition = line
	return true
}

func (d *Driver) handleGo(ctx context.Context, args []string) {
	d.ensureInactive(ctx)

	var opt search.Options
	tc := &search.TimeControl{}
	hasClock := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth", "movetime", "wtime", "btime", "winc", "binc", "movestogo":
			if i+1 >= len(args) {
				continue
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				continue
			}
			switch args[i-1] {
			case "depth":
				opt.DepthLimit = n
			case "movetime":
				tc.MoveTime = time.Duration(n) * time.Millisecond
				hasClock = true
			case "wtime":
				tc.White = time.Duration(n) * time.Millisecond
				hasClock = true
			case "btime":
				tc.Black = time.Duration(n) * time.Millisecond
				hasClock = true
			case "winc":
				tc.WhiteInc = time.Duration(n) * time.Millisecond
			case "binc":
				tc.BlackInc = time.Duration(n) * time.Millisecond
			}
		case "infinite":
			opt.Infinite = true
		}
	}
	if hasClock {
		opt.TimeControl = tc
	}

	if move, ok := d.e.BookMove(ctx); ok {
		d.out <- fmt.Sprintf("info string bookhit move=%v", move)
		d.active.Store(true)
		d.searchCompleted(ctx, search.PV{Moves: []board.Move{move}})
		return
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		logw.Errorf(ctx, "Analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	go func() {
		var last search.PV
		for pv := range out {
			last = pv
			d.ponder <- pv
		}
		d.searchCompleted(ctx, last)
	}()
}

func (d *Driver) ensureInactive(ctx context.Context) {
	d.active.Store(false)
	_, _ = d.e.Halt(ctx)
}

func (d *Driver) searchCompleted(ctx context.Context, pv search.PV) {
	if !d.active.CAS(true, false) {
		return // stale or duplicate result
	}
	if len(pv.Moves) == 0 {
		d.out <- "bestmove 0000"
		return
	}
	d.out <- printInfo(pv)
	d.out <- fmt.Sprintf("bestmove %v", pv.Moves[0].String())
}

func printInfo(pv search.PV) string {
	parts := []string{"info", fmt.Sprintf("depth %v", pv.Depth)}
	if pv.Score.IsMate() {
		parts = append(parts, fmt.Sprintf("score mate %v", pv.Score.MatePly()))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %v", int(pv.Score)))
	}
	parts = append(parts, fmt.Sprintf("nodes %v", pv.Nodes))
	parts = append(parts, fmt.Sprintf("time %v", pv.Time.Milliseconds()))
	if pv.Time > 0 {
		nps := uint64(float64(pv.Nodes) / pv.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %v", nps))
	}
	if len(pv.Moves) > 0 {
		var sb strings.Builder
		for i, m := range pv.Moves {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(m.String())
		}
		parts = append(parts, "pv", sb.String())
	}
	return strings.Join(parts, " ")
}
