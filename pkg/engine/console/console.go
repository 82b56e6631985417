// Package console implements a human-typed debugging front-end, selected the
// same way the UCI front-end is: as the first line read from stdin.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/engine"
	"github.com/arrowgate/chessd/pkg/search"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

const ProtocolName = "console"

// Driver implements a console protocol for local debugging: it prints the
// board, accepts bare coordinate moves, and prints each completed search
// depth's score, node count, time and principal variation, then the chosen
// move. It gives no per-move score breakdown. Not reachable from the HTTP
// surface.
type Driver struct {
	e *engine.Engine

	out chan<- string

	active atomic.Bool // true while waiting on an engine search

	quit   chan struct{}
	closed atomic.Bool
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:    e,
		out:  out,
		quit: make(chan struct{}),
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

	logw.Infof(ctx, "Console protocol initialized")

	d.out <- fmt.Sprintf("engine %v (%v)", d.e.Name(), d.e.Author())
	d.printBoard(ctx)

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

		case <-d.quit:
			d.ensureInactive(ctx)
			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	cmd, args := parts[0], parts[1:]
	switch strings.ToLower(cmd) {
	case "reset", "r":
		// reset [<fen>] [moves ...]
		d.ensureInactive(ctx)

		pos := fen.Initial
		rest := args
		if len(args) >= 6 {
			pos = strings.Join(args[0:6], " ")
			rest = args[6:]
		}
		if err := d.e.Reset(ctx, pos); err != nil {
			d.out <- fmt.Sprintf("invalid position: %v", err)
			return true
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
				d.out <- fmt.Sprintf("invalid move %q: %v", arg, err)
				break
			}
		}
		d.printBoard(ctx)

	case "undo", "u":
		d.ensureInactive(ctx)
		_ = d.e.TakeBack(ctx)
		d.printBoard(ctx)

	case "print", "p":
		d.printBoard(ctx)

	case "analyze", "a":
		d.ensureInactive(ctx)
		d.analyze(ctx, args)

	case "depth", "d":
		if len(args) > 0 {
			n, _ := strconv.Atoi(args[0])
			d.e.SetDepth(n)
		}

	case "hash": // size in MB
		if len(args) > 0 {
			n, _ := strconv.Atoi(args[0])
			d.e.SetHash(n)
		}

	case "nohash":
		d.e.SetHash(0)

	case "noise": // evaluation randomness in centipawns
		if len(args) > 0 {
			n, _ := strconv.Atoi(args[0])
			d.e.SetNoise(n)
		}

	case "nonoise":
		d.e.SetNoise(0)

	case "halt", "stop":
		pv, err := d.e.Halt(ctx)
		if err == nil {
			d.searchCompleted(ctx, pv)
		}

	case "quit", "exit", "q":
		d.ensureInactive(ctx)
		return false

	default:
		// Assume a bare coordinate move if not a recognized command.
		d.ensureInactive(ctx)
		if err := d.e.Move(ctx, cmd); err != nil {
			d.out <- fmt.Sprintf("invalid move: %q", cmd)
		} else {
			d.printBoard(ctx)
		}
	}
	return true
}

func (d *Driver) analyze(ctx context.Context, args []string) {
	var opt search.Options
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			opt.DepthLimit = n
		}
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		d.out <- fmt.Sprintf("analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	go func() {
		var last search.PV
		for pv := range out {
			last = pv
			d.out <- pv.String()
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
	d.out <- fmt.Sprintf("bestmove %v", pv.Moves[0])
}

const (
	files      = "    a   b   c   d   e   f   g   h"
	horizontal = "  ---------------------------------"
	vertical   = " | "
)

func (d *Driver) printBoard(_ context.Context) {
	b := d.e.Board()
	pos := b.Position()

	d.out <- ""
	d.out <- files
	d.out <- horizontal
	for r := int(board.Rank8); r >= int(board.Rank1); r-- {
		var sb strings.Builder
		sb.WriteString(board.Rank(r).String())
		sb.WriteString(vertical)
		for f := 0; f < 8; f++ {
			sq := board.NewSquare(board.File(f), board.Rank(r))
			if c, piece, ok := pos.PieceAt(sq); ok {
				sb.WriteString(printPiece(c, piece))
			} else {
				sb.WriteString(" ")
			}
			sb.WriteString(vertical)
		}
		d.out <- sb.String()
		d.out <- horizontal
	}
	d.out <- files
	d.out <- ""
	d.out <- fmt.Sprintf("fen:    %v", d.e.Position())
	d.out <- fmt.Sprintf("result: %v, hash: 0x%x", b.Result(), b.Hash())
	d.out <- ""
}

func printPiece(c board.Color, p board.Piece) string {
	if c == board.White {
		return strings.ToUpper(p.String())
	}
	return strings.ToLower(p.String())
}
