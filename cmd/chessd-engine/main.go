// chessd-engine is the UCI-compatible search engine. Invoked with no
// arguments, it reads a single protocol-selector line from stdin ("uci" or
// "console") and then drives that protocol until "quit" or EOF. Invoked with
// perft flags, it runs a standalone move-generator diagnostic instead and
// exits without reading stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/book"
	"github.com/arrowgate/chessd/pkg/engine"
	"github.com/arrowgate/chessd/pkg/engine/console"
	"github.com/arrowgate/chessd/pkg/engine/uci"
	"github.com/seekerror/logw"
)

var (
	noise = flag.Int("noise", 0, "Evaluation noise in centipawns (zero if deterministic)")
	hash  = flag.Int("hash", 64, "Initial transposition table size in MB")

	bookMode = flag.String("book", "weighted", "Opening book strategy: weighted, deterministic, or none")

	depth    = flag.Int("depth", 4, "Perft/divide depth")
	position = flag.String("fen", "", "Perft/divide start position (default to standard)")
	divide   = flag.Bool("divide", false, "Divide counts by initial move instead of a single total")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: chessd-engine [options]

chessd-engine is a UCI chess engine. With no perft flags, it reads a
protocol name ("uci" or "console") from its first stdin line and then
speaks that protocol until quit.

Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if *divide || *position != "" || isPerftSubcommand() {
		runPerft(ctx)
		return
	}

	opts := []engine.Option{
		engine.WithOptions(engine.Options{Hash: *hash, Noise: *noise}),
		engine.WithZobrist(time.Now().UnixNano()),
	}
	if b := buildBook(ctx); b != nil {
		opts = append(opts, engine.WithBook(b))
	}
	e := engine.New(ctx, "chessd-engine", "arrowgate", opts...)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)
		<-driver.Closed()

	case console.ProtocolName:
		driver, out := console.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)
		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}

// buildBook constructs the opening book named by -book, or nil for "none".
func buildBook(ctx context.Context) book.Book {
	switch *bookMode {
	case "weighted":
		b, err := book.NewWeightedBook(book.Default, time.Now().UnixNano())
		if err != nil {
			logw.Exitf(ctx, "Invalid opening book: %v", err)
		}
		return b
	case "deterministic":
		b, err := book.NewDeterministicBook(book.Default)
		if err != nil {
			logw.Exitf(ctx, "Invalid opening book: %v", err)
		}
		return b
	case "none":
		return nil
	default:
		logw.Exitf(ctx, "Unknown -book mode %q", *bookMode)
		return nil
	}
}

// isPerftSubcommand lets "chessd-engine perft N", "perftfen <fen> N",
// "divide N" and "dividefen <fen> N" be typed as positional diagnostic
// invocations, matching the forms named in the specification's CLI surface,
// in addition to the -fen/-depth/-divide flags above.
func isPerftSubcommand() bool {
	args := flag.Args()
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "perft", "perftfen", "divide", "dividefen":
		return true
	}
	return false
}

func runPerft(ctx context.Context) {
	fenStr, maxDepth, divideMode := parsePerftArgs(ctx)

	pos, turn, noprogress, fullmoves, err := fen.Decode(fenStr)
	if err != nil {
		logw.Exitf(ctx, "Invalid fen %q: %v", fenStr, err)
	}
	zt := board.NewZobristTable(0)
	b := board.NewBoard(zt, pos, turn, noprogress, fullmoves)

	for d := 1; d <= maxDepth; d++ {
		start := time.Now()
		if divideMode && d == maxDepth {
			for move, nodes := range board.Divide(b, d) {
				fmt.Printf("%v: %v\n", move, nodes)
			}
		}
		nodes := board.Perft(b, d)
		elapsed := time.Since(start)
		fmt.Printf("perft,%v,%v,%v,%v\n", fenStr, d, nodes, elapsed.Microseconds())
	}
}

// parsePerftArgs resolves the effective fen/depth/divide from either the
// positional subcommand form (perft/perftfen/divide/dividefen, named in the
// CLI surface) or the -fen/-depth/-divide flags.
func parsePerftArgs(ctx context.Context) (fenStr string, maxDepth int, divideMode bool) {
	fenStr, maxDepth, divideMode = fen.Initial, *depth, *divide
	if *position != "" {
		fenStr = *position
	}

	args := flag.Args()
	if len(args) == 0 {
		return fenStr, maxDepth, divideMode
	}

	switch args[0] {
	case "perft":
		if len(args) != 2 {
			logw.Exitf(ctx, "usage: chessd-engine perft <depth>")
		}
		maxDepth = mustAtoi(ctx, args[1])
	case "perftfen":
		if len(args) != 3 {
			logw.Exitf(ctx, "usage: chessd-engine perftfen <fen> <depth>")
		}
		fenStr, maxDepth = args[1], mustAtoi(ctx, args[2])
	case "divide":
		if len(args) != 2 {
			logw.Exitf(ctx, "usage: chessd-engine divide <depth>")
		}
		maxDepth, divideMode = mustAtoi(ctx, args[1]), true
	case "dividefen":
		if len(args) != 3 {
			logw.Exitf(ctx, "usage: chessd-engine dividefen <fen> <depth>")
		}
		fenStr, maxDepth, divideMode = args[1], mustAtoi(ctx, args[2]), true
	}
	return fenStr, maxDepth, divideMode
}

func mustAtoi(ctx context.Context, s string) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		logw.Exitf(ctx, "invalid integer %q", s)
	}
	return n
}
