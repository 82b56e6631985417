package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrowgate/chessd/pkg/board"
	"github.com/arrowgate/chessd/pkg/board/fen"
	"github.com/arrowgate/chessd/pkg/book"
	"github.com/arrowgate/chessd/pkg/eval"
	"github.com/arrowgate/chessd/pkg/search"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(1, 0, 0)

// maxBookPlies is the total played-ply count beyond which the engine never
// consults the opening book, regardless of what it contains.
const maxBookPlies = 12

// Options are the engine's dynamic search parameters.
type Options struct {
	// Depth is the search depth limit. Zero means no limit; overridden by a
	// per-request depth if one is given.
	Depth int
	// Hash is the transposition table size in MB. Zero keeps no table between
	// searches: each search then gets a fresh 1MB table of its own.
	Hash int
	// Noise adds centipawn randomness to leaf evaluations, for variety.
	Noise int
}

func (o Options) String() string {
	return fmt.Sprintf("{depth=%v, hash=%vMB, noise=%vcp}", o.Depth, o.Hash, o.Noise)
}

// Engine encapsulates game state, book lookup and search for a single game.
// Not safe for concurrent use beyond the synchronization Engine itself
// provides: exactly one Analyze can be active at a time.
type Engine struct {
	name, author string
	book         book.Book
	seed         int64
	opts         Options

	mu      sync.Mutex
	zt      *board.ZobristTable
	b       *board.Board
	history []string // played moves in long algebraic notation, from position's start; feeds the book
	tt      *search.TranspositionTable
	eval    eval.Evaluator
	active  search.Handle
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithBook configures the opening book consulted before falling back to search.
func WithBook(b book.Book) Option {
	return func(e *Engine) { e.book = b }
}

// WithOptions sets the initial search options.
func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithZobrist seeds the Zobrist hash table, instead of the default seed.
func WithZobrist(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// New constructs an Engine at the standard starting position.
func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{name: name, author: author}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(uint64(e.seed))
	e.eval = eval.Standard{}

	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine %v, options=%v", e.Name(), e.opts)
	return e
}

func (e *Engine) Name() string   { return fmt.Sprintf("%v %v", e.name, version) }
func (e *Engine) Author() string { return e.author }

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

func (e *Engine) SetDepth(depth int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Depth = depth
}

// SetNoise sets the evaluation noise in centipawns, for variety in casual play.
// Zero disables it.
func (e *Engine) SetNoise(cp int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Noise = cp
}

func (e *Engine) SetHash(sizeMB int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Hash = sizeMB
	if sizeMB > 0 {
		e.tt = search.NewTranspositionTable(sizeMB)
	} else {
		e.tt = nil
	}
}

// Board returns a forked snapshot of the current position, safe for the
// caller to inspect or mutate independently.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Fork()
}

// Position returns the current position as FEN.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fen.Encode(e.b.Position(), e.b.Turn(), e.b.NoProgress(), e.b.FullMoves())
}

// Reset sets the board to position (FEN) and clears move history.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, opts=%v", position, e.opts)
	e.haltSearchLocked(ctx)

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	if err != nil {
		return err
	}
	e.b = board.NewBoard(e.zt, pos, turn, noprogress, fullmoves)
	e.history = nil
	if e.opts.Hash > 0 {
		e.tt = search.NewTranspositionTable(e.opts.Hash)
	}
	return nil
}

// Move plays move (coordinate notation), usually an opponent's.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate, err := board.ParseMove(move)
	if err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	e.haltSearchLocked(ctx)

	for _, m := range e.b.Position().PseudoLegalMoves(e.b.Turn()) {
		if !candidate.Equals(m) {
			continue
		}
		if !e.b.PushMove(m) {
			return fmt.Errorf("illegal move: %v", m)
		}
		e.history = append(e.history, m.String())
		logw.Infof(ctx, "Move %v: %v", m, e.b)
		return nil
	}
	return fmt.Errorf("invalid move: %v", candidate)
}

// TakeBack undoes the most recent move.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltSearchLocked(ctx)

	m, ok := e.b.PopMove()
	if !ok {
		return fmt.Errorf("no move to take back")
	}
	if len(e.history) > 0 {
		e.history = e.history[:len(e.history)-1]
	}
	logw.Infof(ctx, "Takeback %v", m)
	return nil
}

// BookMove consults the opening book and returns a move if one can be played
// safely: total plies so far must not exceed maxBookPlies, the position must
// hold no critical tactic (check, or a legal capture/promotion), the move
// itself must not be an early queen sortie, and it must leave the mover's own
// king safe.
func (e *Engine) BookMove(ctx context.Context) (board.Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.book == nil {
		return board.Move{}, false
	}

	if len(e.history) > maxBookPlies {
		return board.Move{}, false
	}

	legal := e.b.Position().LegalMoves(e.b.Turn())
	if e.b.Position().IsChecked(e.b.Turn()) || hasCaptureOrPromotion(legal) {
		return board.Move{}, false
	}

	candidate, ok, err := e.book.Select(ctx, e.history, e.b.Position(), e.b.Turn(), legal)
	if err != nil || !ok {
		return board.Move{}, false
	}
	if isEarlyQueenMove(e.b, candidate) {
		return board.Move{}, false
	}
	if !isAmongLegal(legal, candidate) {
		return board.Move{}, false
	}

	fork := e.b.Fork()
	safe := fork.PushMove(candidate)
	return candidate, safe
}

func hasCaptureOrPromotion(moves []board.Move) bool {
	for _, m := range moves {
		if m.IsCapture() || m.IsPromotion() {
			return true
		}
	}
	return false
}

func isAmongLegal(moves []board.Move, m board.Move) bool {
	for _, cand := range moves {
		if cand.Equals(m) {
			return true
		}
	}
	return false
}

func isEarlyQueenMove(b *board.Board, m board.Move) bool {
	_, p, ok := b.Position().PieceAt(m.From)
	if !ok || p != board.Queen {
		return false
	}
	home := board.D1
	if b.Turn() == board.Black {
		home = board.D8
	}
	return m.From == home
}

// Analyze launches an iterative-deepening search from the current position.
// The returned channel yields one PV per completed depth and is closed when
// the search stops.
func (e *Engine) Analyze(ctx context.Context, opt search.Options) (<-chan search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opt.DepthLimit == 0 {
		opt.DepthLimit = e.opts.Depth
	}
	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}

	ev := eval.Evaluator(e.eval)
	if e.opts.Noise > 0 {
		ev = eval.Mixed{Base: e.eval, Noise: eval.NewNoise(e.opts.Noise, e.seed)}
	}

	it := search.Iterative{Search: search.AlphaBeta{Eval: ev, TT: e.ttOrNop()}}
	handle, out := it.Launch(ctx, e.b.Fork(), opt)
	e.active = handle
	return out, nil
}

// Halt stops the active search and returns its last completed PV.
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pv, ok := e.haltSearchLocked(ctx)
	if !ok {
		return search.PV{}, fmt.Errorf("no active search")
	}
	return pv, nil
}

func (e *Engine) haltSearchLocked(ctx context.Context) (search.PV, bool) {
	if e.active == nil {
		return search.PV{}, false
	}
	pv := e.active.Halt()
	logw.Infof(ctx, "Search halted: %v", pv)
	e.active = nil
	return pv, true
}

func (e *Engine) ttOrNop() *search.TranspositionTable {
	if e.tt == nil {
		return search.NewTranspositionTable(1)
	}
	return e.tt
}
