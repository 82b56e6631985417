package search

import (
	"math/bits"

	"github.com/arrowgate/chessd/pkg/board"
)

// Bound records what kind of value a transposition table entry holds relative
// to the alpha-beta window it was produced in.
type Bound uint8

const (
	NoBound Bound = iota
	ExactBound
	LowerBound // fail-high: true score >= stored score
	UpperBound // fail-low: true score <= stored score
)

func (b Bound) String() string {
	switch b {
	case ExactBound:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	default:
		return "none"
	}
}

type node struct {
	hash  board.ZobristHash
	score board.Score
	move  board.Move
	bound Bound
	depth int16
	used  bool
}

// TranspositionTable caches search results keyed by Zobrist hash. Mate scores
// are stored normalized to "distance from this node" rather than "distance
// from the search root", so a cached entry stays valid even when later
// reached from a different root distance; Read/Write convert to/from that
// form using the ply of the calling node.
//
// A search runs single-threaded end to end, so a plain slice indexed by the
// low bits of the hash is enough -- no atomics or lock-free CAS are needed.
type TranspositionTable struct {
	table []node
	mask  uint64
	used  int
}

// NewTranspositionTable allocates a table of roughly sizeMB megabytes,
// rounded down to the nearest power of two entry count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const entryBytes = 40
	want := uint64(sizeMB) * (1 << 20) / entryBytes
	n := uint64(1) << (63 - bits.LeadingZeros64(want|1))
	return &TranspositionTable{
		table: make([]node, n),
		mask:  n - 1,
	}
}

// Read returns the bound, depth, score and best move recorded for hash, if
// present. ply is the distance of the querying node from the search root.
func (t *TranspositionTable) Read(hash board.ZobristHash, ply int) (Bound, int, board.Score, board.Move, bool) {
	n := &t.table[uint64(hash)&t.mask]
	if !n.used || n.hash != hash {
		return NoBound, 0, 0, board.Move{}, false
	}
	return n.bound, int(n.depth), fromTT(n.score, ply), n.move, true
}

// Write records a result for hash. A shallower search never overwrites a
// deeper entry for the same hash; an entry for a different hash in the same
// slot is always replaced.
func (t *TranspositionTable) Write(hash board.ZobristHash, bound Bound, ply, depth int, score board.Score, move board.Move) {
	n := &t.table[uint64(hash)&t.mask]
	if n.used && n.hash == hash && int(n.depth) > depth {
		return
	}
	if !n.used {
		t.used++
	}
	*n = node{
		hash:  hash,
		score: toTT(score, ply),
		move:  move,
		bound: bound,
		depth: int16(depth),
		used:  true,
	}
}

// Size returns the number of slots in the table.
func (t *TranspositionTable) Size() int { return len(t.table) }

// Used returns current occupancy as a fraction in [0;1].
func (t *TranspositionTable) Used() float64 {
	if len(t.table) == 0 {
		return 0
	}
	return float64(t.used) / float64(len(t.table))
}

// Clear empties the table in place.
func (t *TranspositionTable) Clear() {
	for i := range t.table {
		t.table[i] = node{}
	}
	t.used = 0
}

func toTT(s board.Score, ply int) board.Score {
	switch {
	case s > board.MateThreshold:
		return s + board.Score(ply)
	case s < -board.MateThreshold:
		return s - board.Score(ply)
	default:
		return s
	}
}

func fromTT(s board.Score, ply int) board.Score {
	switch {
	case s > board.MateThreshold:
		return s - board.Score(ply)
	case s < -board.MateThreshold:
		return s + board.Score(ply)
	default:
		return s
	}
}
