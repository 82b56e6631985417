package book

import (
	"context"
	"math/rand"
	"strings"

	"github.com/arrowgate/chessd/pkg/board"
)

// tierWidth is how close to the best score a candidate must be to enter the
// random-selection tier (spec.md §4.5: "within 25 points of the best").
const tierWidth = 25

// WeightedBook scores the candidates known for a history by opening principle
// and how consistently the repertoire supports them, then picks randomly
// among the top tier in proportion to recorded weight. Reproducibility across
// runs is not a goal: seeding from the process clock is good enough for
// engine variety (spec.md §9's open question).
type WeightedBook struct {
	rep  repertoire
	rand *rand.Rand
}

func NewWeightedBook(lines []Line, seed int64) (*WeightedBook, error) {
	rep, err := build(lines)
	if err != nil {
		return nil, err
	}
	return &WeightedBook{rep: rep, rand: rand.New(rand.NewSource(seed))}, nil
}

// Select looks up candidates for history and degrades to shorter prefixes,
// two plies at a time, not only when the exact key is absent but also when
// the key hits but every one of its candidates fails the weight/legality
// filter, until a prefix yields a move or the empty prefix has been tried.
func (b *WeightedBook) Select(_ context.Context, history []string, pos *board.Position, turn board.Color, legal []board.Move) (board.Move, bool, error) {
	ply := len(history)

	h := history
	stripped := 0
	for {
		candidates := b.rep.lookup(strings.Join(h, " "))
		if move, ok := b.selectFrom(candidates, stripped, ply, pos, turn, legal); ok {
			return move, true, nil
		}
		if len(h) == 0 {
			return board.Move{}, false, nil
		}
		if len(h) == 1 {
			h = h[:0]
		} else {
			h = h[:len(h)-2]
		}
		stripped += 2
	}
}

func (b *WeightedBook) selectFrom(candidates []candidate, stripped, ply int, pos *board.Position, turn board.Color, legal []board.Move) (board.Move, bool) {
	type scored struct {
		move   board.Move
		weight int
		score  int
	}
	var all []scored
	best := 0
	haveBest := false

	for _, c := range candidates {
		if c.weight <= 0 {
			continue
		}
		if !isLegal(legal, c.move) {
			continue
		}
		s := principleBonus(pos, turn, c.move, ply) + consistencyBonus(c, stripped)
		all = append(all, scored{move: c.move, weight: c.weight, score: s})
		if !haveBest || s > best {
			best = s
			haveBest = true
		}
	}
	if len(all) == 0 {
		return board.Move{}, false
	}

	var tier []scored
	total := 0
	for _, s := range all {
		if best-s.score <= tierWidth {
			tier = append(tier, s)
			total += s.weight
		}
	}

	pick := b.rand.Intn(total)
	for _, s := range tier {
		pick -= s.weight
		if pick < 0 {
			return s.move, true
		}
	}
	return tier[len(tier)-1].move, true
}

// consistencyBonus rewards candidates backed by heavier main-line weight and
// deeper surviving lines, and penalizes ones only reached after the prefix
// fallback had to strip plies to find a hit at all.
func consistencyBonus(c candidate, strippedPlies int) int {
	return 3*c.weight + 2*c.lineDepth - 10*strippedPlies
}

// principleBonus scores a candidate move by classical opening principle:
// favor central development in the first 10 plies, penalize early queen
// sallies off the back rank in the first 7 plies, and penalize thematic
// rook-pawn advances in the first 4 plies (spec.md §4.5).
func principleBonus(pos *board.Position, turn board.Color, m board.Move, ply int) int {
	_, piece, ok := pos.PieceAt(m.From)
	if !ok {
		return 0
	}

	score := 0
	if ply < 10 {
		switch {
		case piece == board.Pawn && m.Flags.Has(board.DoublePush) && isCentralFile(m.From.File()):
			score += 12
		case piece == board.Knight && isCentralDevelopment(m.To):
			score += 8
		case piece == board.Bishop:
			score += 4
		}
	}
	if ply < 7 && piece == board.Queen && isHomeRank(turn, m.From) {
		score -= 15
	}
	if ply < 4 && piece == board.Pawn && isRookFile(m.From.File()) {
		score -= 10
	}
	return score
}

func isCentralFile(f board.File) bool {
	return f == board.FileD || f == board.FileE
}

func isRookFile(f board.File) bool {
	return f == board.FileA || f == board.FileH
}

func isCentralDevelopment(to board.Square) bool {
	switch to {
	case board.F3, board.C3, board.F6, board.C6:
		return true
	default:
		return false
	}
}

func isHomeRank(turn board.Color, sq board.Square) bool {
	if turn == board.White {
		return sq.Rank() == board.Rank1
	}
	return sq.Rank() == board.Rank8
}
