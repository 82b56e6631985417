package board

// Precomputed step tables for the non-sliding pieces (knight, king, pawn). Sliding
// piece attacks (bishop, rook, queen) cannot be precomputed this way since they
// depend on occupancy; those are generated by walking rays in position.go.

var knightSteps = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingSteps = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// bishopDirs and rookDirs are the ray directions sliding pieces walk; a queen
// walks both sets.
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

var knightAttacks [NumSquares][]Square
var kingAttacks [NumSquares][]Square

// pawnAttacks[c][sq] lists the squares a color-c pawn standing on sq attacks
// (diagonal captures, not the push square).
var pawnAttacks [NumColors][NumSquares][]Square

func init() {
	for sq := ZeroSquare; sq < NumSquares; sq++ {
		knightAttacks[sq] = stepsFrom(sq, knightSteps[:])
		kingAttacks[sq] = stepsFrom(sq, kingSteps[:])
		pawnAttacks[White][sq] = stepsFrom(sq, [][2]int{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = stepsFrom(sq, [][2]int{{-1, -1}, {1, -1}})
	}
}

func stepsFrom(sq Square, deltas [][2]int) []Square {
	f, r := int(sq.File()), int(sq.Rank())

	var ret []Square
	for _, d := range deltas {
		nf, nr := f+d[0], r+d[1]
		if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
			continue
		}
		ret = append(ret, NewSquare(File(nf), Rank(nr)))
	}
	return ret
}

// rayTo returns the squares along the direction (df,dr) from sq to the board edge,
// nearest first.
func rayTo(sq Square, df, dr int) []Square {
	f, r := int(sq.File()), int(sq.Rank())

	var ret []Square
	for {
		f, r = f+df, r+dr
		if f < 0 || f > 7 || r < 0 || r > 7 {
			break
		}
		ret = append(ret, NewSquare(File(f), Rank(r)))
	}
	return ret
}
