package board

// Perft counts the number of leaf nodes reachable from b's current position in
// exactly depth plies. It is the standard move-generator correctness check:
// the counts at low depths from the initial position are well known (20, 400,
// 8902, 197281, 4865609, ...) and any divergence pinpoints a move generation bug.
func Perft(b *Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := b.Position().LegalMoves(b.Turn())
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		if !b.PushMove(m) {
			continue
		}
		nodes += Perft(b, depth-1)
		b.PopMove()
	}
	return nodes
}

// Divide runs Perft one ply at a time per legal root move, which is the usual way
// to bisect a move generator discrepancy against a reference engine.
func Divide(b *Board, depth int) map[string]uint64 {
	ret := map[string]uint64{}
	if depth == 0 {
		return ret
	}

	for _, m := range b.Position().LegalMoves(b.Turn()) {
		if !b.PushMove(m) {
			continue
		}
		ret[m.String()] = Perft(b, depth-1)
		b.PopMove()
	}
	return ret
}
