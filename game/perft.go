package game

// Perft counts the leaf positions depth plies below b. A forced pass does not
// use up a ply; finished games count as a single leaf.
func Perft(b Board, depth int) uint64 {
	if depth == 0 || b.IsGameOver() {
		return 1
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		child := b
		if err := child.DoMove(Pass); err != nil {
			panic(err)
		}
		return Perft(child, depth)
	}

	var nodes uint64
	for _, m := range moves {
		child := b
		if err := child.DoMove(m); err != nil {
			panic(err)
		}
		nodes += Perft(child, depth-1)
	}
	return nodes
}
