package searcher

import (
	"sync"

	"reversi/game"
)

// decision is an MCTS tree node. Its statistics are kept from the point of
// view of mover, the side that played the move leading to it, so a parent can
// compare its children directly.
type decision struct {
	sync.Mutex
	parent     *decision
	mover      game.Color
	move       game.Move
	unexplored []game.Move
	children   []*decision
	rewards    float64
	visits     float64
}

func newDecision(parent *decision, move game.Move, mover game.Color, state *game.Board) *decision {
	unexplored := state.LegalMoves()
	if len(unexplored) == 0 && !state.IsGameOver() {
		unexplored = []game.Move{game.Pass}
	}
	return &decision{
		parent:     parent,
		mover:      mover,
		move:       move,
		unexplored: unexplored,
	}
}

// SelectOrExpand descends one level. It returns the same node for a terminal
// position, a freshly added child when moves are left to try, or the child with
// the highest UCT score otherwise. selected is true only in the last case.
func (d *decision) SelectOrExpand(state game.Board) (*decision, game.Board, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.unexplored) == 0 && len(d.children) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.unexplored) > 0 { // Expandable node
		move := d.unexplored[0]
		d.unexplored = d.unexplored[1:]
		mover := state.Turn()
		mustMove(&state, move)
		child := newDecision(d, move, mover, &state)
		d.children = append(d.children, child)
		child.applyLoss()
		return child, state, false
	}

	// Fully expanded node
	child := d.pickChild()
	mustMove(&state, child.move)
	child.applyLoss()
	return child, state, true
}

func (d *decision) pickChild() *decision {
	policy := newUCT(CSquared, max(d.visits, 1)) // Root backups may still be in flight

	var best *decision
	bestScore := 0.0
	for _, child := range d.children {
		rewards, visits := child.stats()
		if visits == 0 {
			return child
		}
		score := policy.evaluate(rewards, visits)
		if best == nil || score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// applyLoss counts a visit in progress as a loss so that concurrent episodes
// spread out over the tree. Backup takes it back.
func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += Loss
	d.visits++
}

func (d *decision) reverseLoss() {
	d.rewards -= Loss
	d.visits--
}

func (d *decision) stats() (rewards, visits float64) {
	d.Lock()
	defer d.Unlock()

	return d.rewards, d.visits
}

// Backup records the reward of one episode and returns the parent.
func (d *decision) Backup(reward func(mover game.Color) float64) *decision {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.reverseLoss()
	}
	d.rewards += reward(d.mover)
	d.visits++

	return d.parent
}

// bestMove returns the most visited child's move, the first one on ties.
func (d *decision) bestMove() (game.Move, bool) {
	d.Lock()
	defer d.Unlock()

	var best *decision
	bestVisits := 0.0
	for _, child := range d.children {
		_, visits := child.stats()
		if best == nil || visits > bestVisits {
			best, bestVisits = child, visits
		}
	}
	if best == nil {
		return game.Pass, false
	}
	return best.move, true
}
