package searcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/meta"
)

// MCTS is a tree-parallel Monte Carlo tree search with UCT selection and
// virtual loss. Every goroutine owns its rollout generator.
type MCTS struct {
	config
}

func NewMCTS(options ...Option) (*MCTS, error) {
	m := &MCTS{config: newConfig(options)}
	if m.episodes <= 0 && !m.hasTimeout {
		return nil, fmt.Errorf("%w: mcts needs episodes or a timeout", meta.ErrConfiguration)
	}
	if m.seed == 0 {
		m.seed = newSeed()
	}
	return m, nil
}

// Search runs episodes until the budget is spent and returns the most visited
// root move. With no episode finished it returns the first legal move.
func (m *MCTS) Search(ctx context.Context, b game.Board) (Result, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return Result{}, fmt.Errorf("%w: %v to move", game.ErrNoLegalMoves, b.Turn())
	}

	ctx, cancel := m.deadline(ctx)
	defer cancel()
	collector := m.collector()
	collector.Start("mcts", m.goroutines)

	root := newDecision(nil, game.Pass, b.Turn().Opponent(), &b)
	if m.episodes > 0 {
		m.iterate(ctx, root, b, collector)
	} else {
		m.countdown(ctx, root, b, collector)
	}

	move, ok := root.bestMove()
	if !ok {
		move = moves[0]
	}
	return Result{Move: move, Metric: collector.Complete()}, nil
}

// iterate shares a fixed number of episodes among the goroutines. The context
// can still cut it short.
func (m *MCTS) iterate(ctx context.Context, root *decision, b game.Board, collector metrics.Collector) {
	var remaining atomic.Int64
	remaining.Store(int64(m.episodes))

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(rng *rand.Rand) {
			defer wg.Done()

			for remaining.Add(-1) >= 0 && ctx.Err() == nil {
				m.simulate(root, b, rng, collector)
				collector.AddEpisode()
			}
		}(m.rng(i))
	}
	wg.Wait()
}

func (m *MCTS) countdown(ctx context.Context, root *decision, b game.Board, collector metrics.Collector) {
	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(rng *rand.Rand) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					m.simulate(root, b, rng, collector)
					collector.AddEpisode()
				}
			}
		}(m.rng(i))
	}
	wg.Wait()
}

func (m *MCTS) rng(worker int) *rand.Rand {
	return rand.New(rand.NewSource(m.seed + uint64(worker)))
}

func (m *MCTS) simulate(root *decision, state game.Board, rng *rand.Rand, collector metrics.Collector) {
	node, state := selectThenExpand(root, state)
	player, score := m.rollout(state, rng, collector)
	backup(node, player, score)
}

func selectThenExpand(root *decision, state game.Board) (*decision, game.Board) {
	parent := root
	child, state, selected := parent.SelectOrExpand(state)
	for selected && child != parent {
		parent = child
		child, state, selected = parent.SelectOrExpand(state)
	}
	return child, state
}

// rollout plays random moves until the game ends or the cutoff is reached and
// returns the chance of winning for player.
func (m *MCTS) rollout(state game.Board, rng *rand.Rand, collector metrics.Collector) (game.Color, float64) {
	depth := 0
	for !state.IsGameOver() && depth < m.cutoff {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			mustMove(&state, game.Pass)
			continue
		}
		mustMove(&state, moves[rng.Intn(len(moves))]) // Random rollout policy
		depth++
	}

	if state.IsGameOver() {
		collector.AddFullPlayout()
		winner, ok := state.Winner()
		if !ok {
			return game.Black, Draw
		}
		return winner, Win
	}

	// At the cutoff, estimate from the side to move
	return state.Turn(), game.WinRate(m.evaluator.Evaluate(&state, state.Turn()), m.scale)
}

func backup(node *decision, player game.Color, score float64) {
	reward := func(mover game.Color) float64 {
		if mover == player {
			return score
		}
		return 1 - score
	}
	for node != nil {
		node = node.Backup(reward)
	}
}
