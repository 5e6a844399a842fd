package searcher

import (
	"context"
	"time"

	"reversi/experiments/metrics"
	"reversi/game"
)

// Searcher picks a move for the side to move. The context bounds the search in
// addition to any timeout the searcher was configured with.
type Searcher interface {
	Search(ctx context.Context, b game.Board) (Result, error)
}

// Result is the move a search settled on. Depth is the last iteration that
// completed before the deadline; it is zero for searchers that do not deepen.
type Result struct {
	Move   game.Move
	Score  int
	Depth  int
	Metric metrics.SearchMetric
}

const (
	// WinScore is added to the disc margin of finished games so that any won
	// ending outranks every heuristic score.
	WinScore = 1 << 20
	inf      = 1 << 30
)

type Option func(c *config)

type config struct {
	timeout    time.Duration
	hasTimeout bool
	goroutines int
	episodes   int
	cutoff     int
	evaluator  game.Evaluator
	scale      float64
	seed       uint64
	metrics    bool
}

// WithTimeout bounds each search by wall-clock time. A zero timeout is valid:
// alpha-beta still finishes depth 1 and MCTS falls back to the first legal move.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.hasTimeout = true
		c.timeout = max(timeout, 0)
	}
}

// WithGoroutines searches root moves (alpha-beta) or episodes (MCTS) in parallel.
func WithGoroutines(goroutines int) Option {
	return func(c *config) {
		if goroutines > 0 {
			c.goroutines = goroutines
		}
	}
}

// WithEpisodes fixes the number of MCTS episodes per search.
func WithEpisodes(episodes int) Option {
	return func(c *config) {
		if episodes > 0 {
			c.episodes = episodes
		}
	}
}

// WithCutoff stops MCTS rollouts after depth plies and scores the position with
// the rollout evaluator instead of playing to the end.
func WithCutoff(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.cutoff = depth
		}
	}
}

// WithRolloutEvaluator sets the evaluator used at the MCTS cutoff; scale is
// passed to game.WinRate.
func WithRolloutEvaluator(evaluator game.Evaluator, scale float64) Option {
	return func(c *config) {
		if evaluator != nil && scale > 0 {
			c.evaluator = evaluator
			c.scale = scale
		}
	}
}

// WithSeed seeds MCTS rollouts. Zero draws a fresh seed.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

func WithMetrics() Option {
	return func(c *config) {
		c.metrics = true
	}
}

func newConfig(options []Option) config {
	c := config{ // Default values
		goroutines: 1,
		cutoff:     game.NumSquares,
		evaluator:  game.PieceEvaluator{},
		scale:      8,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func (c *config) collector() metrics.Collector {
	if c.metrics {
		return metrics.NewCollector()
	}
	return metrics.NewDummyCollector()
}

// deadline merges the configured timeout into ctx.
func (c *config) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.hasTimeout {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
