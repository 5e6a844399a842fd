package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/meta"
	"reversi/player"
	"reversi/searcher"
)

// Throughput is the search rate of one goroutine count, averaged over positions.
type Throughput struct {
	Goroutines     int
	Positions      int
	NodesPerSec    float64 // Alpha-beta nodes
	EpisodesPerSec float64 // MCTS episodes
}

// RunThroughput measures how alpha-beta and MCTS scale with goroutines by
// searching the same midgame positions with a fixed time budget each.
func RunThroughput(ctx context.Context, goroutines []int, positions int, budget time.Duration, seed uint64) ([]Throughput, []metrics.SearchRecord, error) {
	if positions <= 0 || budget <= 0 || len(goroutines) == 0 {
		return nil, nil, fmt.Errorf("%w: throughput needs positions, a budget and goroutine counts", meta.ErrConfiguration)
	}
	boards, err := midgame(ctx, positions, seed)
	if err != nil {
		return nil, nil, err
	}

	var results []Throughput
	var records []metrics.SearchRecord
	for id, n := range goroutines {
		log.Info().Msgf("measuring throughput with %d goroutines...", n)
		ab, err := searcher.NewAlphaBeta(meta.MaxPlies, game.NewMatrixEvaluator(game.DefaultMatrix),
			searcher.WithGoroutines(n), searcher.WithTimeout(budget), searcher.WithMetrics())
		if err != nil {
			return nil, nil, err
		}
		mcts, err := searcher.NewMCTS(searcher.WithGoroutines(n), searcher.WithTimeout(budget), searcher.WithSeed(seed), searcher.WithMetrics())
		if err != nil {
			return nil, nil, err
		}

		row := Throughput{Goroutines: n, Positions: len(boards)}
		var abTime, mctsTime time.Duration
		var nodes, episodes int
		for _, b := range boards {
			result, err := ab.Search(ctx, b)
			if err != nil {
				return nil, nil, err
			}
			abTime += result.Metric.Duration
			nodes += result.Metric.Nodes
			records = append(records, metrics.SearchRecord{Config: id + 1, SearchMetric: result.Metric})

			result, err = mcts.Search(ctx, b)
			if err != nil {
				return nil, nil, err
			}
			mctsTime += result.Metric.Duration
			episodes += result.Metric.Episodes
			records = append(records, metrics.SearchRecord{Config: id + 1, SearchMetric: result.Metric})
		}
		row.NodesPerSec = rate(nodes, abTime)
		row.EpisodesPerSec = rate(episodes, mctsTime)
		results = append(results, row)
		log.Info().Msgf("%d goroutines: %.0f nodes/s, %.0f episodes/s", n, row.NodesPerSec, row.EpisodesPerSec)
	}
	return results, records, nil
}

// midgame plays random openings of 20 plies from seed.
func midgame(ctx context.Context, n int, seed uint64) ([]game.Board, error) {
	p := player.NewRandomPlayer(seed)
	boards := make([]game.Board, 0, n)
	for len(boards) < n {
		b := game.NewBoard()
		for ply := 0; ply < 20 && !b.IsGameOver(); ply++ {
			move, _, err := p.FindMove(ctx, b)
			if err != nil {
				return nil, err
			}
			if err := b.DoMove(move); err != nil {
				return nil, err
			}
		}
		if !b.IsGameOver() {
			boards = append(boards, b)
		}
	}
	return boards, nil
}

func rate(count int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(count) / d.Seconds()
}
