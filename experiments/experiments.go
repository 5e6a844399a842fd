package experiments

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"reversi/arena"
	"reversi/config"
	"reversi/experiments/metrics"
	"reversi/meta"
	"reversi/player"
)

// Matchup is the outcome of one pairing of a round robin.
type Matchup struct {
	Player1 string
	Player2 string
	arena.Summary
}

// Standing is one player's total over a round robin.
type Standing struct {
	Name   string
	Wins   int
	Losses int
	Draws  int
}

// Points counts a win as one and a draw as a half.
func (s Standing) Points() float64 {
	return float64(s.Wins) + float64(s.Draws)/2
}

type Report struct {
	Matchups  []Matchup
	Standings []Standing // Best first
	Dir       string     // Where the CSV files went; empty if none were written
}

// RunRoundRobin plays every pair of specs against each other for games games
// each. When root is not empty the players, games and moves are written as CSV
// into a fresh timestamped directory under root.
func RunRoundRobin(ctx context.Context, specs []config.PlayerSpec, games int, root string, options ...arena.Option) (Report, error) {
	if len(specs) < 2 {
		return Report{}, fmt.Errorf("%w: a round robin needs at least two players", meta.ErrConfiguration)
	}
	if games <= 0 || games%2 != 0 {
		return Report{}, fmt.Errorf("%w: game count must be positive and even, got %d", meta.ErrConfiguration, games)
	}
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return Report{}, fmt.Errorf("players[%d]: %w", i, err)
		}
	}

	specs = append([]config.PlayerSpec(nil), specs...)
	names := make([]string, len(specs))
	playerRecords := make([]metrics.PlayerRecord, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("%s-%d", spec.Kind, i+1)
			specs[i].Name = names[i]
		}
		playerRecords[i] = metrics.PlayerRecord{ID: i + 1, Name: names[i], Kind: spec.Kind}
	}

	var report Report
	standings := make([]Standing, len(specs))
	for i := range standings {
		standings[i].Name = names[i]
	}
	var gameRecords []metrics.GameRecord
	var moveRecords []metrics.MoveRecord

	pairs := len(specs) * (len(specs) - 1) / 2
	count := 0
	for i := 0; i < len(specs); i++ {
		for j := i + 1; j < len(specs); j++ {
			count++
			log.Info().Msgf("starting matchup %d of %d: %s vs %s", count, pairs, names[i], names[j])

			recorder := metrics.NewRecorder()
			summary, err := playMatchup(ctx, specs[i], specs[j], games, append(options, arena.WithMetrics(recorder)))
			if err != nil {
				return report, fmt.Errorf("%s vs %s: %w", names[i], names[j], err)
			}
			report.Matchups = append(report.Matchups, Matchup{Player1: names[i], Player2: names[j], Summary: summary})

			standings[i].Wins += summary.Wins1
			standings[i].Losses += summary.Wins2
			standings[i].Draws += summary.Draws
			standings[j].Wins += summary.Wins2
			standings[j].Losses += summary.Wins1
			standings[j].Draws += summary.Draws

			offset := len(gameRecords)
			for _, g := range recorder.Games() {
				g.ID += offset
				gameRecords = append(gameRecords, g)
			}
			for _, m := range recorder.Moves() {
				m.Game += offset
				moveRecords = append(moveRecords, m)
			}

			log.Info().Msgf("completed matchup %d of %d: %d-%d-%d", count, pairs, summary.Wins1, summary.Wins2, summary.Draws)
		}
	}

	sort.SliceStable(standings, func(a, b int) bool {
		return standings[a].Points() > standings[b].Points()
	})
	report.Standings = standings

	if root == "" {
		return report, nil
	}
	writer, err := metrics.NewWriter(root)
	if err != nil {
		return report, err
	}
	report.Dir = writer.Dir()
	if err := writer.WritePlayers(playerRecords); err != nil {
		return report, err
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return report, err
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return report, err
	}
	log.Info().Msgf("stored records in %s", writer.Dir())
	return report, nil
}

func playMatchup(ctx context.Context, spec1, spec2 config.PlayerSpec, games int, options []arena.Option) (arena.Summary, error) {
	p1, err := spec1.Build(ctx)
	if err != nil {
		return arena.Summary{}, err
	}
	defer player.Close(p1)
	p2, err := spec2.Build(ctx)
	if err != nil {
		return arena.Summary{}, err
	}
	defer player.Close(p2)

	a, err := arena.New(p1, p2, false, options...)
	if err != nil {
		return arena.Summary{}, err
	}
	if err := a.PlayN(ctx, games); err != nil {
		return arena.Summary{}, err
	}
	return a.Summary(), nil
}
