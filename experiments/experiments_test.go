package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reversi/config"
	"reversi/meta"
)

func TestRunRoundRobin(t *testing.T) {
	specs := []config.PlayerSpec{
		{Kind: config.KindRandom, Seed: 1},
		{Name: "greedy", Kind: config.KindAlphaBeta, Depth: 1},
		{Name: "matrix", Kind: config.KindAlphaBeta, Depth: 2, Evaluator: "matrix"},
	}
	root := t.TempDir()

	report, err := RunRoundRobin(context.Background(), specs, 2, root)
	require.NoError(t, err)
	require.Empty(t, specs[0].Name, "caller's specs are left alone")

	require.Len(t, report.Matchups, 3)
	require.Equal(t, "random-1", report.Matchups[0].Player1)
	require.Len(t, report.Standings, 3)
	for _, s := range report.Standings {
		require.Equal(t, 4, s.Wins+s.Losses+s.Draws, s.Name)
	}
	for i := 1; i < len(report.Standings); i++ {
		require.GreaterOrEqual(t, report.Standings[i-1].Points(), report.Standings[i].Points())
	}

	f, err := os.Open(filepath.Join(report.Dir, "game_records.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		require.False(t, seen[row[0]], "game ids are unique across matchups")
		seen[row[0]] = true
	}

	_, err = os.Stat(filepath.Join(report.Dir, "players.csv"))
	require.NoError(t, err)
}

func TestRunRoundRobinValidates(t *testing.T) {
	one := []config.PlayerSpec{{Kind: config.KindRandom}}
	_, err := RunRoundRobin(context.Background(), one, 2, "")
	require.ErrorIs(t, err, meta.ErrConfiguration)

	two := append(one, config.PlayerSpec{Kind: config.KindRandom})
	_, err = RunRoundRobin(context.Background(), two, 3, "")
	require.ErrorIs(t, err, meta.ErrConfiguration)

	bad := append(one, config.PlayerSpec{Kind: config.KindAlphaBeta})
	_, err = RunRoundRobin(context.Background(), bad, 2, "")
	require.ErrorIs(t, err, meta.ErrConfiguration)
}

func TestRunThroughput(t *testing.T) {
	rows, records, err := RunThroughput(context.Background(), []int{1, 2}, 2, 20*time.Millisecond, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, records, 2*2*2)
	for _, row := range rows {
		require.Greater(t, row.NodesPerSec, 0.0)
		require.Greater(t, row.EpisodesPerSec, 0.0)
	}
	require.Equal(t, 2, records[len(records)-1].Config)

	_, _, err = RunThroughput(context.Background(), nil, 2, time.Millisecond, 3)
	require.ErrorIs(t, err, meta.ErrConfiguration)
}
