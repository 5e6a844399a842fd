package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start("alphabeta", 2)
	c.AddNode()
	c.AddNode()
	c.AddEpisode()
	c.CompleteDepth(3, 12)

	got := c.Complete()
	require.Equal(t, "alphabeta", got.Searcher)
	require.Equal(t, 2, got.Goroutines)
	require.Equal(t, 2, got.Nodes)
	require.Equal(t, 1, got.Episodes)
	require.Equal(t, 3, got.Depth)
	require.Equal(t, 12, got.Score)
}

func TestDummyCollector(t *testing.T) {
	c := NewDummyCollector()
	c.Start("mcts", 8)
	c.AddNode()
	require.Equal(t, SearchMetric{}, c.Complete())
}

func TestRecorderFlush(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	r := NewRecorder()
	now := time.Now()
	r.Add(GameRecord{ID: 1, Player1: "a", Player2: "b", GameMetric: GameMetric{StartingPlayer: 1, Winner: 2, StartTime: now, EndTime: now}},
		[]MoveMetric{{Step: 1, Player: 1, Color: "black", Move: "d3"}, {Step: 2, Player: 2, Color: "white", Move: "c3"}})

	require.Len(t, r.Games(), 1)
	require.Len(t, r.Moves(), 2)
	require.NoError(t, r.Flush(w))

	games := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
	require.Len(t, games, 2)
	require.Equal(t, []string{"1", "a", "b", "1", "2"}, games[1][:5])

	moves := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
	require.Len(t, moves, 3)
	require.Equal(t, "c3", moves[2][4])
}

func TestWriteSearchRecords(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.WriteSearchRecords([]SearchRecord{
		{Config: 1, SearchMetric: SearchMetric{Searcher: "alphabeta", Goroutines: 2, Depth: 5, Nodes: 1200}},
		{Config: 1, SearchMetric: SearchMetric{Searcher: "mcts", Goroutines: 2, Episodes: 300}},
	}))

	rows := readCSV(t, filepath.Join(w.Dir(), "search_records.csv"))
	require.Len(t, rows, 3)
	require.Equal(t, "config", rows[0][0])
	require.Equal(t, []string{"1", "alphabeta", "2"}, rows[1][:3])
	require.Equal(t, "1200", rows[1][5])
	require.Equal(t, "300", rows[2][6])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
