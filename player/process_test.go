package player_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reversi/communication"
	"reversi/communication/client"
	"reversi/game"
	"reversi/meta"
	"reversi/player"
)

const helperEnv = "REVERSI_HELPER_PROCESS"

// TestHelperProcess is not a real test: it is the agent binary that the
// process tests spawn.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	stdio := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	if _, err := client.Serve(context.Background(), stdio, player.NewRandomPlayer(7)); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func helperCommand() []string {
	return []string{os.Args[0], "-test.run=^TestHelperProcess$"}
}

func TestProcessPlaysAGame(t *testing.T) {
	t.Setenv(helperEnv, "1")

	ctx := context.Background()
	p, err := player.NewProcess(ctx, "helper", helperCommand())
	require.NoError(t, err)
	require.Equal(t, "helper", p.Name())
	require.Equal(t, "random", p.Peer())

	require.NoError(t, p.BeginGame(ctx, communication.GameStart{Index: 1, Color: game.Black}))
	b := game.NewBoard()
	for !b.IsGameOver() {
		mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		move, _, err := p.FindMove(mctx, b)
		cancel()
		require.NoError(t, err)
		require.NoError(t, b.DoMove(move))
	}
	require.NoError(t, p.EndGame(ctx, communication.Result{Index: 1, Outcome: communication.OutcomeDraw, Own: 32, Opp: 32}))
	require.NoError(t, p.Close())
}

func TestProcessStartFailures(t *testing.T) {
	_, err := player.NewProcess(context.Background(), "nobody", nil)
	require.ErrorIs(t, err, meta.ErrConfiguration)

	_, err = player.NewProcess(context.Background(), "missing", []string{"/nonexistent/reversi-agent"})
	require.ErrorIs(t, err, communication.ErrConnection)
}
