// Command agent is a reference reversi/1 agent that talks to the arena over
// stdin and stdout. Logs go to stderr so they never mix with the protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"

	"reversi/communication/client"
	"reversi/game"
	"reversi/logging"
	"reversi/meta"
	"reversi/player"
	"reversi/searcher"
)

type stdio struct {
	io.Reader
	io.Writer
}

func main() {
	strategy := flag.String("strategy", "matrix", "Move strategy: random, slow, piece or matrix")
	name := flag.String("name", "", "Name sent in the handshake (defaults to the strategy)")
	delay := flag.Duration("delay", 10*time.Second, "How long the slow strategy stalls before moving")
	depth := flag.Int("depth", meta.DefaultDepth, "Search depth for piece and matrix")
	seed := flag.Uint64("seed", 0, "Random seed; 0 picks one")
	level := flag.String("log", "warn", "Log level")
	flag.Parse()

	if _, err := logging.Setup(*level, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	p, err := newPlayer(*strategy, *name, *delay, *depth, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := client.Serve(ctx, stdio{os.Stdin, os.Stdout}, p)
	if err != nil {
		log.Fatal().Err(err).Msg("session failed")
	}
	log.Info().Msgf("%s finished: %d wins, %d losses, %d draws", p.Name(), summary.Wins, summary.Losses, summary.Draws)
}

func newPlayer(strategy, name string, delay time.Duration, depth int, seed uint64) (player.Player, error) {
	if name == "" {
		name = strategy
	}
	switch strategy {
	case "random":
		return player.NewSearchPlayer(name, searcher.NewRandom(seed)), nil
	case "slow":
		random := searcher.NewRandom(seed)
		return player.Func{Label: name, Fn: func(ctx context.Context, b game.Board) (game.Move, error) {
			// Ignores ctx on purpose to overrun the clock.
			time.Sleep(delay)
			result, err := random.Search(ctx, b)
			return result.Move, err
		}}, nil
	case "piece", "matrix":
		evaluator, err := game.NewEvaluator(strategy)
		if err != nil {
			return nil, err
		}
		s, err := searcher.NewAlphaBeta(depth, evaluator)
		if err != nil {
			return nil, err
		}
		return player.NewSearchPlayer(name, s), nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", meta.ErrConfiguration, strategy)
}
