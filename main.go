package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reversi/arena"
	"reversi/communication/client"
	"reversi/communication/server"
	"reversi/config"
	"reversi/experiments"
	"reversi/experiments/metrics"
	"reversi/logging"
	"reversi/player"
	"reversi/spectate"
)

type runOptions struct {
	mode       string
	seatLocal  bool
	goroutines []int
}

func main() {
	mode := flag.String("mode", "local", "What to run: local, server, client, experiment or throughput")
	configPath := flag.String("config", "", "YAML config file; defaults are used when empty")
	games := flag.Int("games", 0, "Games per match (overrides arena.games)")
	host := flag.String("host", "", "Server host (overrides server.host)")
	port := flag.Int("port", 0, "Server port (overrides server.port)")
	level := flag.String("log", "", "Log level (overrides log.level)")
	spectateAddr := flag.String("spectate", "", "Address of the spectator feed (overrides server.spectate)")
	csvDir := flag.String("csv", "", "Directory for CSV records (overrides arena.csv_dir)")
	seatLocal := flag.Bool("local", false, "Server mode: seat the first configured player and wait for one remote")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "games":
			cfg.Arena.Games = *games
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "log":
			cfg.Log.Level = *level
		case "spectate":
			cfg.Server.Spectate = *spectateAddr
		case "csv":
			cfg.Arena.CSVDir = *csvDir
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if _, err := logging.Setup(cfg.Log.Level, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runOptions{mode: *mode, seatLocal: *seatLocal, goroutines: []int{1, 2, 4, 8}}
	if err := run(ctx, cfg, opts); err != nil {
		log.Fatal().Err(err).Msgf("%s failed", *mode)
	}
}

// run starts the spectator feed, if configured, next to the selected mode and
// stops it once the mode is done.
func run(ctx context.Context, cfg config.Config, opts runOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var hub *spectate.Hub
	var live atomic.Pointer[arena.Arena]
	if cfg.Server.Spectate != "" {
		hub = spectate.NewHub()
		defer hub.Close()
		srv := &http.Server{
			Addr:              cfg.Server.Spectate,
			Handler:           spectate.NewHandler(hub, stats(&live)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Msgf("spectator feed on http://%s/ws", cfg.Server.Spectate)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdown)
		})
	}
	g.Go(func() error {
		defer cancel()
		switch opts.mode {
		case "local":
			return runLocal(ctx, cfg, hub, &live)
		case "server":
			return runServer(ctx, cfg, opts.seatLocal, hub, &live)
		case "client":
			return runClient(ctx, cfg)
		case "experiment":
			return runExperiment(ctx, cfg, hub)
		case "throughput":
			return runThroughput(ctx, cfg, opts.goroutines)
		}
		return fmt.Errorf("unknown mode %q", opts.mode)
	})
	return g.Wait()
}

func stats(live *atomic.Pointer[arena.Arena]) spectate.StatsFunc {
	return func() (arena.Summary, bool) {
		a := live.Load()
		if a == nil {
			return arena.Summary{}, false
		}
		return a.Summary(), true
	}
}

func arenaOptions(cfg config.Config, hub *spectate.Hub, recorder *metrics.Recorder) []arena.Option {
	options := []arena.Option{arena.WithMoveTimeout(cfg.Arena.MoveTimeout)}
	if cfg.Arena.History {
		options = append(options, arena.WithHistory())
	}
	if hub != nil {
		options = append(options, arena.WithObserver(hub.Observe))
	}
	if recorder != nil {
		options = append(options, arena.WithMetrics(recorder))
	}
	return options
}

func runLocal(ctx context.Context, cfg config.Config, hub *spectate.Hub, live *atomic.Pointer[arena.Arena]) error {
	p1, err := cfg.Players[0].Build(ctx)
	if err != nil {
		return err
	}
	defer player.Close(p1)
	p2, err := cfg.Players[1].Build(ctx)
	if err != nil {
		return err
	}
	defer player.Close(p2)

	var recorder *metrics.Recorder
	if cfg.Arena.CSVDir != "" {
		recorder = metrics.NewRecorder()
	}
	a, err := arena.New(p1, p2, cfg.Arena.Progress, arenaOptions(cfg, hub, recorder)...)
	if err != nil {
		return err
	}
	live.Store(a)
	if err := a.PlayN(ctx, cfg.Arena.Games); err != nil {
		return err
	}
	printSummary(p1.Name(), p2.Name(), a.Summary())

	if recorder == nil {
		return nil
	}
	return writeRecords(cfg.Arena.CSVDir, recorder, []metrics.PlayerRecord{
		{ID: 1, Name: p1.Name(), Kind: cfg.Players[0].Kind},
		{ID: 2, Name: p2.Name(), Kind: cfg.Players[1].Kind},
	})
}

func runServer(ctx context.Context, cfg config.Config, seatLocal bool, hub *spectate.Hub, live *atomic.Pointer[arena.Arena]) error {
	options := []server.Option{server.WithMoveTimeout(cfg.Arena.MoveTimeout)}
	if cfg.Arena.History {
		options = append(options, server.WithHistory())
	}
	if hub != nil {
		options = append(options, server.WithObserver(hub.Observe))
	}
	var recorder *metrics.Recorder
	if cfg.Arena.CSVDir != "" {
		recorder = metrics.NewRecorder()
		options = append(options, server.WithMetrics(recorder))
	}
	if seatLocal {
		p, err := cfg.Players[0].Build(ctx)
		if err != nil {
			return err
		}
		defer player.Close(p)
		options = append(options, server.WithLocalPlayer(p))
	}

	s, err := server.New(cfg.Arena.Games, cfg.Arena.Progress, options...)
	if err != nil {
		return err
	}
	if err := s.Listen(cfg.Server.Host, cfg.Server.Port); err != nil {
		return err
	}

	// The arena only exists once both seats are taken.
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if a := s.Arena(); a != nil {
					live.Store(a)
					return
				}
			}
		}
	}()
	if err := s.Serve(ctx); err != nil {
		return err
	}

	a := s.Arena()
	name1, name2 := a.Players()
	printSummary(name1, name2, a.Summary())
	if recorder == nil {
		return nil
	}
	return writeRecords(cfg.Arena.CSVDir, recorder, []metrics.PlayerRecord{
		{ID: 1, Name: name1, Kind: "remote"},
		{ID: 2, Name: name2, Kind: "remote"},
	})
}

func runClient(ctx context.Context, cfg config.Config) error {
	p, err := cfg.Players[0].Build(ctx)
	if err != nil {
		return err
	}
	defer player.Close(p)

	c := client.New(p)
	if err := c.Connect(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		return err
	}
	wins, losses, draws := c.Stats()
	fmt.Printf("%s: %d wins, %d losses, %d draws\n", p.Name(), wins, losses, draws)
	return nil
}

func runExperiment(ctx context.Context, cfg config.Config, hub *spectate.Hub) error {
	var options []arena.Option
	if hub != nil {
		options = append(options, arena.WithObserver(hub.Observe))
	}
	options = append(options, arena.WithMoveTimeout(cfg.Arena.MoveTimeout))

	fmt.Printf("Running round robin with %d players...\n", len(cfg.Players))
	report, err := experiments.RunRoundRobin(ctx, cfg.Players, cfg.Arena.Games, cfg.Arena.CSVDir, options...)
	if err != nil {
		return err
	}
	for _, m := range report.Matchups {
		printSummary(m.Player1, m.Player2, m.Summary)
	}
	fmt.Printf("Standings:\n")
	for i, s := range report.Standings {
		fmt.Printf("%2d. %-16s %5.1f  (%d-%d-%d)\n", i+1, s.Name, s.Points(), s.Wins, s.Losses, s.Draws)
	}
	if report.Dir != "" {
		fmt.Printf("Records in %s\n", report.Dir)
	}
	return nil
}

func runThroughput(ctx context.Context, cfg config.Config, goroutines []int) error {
	budget := cfg.Arena.MoveTimeout / 10
	fmt.Printf("Running throughput experiment (%v per search)...\n", budget)
	rows, records, err := experiments.RunThroughput(ctx, goroutines, 10, budget, 0)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Printf("%3d goroutines: %12.0f nodes/s %10.0f episodes/s\n", row.Goroutines, row.NodesPerSec, row.EpisodesPerSec)
	}
	if cfg.Arena.CSVDir == "" {
		return nil
	}
	w, err := metrics.NewWriter(cfg.Arena.CSVDir)
	if err != nil {
		return err
	}
	if err := w.WriteSearchRecords(records); err != nil {
		return err
	}
	fmt.Printf("Records in %s\n", w.Dir())
	return nil
}

func writeRecords(root string, recorder *metrics.Recorder, players []metrics.PlayerRecord) error {
	w, err := metrics.NewWriter(root)
	if err != nil {
		return err
	}
	if err := w.WritePlayers(players); err != nil {
		return err
	}
	if err := recorder.Flush(w); err != nil {
		return err
	}
	log.Info().Msgf("stored records in %s", w.Dir())
	return nil
}

func printSummary(name1, name2 string, s arena.Summary) {
	fmt.Printf("%s vs %s over %d games: %d-%d-%d (forfeits %d/%d, discs %d/%d)\n",
		name1, name2, s.Games, s.Wins1, s.Wins2, s.Draws, s.Forfeits1, s.Forfeits2, s.Pieces1, s.Pieces2)
	fmt.Printf("  score rate %.3f, margin %.1f ± %.1f, Elo %+.0f\n", s.ScoreRate, s.MeanMargin, s.StdMargin, s.Elo)
}
