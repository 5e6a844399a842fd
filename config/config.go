package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"reversi/game"
	"reversi/meta"
	"reversi/player"
	"reversi/searcher"
)

// Player kinds.
const (
	KindAlphaBeta = "alphabeta"
	KindNegaScout = "negascout"
	KindMCTS      = "mcts"
	KindRandom    = "random"
	KindProcess   = "process"
)

type Config struct {
	Arena   ArenaConfig  `yaml:"arena"`
	Players []PlayerSpec `yaml:"players"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
}

type ArenaConfig struct {
	Games       int           `yaml:"games"`
	MoveTimeout time.Duration `yaml:"move_timeout"`
	History     bool          `yaml:"history"`
	Progress    bool          `yaml:"progress"`
	CSVDir      string        `yaml:"csv_dir"` // Empty disables the CSV report
}

// PlayerSpec describes how to build one player.
type PlayerSpec struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	Depth      int           `yaml:"depth"`
	Evaluator  string        `yaml:"evaluator"`
	Timeout    time.Duration `yaml:"timeout"`
	Goroutines int           `yaml:"goroutines"`
	Episodes   int           `yaml:"episodes"`
	Cutoff     int           `yaml:"cutoff"`
	Seed       uint64        `yaml:"seed"`
	Command    []string      `yaml:"command"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Spectate string `yaml:"spectate"` // Address of the spectator HTTP feed; empty disables it
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Arena: ArenaConfig{
			Games:       meta.DefaultGames,
			MoveTimeout: meta.DefaultMoveTimeout,
			Progress:    true,
		},
		Players: []PlayerSpec{
			{Name: "alphabeta", Kind: KindAlphaBeta, Depth: meta.DefaultDepth, Evaluator: "matrix"},
			{Name: "random", Kind: KindRandom},
		},
		Server: ServerConfig{Host: meta.DefaultHost, Port: meta.DefaultPort},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", meta.ErrConfiguration, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults; unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", meta.ErrConfiguration, err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Arena.Games <= 0 || c.Arena.Games%2 != 0 {
		return fmt.Errorf("%w: arena.games must be positive and even, got %d", meta.ErrConfiguration, c.Arena.Games)
	}
	if c.Arena.MoveTimeout < 0 {
		return fmt.Errorf("%w: arena.move_timeout is negative", meta.ErrConfiguration)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", meta.ErrConfiguration, c.Server.Port)
	}
	if len(c.Players) < 2 {
		return fmt.Errorf("%w: need at least two players, got %d", meta.ErrConfiguration, len(c.Players))
	}
	for i, p := range c.Players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("players[%d]: %w", i, err)
		}
	}
	return nil
}

func (p PlayerSpec) Validate() error {
	switch p.Kind {
	case KindAlphaBeta, KindNegaScout:
		if p.Depth <= 0 {
			return fmt.Errorf("%w: %s needs a positive depth", meta.ErrConfiguration, p.Kind)
		}
		if _, err := game.NewEvaluator(p.Evaluator); err != nil {
			return err
		}
	case KindMCTS:
		if p.Episodes <= 0 && p.Timeout <= 0 {
			return fmt.Errorf("%w: mcts needs episodes or a timeout", meta.ErrConfiguration)
		}
		if _, err := game.NewEvaluator(p.Evaluator); err != nil {
			return err
		}
	case KindRandom:
	case KindProcess:
		if len(p.Command) == 0 {
			return fmt.Errorf("%w: process player needs a command", meta.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown player kind %q", meta.ErrConfiguration, p.Kind)
	}
	if p.Goroutines < 0 || p.Timeout < 0 {
		return fmt.Errorf("%w: negative goroutines or timeout", meta.ErrConfiguration)
	}
	return nil
}

func (p PlayerSpec) name() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Kind
}

func (p PlayerSpec) options() []searcher.Option {
	var options []searcher.Option
	if p.Timeout > 0 {
		options = append(options, searcher.WithTimeout(p.Timeout))
	}
	if p.Goroutines > 0 {
		options = append(options, searcher.WithGoroutines(p.Goroutines))
	}
	if p.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(p.Episodes))
	}
	if p.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(p.Cutoff))
	}
	if p.Seed != 0 {
		options = append(options, searcher.WithSeed(p.Seed))
	}
	return append(options, searcher.WithMetrics())
}

// Build creates the player. Process players are started and handshaken here;
// close them with player.Close.
func (p PlayerSpec) Build(ctx context.Context) (player.Player, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Kind {
	case KindRandom:
		return player.NewSearchPlayer(p.name(), searcher.NewRandom(p.Seed)), nil
	case KindProcess:
		return player.NewProcess(ctx, p.name(), p.Command)
	}

	evaluator, err := game.NewEvaluator(p.Evaluator)
	if err != nil {
		return nil, err
	}
	var s searcher.Searcher
	switch p.Kind {
	case KindAlphaBeta:
		s, err = searcher.NewAlphaBeta(p.Depth, evaluator, p.options()...)
	case KindNegaScout:
		s, err = searcher.NewNegaScout(p.Depth, evaluator, p.options()...)
	case KindMCTS:
		s, err = searcher.NewMCTS(append(p.options(), searcher.WithRolloutEvaluator(evaluator, 8))...)
	}
	if err != nil {
		return nil, err
	}
	return player.NewSearchPlayer(p.name(), s), nil
}
