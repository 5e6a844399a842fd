package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reversi/communication"
	"reversi/engine"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/meta"
	"reversi/player"
)

type Option func(a *Arena)

// WithMoveTimeout sets the per-move deadline handed to players; see
// engine.WithMoveTimeout for how late answers are treated.
func WithMoveTimeout(d time.Duration) Option {
	return func(a *Arena) {
		a.moveTimeout = d
	}
}

// WithHistory keeps every game record for Records.
func WithHistory() Option {
	return func(a *Arena) {
		a.history = true
	}
}

func WithObserver(o engine.Observer) Option {
	return func(a *Arena) {
		a.observers = append(a.observers, o)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}

// WithMetrics adds every game and its move metrics to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *Arena) {
		a.recorder = r
	}
}

// Arena plays games between two players one after another, swapping colors
// every game, and keeps the running tally.
type Arena struct {
	players      [2]player.Player
	showProgress bool
	moveTimeout  time.Duration
	history      bool
	observers    []engine.Observer
	logger       zerolog.Logger
	recorder     *metrics.Recorder

	mu       sync.Mutex
	played   int
	wins     [2]int
	draws    int
	pieces   [2]int
	forfeits [2]int
	margins  []float64 // Player 1 discs minus player 2 discs, per game
	points   []float64 // Player 1 score per game: 1, 0.5 or 0
	records  []engine.Record
	gone     [2]error // Set once a seat's connection is lost
}

func New(p1, p2 player.Player, showProgress bool, options ...Option) (*Arena, error) {
	if p1 == nil || p2 == nil {
		return nil, fmt.Errorf("%w: an arena needs two players", meta.ErrConfiguration)
	}
	a := &Arena{
		players:      [2]player.Player{p1, p2},
		showProgress: showProgress,
		moveTimeout:  meta.DefaultMoveTimeout,
		logger:       log.Logger,
	}
	for _, option := range options {
		option(a)
	}
	return a, nil
}

// PlayN plays n more games. n must be positive and even so that both players
// get the first move equally often. Forfeits are folded into the stats; only
// cancellation of ctx stops the run early.
func (a *Arena) PlayN(ctx context.Context, n int) error {
	if n <= 0 || n%2 != 0 {
		return fmt.Errorf("%w: game count must be positive and even, got %d", meta.ErrConfiguration, n)
	}
	for i := 0; i < n; i++ {
		if err := a.playOne(ctx, i+1, n); err != nil {
			return err
		}
	}
	return nil
}

// playOne plays the next game of the arena's lifetime. Player 1 takes black
// in even-numbered games.
func (a *Arena) playOne(ctx context.Context, i, n int) error {
	a.mu.Lock()
	k := a.played
	a.mu.Unlock()

	index := k + 1
	seats := [2]int{0, 1} // seats[color] is the player index
	if k%2 != 0 {
		seats = [2]int{1, 0}
	}
	black, white := a.players[seats[game.Black]], a.players[seats[game.White]]

	record, moves, err := a.run(ctx, index, seats)
	if err != nil {
		return err
	}

	a.fold(record, seats, moves)
	a.notifyEnd(ctx, record, seats)

	if a.showProgress {
		a.logger.Info().Int("game", index).Msgf("game %d/%d: %s (black) vs %s (white): %s", i, n, black.Name(), white.Name(), describe(record))
	}
	return nil
}

func (a *Arena) run(ctx context.Context, index int, seats [2]int) (engine.Record, []metrics.MoveMetric, error) {
	black, white := a.players[seats[game.Black]], a.players[seats[game.White]]

	for _, c := range []game.Color{game.Black, game.White} {
		seat := seats[c]
		if err := a.lost(seat); err != nil {
			return engine.Forfeited(index, black.Name(), white.Name(), c, err), nil, nil
		}
		if s, ok := a.players[seat].(player.Session); ok {
			if err := s.BeginGame(ctx, communication.GameStart{Index: index, Color: c}); err != nil {
				a.markLost(seat, err)
				return engine.Forfeited(index, black.Name(), white.Name(), c, err), nil, nil
			}
		}
	}

	options := []engine.Option{engine.WithMoveTimeout(a.moveTimeout), engine.WithLogger(a.logger)}
	for _, o := range a.observers {
		options = append(options, engine.WithObserver(o))
	}
	record, moves, err := engine.New(index, black, white, options...).Run(ctx)
	if err != nil {
		return record, moves, err
	}
	if record.Forfeit && player.IsFatal(record.Cause) {
		a.markLost(seats[record.Offender], record.Cause)
	}
	return record, moves, nil
}

func (a *Arena) lost(seat int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gone[seat]
}

func (a *Arena) markLost(seat int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gone[seat] == nil {
		a.gone[seat] = fmt.Errorf("%s disconnected: %w", a.players[seat].Name(), err)
	}
}

func (a *Arena) fold(record engine.Record, seats [2]int, moves []metrics.MoveMetric) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.played++
	var discs [2]int
	for _, c := range []game.Color{game.Black, game.White} {
		discs[seats[c]] = record.Discs(c)
		a.pieces[seats[c]] += record.Discs(c)
	}
	winner := 0
	switch {
	case record.Draw:
		a.draws++
		a.points = append(a.points, 0.5)
	default:
		seat := seats[record.Winner]
		winner = seat + 1
		a.wins[seat]++
		a.points = append(a.points, float64(1-seat))
	}
	if record.Forfeit {
		a.forfeits[seats[record.Offender]]++
	}
	a.margins = append(a.margins, float64(discs[0]-discs[1]))
	if a.history {
		a.records = append(a.records, record)
	}

	if a.recorder != nil {
		for i := range moves {
			c, _ := game.ParseColor(moves[i].Color)
			moves[i].Player = seats[c] + 1
		}
		a.recorder.Add(metrics.GameRecord{
			ID:      record.Index,
			Player1: a.players[0].Name(),
			Player2: a.players[1].Name(),
			GameMetric: metrics.GameMetric{
				StartingPlayer: seats[game.Black] + 1,
				Winner:         winner,
				Forfeit:        record.Forfeit,
				Reason:         record.Reason,
				Discs1:         discs[0],
				Discs2:         discs[1],
				StartTime:      record.StartTime,
				EndTime:        record.EndTime,
				Duration:       record.EndTime.Sub(record.StartTime),
				TotalMoves:     record.Plies,
			},
		}, moves)
	}
}

// notifyEnd sends each session player its result. A seat that fails to take
// it is treated as gone.
func (a *Arena) notifyEnd(ctx context.Context, record engine.Record, seats [2]int) {
	for _, c := range []game.Color{game.Black, game.White} {
		seat := seats[c]
		s, ok := a.players[seat].(player.Session)
		if !ok || a.lost(seat) != nil {
			continue
		}
		if err := s.EndGame(ctx, ResultFor(record, c)); err != nil {
			a.markLost(seat, err)
		}
	}
}

// ResultFor is the game result as seen by the side playing c.
func ResultFor(record engine.Record, c game.Color) communication.Result {
	result := communication.Result{
		Index:   record.Index,
		Own:     record.Discs(c),
		Opp:     record.Discs(c.Opponent()),
		Forfeit: record.Forfeit,
	}
	switch {
	case record.Draw:
		result.Outcome = communication.OutcomeDraw
	case record.Winner == c:
		result.Outcome = communication.OutcomeWin
	default:
		result.Outcome = communication.OutcomeLoss
	}
	return result
}

func describe(record engine.Record) string {
	switch {
	case record.Forfeit:
		return fmt.Sprintf("%s forfeits (%s)", record.Offender, record.Reason)
	case record.Draw:
		return fmt.Sprintf("draw %d-%d", record.BlackDiscs, record.WhiteDiscs)
	}
	return fmt.Sprintf("%s wins %d-%d", record.Winner, record.BlackDiscs, record.WhiteDiscs)
}

// Stats returns wins for player 1, wins for player 2 and draws over the
// arena's lifetime.
func (a *Arena) Stats() (wins1, wins2, draws int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wins[0], a.wins[1], a.draws
}

// Pieces returns the total final discs of each player over all games.
func (a *Arena) Pieces() (p1, p2 int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pieces[0], a.pieces[1]
}

func (a *Arena) Forfeits() (p1, p2 int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forfeits[0], a.forfeits[1]
}

// Records returns the kept game records; empty unless WithHistory was given.
func (a *Arena) Records() []engine.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]engine.Record(nil), a.records...)
}

// Players returns the names of player 1 and player 2.
func (a *Arena) Players() (string, string) {
	return a.players[0].Name(), a.players[1].Name()
}
