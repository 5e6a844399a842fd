package engine

import (
	"time"

	"github.com/rs/zerolog"

	"reversi/game"
	"reversi/meta"
)

// Record is the outcome of one game. Black always moves first; which arena
// player sat on which side is given by the names.
type Record struct {
	Index      int
	Black      string
	White      string
	BlackDiscs int
	WhiteDiscs int
	Winner     game.Color // Meaningless when Draw is set
	Draw       bool
	Forfeit    bool
	Offender   game.Color // Side that forfeited, when Forfeit is set
	Reason     string
	Cause      error
	Plies      int
	StartTime  time.Time
	EndTime    time.Time
}

// Discs returns the final disc count of c.
func (r Record) Discs(c game.Color) int {
	if c == game.Black {
		return r.BlackDiscs
	}
	return r.WhiteDiscs
}

// Forfeited records a game that offender lost without a move being played,
// e.g. because its connection was already gone.
func Forfeited(index int, black, white string, offender game.Color, cause error) Record {
	start := game.NewBoard()
	now := time.Now()
	return Record{
		Index:      index,
		Black:      black,
		White:      white,
		BlackDiscs: start.Discs(game.Black),
		WhiteDiscs: start.Discs(game.White),
		Winner:     offender.Opponent(),
		Forfeit:    true,
		Offender:   offender,
		Reason:     cause.Error(),
		Cause:      cause,
		StartTime:  now,
		EndTime:    now,
	}
}

// Update is sent to observers after every applied move and once more when the
// game ends, with Record set.
type Update struct {
	Game   int
	Ply    int
	Color  game.Color
	Move   game.Move
	Board  game.Board
	Record *Record
}

type Observer func(u Update)

type Option func(e *Engine)

// WithMoveTimeout bounds every move request; zero means unbounded. The bound
// reaches players only through ctx: remote players forfeit when it expires,
// in-process players are expected to honour ctx and a late answer is accepted.
func WithMoveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.moveTimeout = d
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func defaultOptions() []Option {
	return []Option{WithMoveTimeout(meta.DefaultMoveTimeout)}
}
