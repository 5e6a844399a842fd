package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/player"
)

// Engine plays one game between two players from the starting position.
type Engine struct {
	index       int
	players     [2]player.Player // Indexed by game.Color
	moveTimeout time.Duration
	observers   []Observer
	logger      zerolog.Logger
}

func New(index int, black, white player.Player, options ...Option) *Engine {
	e := &Engine{
		index:   index,
		players: [2]player.Player{black, white},
		logger:  log.Logger,
	}
	for _, option := range append(defaultOptions(), options...) {
		option(e)
	}
	return e
}

// Run plays the game to its end. A player error or an illegal move forfeits
// the game for that player and is reported on the record, not as an error;
// only cancellation of ctx aborts the game.
func (e *Engine) Run(ctx context.Context) (Record, []metrics.MoveMetric, error) {
	board := game.NewBoard()
	record := Record{
		Index:     e.index,
		Black:     e.players[game.Black].Name(),
		White:     e.players[game.White].Name(),
		StartTime: time.Now(),
	}
	logger := e.logger.With().Int("game", e.index).Logger()
	var moveMetrics []metrics.MoveMetric

	for !board.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return record, moveMetrics, err
		}

		mover := board.Turn()
		p := e.players[mover]
		move, searchMetric, err := e.findMove(ctx, p, board)
		if ctx.Err() != nil {
			return record, moveMetrics, ctx.Err()
		}
		if err != nil {
			e.forfeit(&record, &board, mover, err)
			logger.Warn().Err(err).Str("player", p.Name()).Msgf("%s forfeits", mover)
			break
		}
		if err := board.DoMove(move); err != nil {
			e.forfeit(&record, &board, mover, err)
			logger.Warn().Err(err).Str("player", p.Name()).Msgf("%s forfeits", mover)
			break
		}

		record.Plies++
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         record.Plies,
			Color:        mover.String(),
			Move:         move.String(),
			SearchMetric: searchMetric,
		})
		logger.Debug().Int("ply", record.Plies).Str("player", p.Name()).Stringer("move", move).Msg("played")
		e.notify(Update{Game: e.index, Ply: record.Plies, Color: mover, Move: move, Board: board})
	}

	if !record.Forfeit {
		record.BlackDiscs, record.WhiteDiscs = board.Discs(game.Black), board.Discs(game.White)
		winner, ok := board.Winner()
		record.Winner, record.Draw = winner, !ok
	}
	record.EndTime = time.Now()
	e.notify(Update{Game: e.index, Ply: record.Plies, Board: board, Record: &record})
	return record, moveMetrics, nil
}

func (e *Engine) findMove(ctx context.Context, p player.Player, b game.Board) (game.Move, metrics.SearchMetric, error) {
	if e.moveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.moveTimeout)
		defer cancel()
	}
	move, metric, err := p.FindMove(ctx, b)
	if err != nil {
		return move, metric, fmt.Errorf("%s: %w", p.Name(), err)
	}
	return move, metric, nil
}

// forfeit hands the game to the opponent of offender; discs are counted as they stand.
func (e *Engine) forfeit(record *Record, b *game.Board, offender game.Color, cause error) {
	record.Forfeit = true
	record.Offender = offender
	record.Reason = cause.Error()
	record.Cause = cause
	record.Winner = offender.Opponent()
	record.BlackDiscs, record.WhiteDiscs = b.Discs(game.Black), b.Discs(game.White)
}

func (e *Engine) notify(u Update) {
	for _, o := range e.observers {
		o(u)
	}
}
