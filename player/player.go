package player

import (
	"context"
	"fmt"

	"reversi/communication"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/searcher"
)

// Player produces a move for the side to move. The context carries the time
// budget for this move; players that overrun it may be forfeited.
type Player interface {
	Name() string
	FindMove(ctx context.Context, b game.Board) (game.Move, metrics.SearchMetric, error)
}

// Session is implemented by players that need to know where games start and
// end, such as peers on the other side of a connection.
type Session interface {
	BeginGame(ctx context.Context, start communication.GameStart) error
	EndGame(ctx context.Context, result communication.Result) error
}

type searchPlayer struct {
	name     string
	searcher searcher.Searcher
}

// NewSearchPlayer adapts a searcher to the Player interface.
func NewSearchPlayer(name string, s searcher.Searcher) Player {
	return &searchPlayer{name: name, searcher: s}
}

// NewRandomPlayer plays uniformly random legal moves; seed 0 picks a fresh seed.
func NewRandomPlayer(seed uint64) Player {
	return NewSearchPlayer("random", searcher.NewRandom(seed))
}

func (p *searchPlayer) Name() string {
	return p.name
}

func (p *searchPlayer) FindMove(ctx context.Context, b game.Board) (game.Move, metrics.SearchMetric, error) {
	if b.IsPassPending() {
		return game.Pass, metrics.SearchMetric{}, nil
	}
	result, err := p.searcher.Search(ctx, b)
	if err != nil {
		return game.Pass, metrics.SearchMetric{}, fmt.Errorf("%s: %w", p.name, err)
	}
	return result.Move, result.Metric, nil
}

// Func turns a plain function into a Player named after its label.
type Func struct {
	Label string
	Fn    func(ctx context.Context, b game.Board) (game.Move, error)
}

func (f Func) Name() string {
	return f.Label
}

func (f Func) FindMove(ctx context.Context, b game.Board) (game.Move, metrics.SearchMetric, error) {
	m, err := f.Fn(ctx, b)
	return m, metrics.SearchMetric{}, err
}

// Close releases the resources held by p, if it holds any.
func Close(p Player) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
