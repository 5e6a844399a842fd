package searcher

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"lukechampine.com/frand"

	"reversi/experiments/metrics"
	"reversi/game"
)

// Random picks uniformly among the legal moves with its own generator, so two
// Random values never influence each other and a fixed seed replays exactly.
type Random struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed uint64
}

// NewRandom seeds a generator; seed 0 draws one from the system.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = newSeed()
	}
	return &Random{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

func newSeed() uint64 {
	return frand.Uint64n(math.MaxUint64) + 1
}

func (r *Random) Seed() uint64 {
	return r.seed
}

func (r *Random) Search(_ context.Context, b game.Board) (Result, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return Result{}, fmt.Errorf("%w: %v to move", game.ErrNoLegalMoves, b.Turn())
	}

	r.mu.Lock()
	m := moves[r.rng.Intn(len(moves))]
	r.mu.Unlock()

	return Result{Move: m, Metric: metrics.SearchMetric{Searcher: "random"}}, nil
}
