package searcher

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/meta"
)

// AlphaBeta is a negamax search with alpha-beta pruning and iterative
// deepening. It holds no per-search state, so one value may serve several
// games at once.
type AlphaBeta struct {
	config
	maxDepth  int
	evaluator game.Evaluator
	scout     bool
}

func NewAlphaBeta(maxDepth int, evaluator game.Evaluator, options ...Option) (*AlphaBeta, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: search depth must be positive, got %d", meta.ErrConfiguration, maxDepth)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: missing evaluator", meta.ErrConfiguration)
	}
	return &AlphaBeta{
		config:    newConfig(options),
		maxDepth:  maxDepth,
		evaluator: evaluator,
	}, nil
}

// NewNegaScout returns an AlphaBeta that orders children by the evaluator and
// probes every child after the first with a null window.
func NewNegaScout(maxDepth int, evaluator game.Evaluator, options ...Option) (*AlphaBeta, error) {
	s, err := NewAlphaBeta(maxDepth, evaluator, options...)
	if err != nil {
		return nil, err
	}
	s.scout = true
	return s, nil
}

func (s *AlphaBeta) name() string {
	if s.scout {
		return "negascout"
	}
	return "alphabeta"
}

// GetMove searches b with the configured timeout only.
func (s *AlphaBeta) GetMove(b game.Board) (game.Move, error) {
	result, err := s.Search(context.Background(), b)
	return result.Move, err
}

// Search deepens from 1 to the maximum depth and returns the best move of the
// last depth that completed. Depth 1 always completes, even past the deadline.
func (s *AlphaBeta) Search(ctx context.Context, b game.Board) (Result, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return Result{}, fmt.Errorf("%w: %v to move", game.ErrNoLegalMoves, b.Turn())
	}

	ctx, cancel := s.deadline(ctx)
	defer cancel()
	collector := s.collector()
	collector.Start(s.name(), s.goroutines)

	result := Result{Move: moves[0]}
	for depth := 1; depth <= s.maxDepth; depth++ {
		var (
			move  game.Move
			score int
			ok    bool
		)
		if s.goroutines > 1 && len(moves) > 1 {
			move, score, ok = s.parallelRoot(ctx, &b, moves, depth, collector)
		} else {
			st := s.newSearch(ctx, depth > 1, collector)
			move, score, ok = st.root(&b, moves, depth)
		}
		if !ok {
			break
		}
		result.Move, result.Score, result.Depth = move, score, depth
		collector.CompleteDepth(depth, score)

		// Proven outcomes and full-length lines cannot change with more depth
		if score >= WinScore || score <= -WinScore || depth >= b.Empties() {
			break
		}
	}
	result.Metric = collector.Complete()
	return result, nil
}

// parallelRoot gives every root move its own full-window search so the result
// matches the sequential root move for move.
func (s *AlphaBeta) parallelRoot(ctx context.Context, b *game.Board, moves []game.Move, depth int, collector metrics.Collector) (game.Move, int, bool) {
	scores := make([]int, len(moves))
	var stopped atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(s.goroutines)
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			st := s.newSearch(ctx, depth > 1, collector)
			child := *b
			mustMove(&child, m)
			scores[i] = st.child(b, &child, depth-1, -inf, inf)
			if st.stopped {
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	if stopped.Load() {
		return game.Pass, 0, false
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return moves[best], scores[best], true
}

type search struct {
	ctx       context.Context
	evaluator game.Evaluator
	scout     bool
	abortable bool
	stopped   bool
	collector metrics.Collector
}

func (s *AlphaBeta) newSearch(ctx context.Context, abortable bool, collector metrics.Collector) *search {
	return &search{
		ctx:       ctx,
		evaluator: s.evaluator,
		scout:     s.scout,
		abortable: abortable,
		collector: collector,
	}
}

func (st *search) expired() bool {
	select {
	case <-st.ctx.Done():
		return true
	default:
		return false
	}
}

// root keeps the first move with the strictly highest score.
func (st *search) root(b *game.Board, moves []game.Move, depth int) (game.Move, int, bool) {
	best, bestScore := moves[0], -inf
	alpha := -inf
	for _, m := range moves {
		child := *b
		mustMove(&child, m)
		score := st.child(b, &child, depth-1, alpha, inf)
		if st.stopped {
			return best, bestScore, false
		}
		if score > bestScore {
			best, bestScore = m, score
		}
		if score > alpha {
			alpha = score
		}
	}
	return best, bestScore, true
}

// child scores child from the point of view of parent's side to move. After an
// automatic pass the same side moves again and the window is not negated.
func (st *search) child(parent, child *game.Board, depth, alpha, beta int) int {
	if child.Turn() == parent.Turn() {
		return st.negamax(child, depth, alpha, beta)
	}
	return -st.negamax(child, depth, -beta, -alpha)
}

func (st *search) negamax(b *game.Board, depth, alpha, beta int) int {
	st.collector.AddNode()
	if st.abortable && st.expired() {
		st.stopped = true
		return 0
	}
	if b.IsGameOver() {
		return terminalScore(b)
	}
	if depth == 0 {
		return st.evaluator.Evaluate(b, b.Turn())
	}

	moves := b.LegalMoves()
	if len(moves) == 0 { // Pending pass on a parsed board; costs no depth
		child := *b
		mustMove(&child, game.Pass)
		return -st.negamax(&child, depth, -beta, -alpha)
	}

	if st.scout {
		return st.negascout(b, st.ordered(b, moves), depth, alpha, beta)
	}

	best := -inf
	for _, m := range moves {
		child := *b
		mustMove(&child, m)
		score := st.child(b, &child, depth-1, alpha, beta)
		if st.stopped {
			return 0
		}
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func (st *search) negascout(b *game.Board, children []game.Board, depth, alpha, beta int) int {
	best := -inf
	for i := range children {
		child := &children[i]
		var score int
		if i == 0 {
			score = st.child(b, child, depth-1, alpha, beta)
		} else {
			score = st.child(b, child, depth-1, alpha, alpha+1)
			if !st.stopped && score > alpha && score < beta {
				score = st.child(b, child, depth-1, alpha, beta)
			}
		}
		if st.stopped {
			return 0
		}
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// ordered plays every move and sorts the children best first for the side to
// move in b. Equal keys keep generation order.
func (st *search) ordered(b *game.Board, moves []game.Move) []game.Board {
	children := make([]game.Board, len(moves))
	keys := make([]int, len(moves))
	for i, m := range moves {
		children[i] = *b
		mustMove(&children[i], m)
		if children[i].IsGameOver() {
			keys[i] = terminalScoreFor(&children[i], b.Turn())
		} else {
			keys[i] = st.evaluator.Evaluate(&children[i], b.Turn())
		}
	}
	idx := make([]int, len(moves))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool { return keys[idx[x]] > keys[idx[y]] })

	sorted := make([]game.Board, len(moves))
	for i, j := range idx {
		sorted[i] = children[j]
	}
	return sorted
}

func terminalScore(b *game.Board) int {
	return terminalScoreFor(b, b.Turn())
}

func terminalScoreFor(b *game.Board, perspective game.Color) int {
	diff := b.Discs(perspective) - b.Discs(perspective.Opponent())
	switch {
	case diff > 0:
		return WinScore + diff
	case diff < 0:
		return -WinScore + diff
	}
	return 0
}

// mustMove applies a move taken from b's own legal set.
func mustMove(b *game.Board, m game.Move) {
	if err := b.DoMove(m); err != nil {
		panic(fmt.Sprintf("generated move rejected: %v", err))
	}
}
