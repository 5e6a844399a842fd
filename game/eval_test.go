package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"reversi/meta"
)

func TestEvaluators(t *testing.T) {
	t.Run("start position is balanced", func(t *testing.T) {
		b := NewBoard()
		for _, e := range []Evaluator{PieceEvaluator{}, MobilityEvaluator{}, NewMatrixEvaluator(DefaultMatrix)} {
			require.Zero(t, e.Evaluate(&b, Black))
			require.Zero(t, e.Evaluate(&b, White))
		}
	})

	t.Run("piece count is antisymmetric", func(t *testing.T) {
		b := NewBoard()
		require.NoError(t, b.DoMove(19))

		require.Equal(t, 3, PieceEvaluator{}.Evaluate(&b, Black))
		require.Equal(t, -3, PieceEvaluator{}.Evaluate(&b, White))
	})

	t.Run("mobility compares legal move counts", func(t *testing.T) {
		b := NewBoard()
		require.NoError(t, b.DoMove(19))

		flipped := mustFlip(b)
		blackMoves := len(flipped.LegalMoves())
		whiteMoves := len(b.LegalMoves())
		require.Equal(t, whiteMoves-blackMoves, MobilityEvaluator{}.Evaluate(&b, White))
	})

	t.Run("matrix weighs corners", func(t *testing.T) {
		b, err := FromMasks(bit(0), bit(9), White)
		require.NoError(t, err)

		e := NewMatrixEvaluator(DefaultMatrix)
		require.Equal(t, 150, e.Evaluate(&b, Black))
		require.Equal(t, -150, e.Evaluate(&b, White))
	})

	t.Run("func adapter", func(t *testing.T) {
		b := NewBoard()
		e := EvaluatorFunc(func(b *Board, perspective Color) int { return int(perspective) + 1 })
		require.Equal(t, 2, e.Evaluate(&b, White))
	})
}

func TestNewEvaluator(t *testing.T) {
	for name, want := range map[string]Evaluator{"piece": PieceEvaluator{}, "mobility": MobilityEvaluator{}} {
		e, err := NewEvaluator(name)
		require.NoError(t, err)
		require.Equal(t, want, e)
	}

	e, err := NewEvaluator("Matrix")
	require.NoError(t, err)
	require.IsType(t, &MatrixEvaluator{}, e)

	_, err = NewEvaluator("oracle")
	require.ErrorIs(t, err, meta.ErrConfiguration)
}

func TestWinRate(t *testing.T) {
	require.InDelta(t, 0.5, WinRate(0, 10), 1e-9)
	require.Greater(t, WinRate(5, 10), WinRate(1, 10))
	require.Less(t, WinRate(-5, 10), 0.5)
}

// mustFlip returns b with the other side to move.
func mustFlip(b Board) Board {
	b.swap()
	return b
}
