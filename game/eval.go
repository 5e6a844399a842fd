package game

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"reversi/meta"
)

// Evaluator scores a position from perspective's point of view; higher is
// better for perspective. Implementations hold no mutable state so one value
// can serve several searches at once.
type Evaluator interface {
	Evaluate(b *Board, perspective Color) int
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(b *Board, perspective Color) int

func (f EvaluatorFunc) Evaluate(b *Board, perspective Color) int {
	return f(b, perspective)
}

// PieceEvaluator counts own discs minus opponent discs.
type PieceEvaluator struct{}

func (PieceEvaluator) Evaluate(b *Board, perspective Color) int {
	mine, theirs := b.masksFor(perspective)
	return bits.OnesCount64(mine) - bits.OnesCount64(theirs)
}

// MobilityEvaluator counts own legal moves minus opponent legal moves.
type MobilityEvaluator struct{}

func (MobilityEvaluator) Evaluate(b *Board, perspective Color) int {
	mine, theirs := b.masksFor(perspective)
	return bits.OnesCount64(legalMask(mine, theirs)) - bits.OnesCount64(legalMask(theirs, mine))
}

// DefaultMatrix weighs corners up and the squares handing corners away down.
var DefaultMatrix = [Size][Size]int{
	{100, -20, 10, 5, 5, 10, -20, 100},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{10, -2, -1, -1, -1, -1, -2, 10},
	{5, -2, -1, -1, -1, -1, -2, 5},
	{5, -2, -1, -1, -1, -1, -2, 5},
	{10, -2, -1, -1, -1, -1, -2, 10},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{100, -20, 10, 5, 5, 10, -20, 100},
}

// MatrixEvaluator sums a per-square weight over own discs and subtracts it
// over opponent discs.
type MatrixEvaluator struct {
	weights [NumSquares]int
}

func NewMatrixEvaluator(matrix [Size][Size]int) *MatrixEvaluator {
	e := &MatrixEvaluator{}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			e.weights[SquareAt(row, col)] = matrix[row][col]
		}
	}
	return e
}

func (e *MatrixEvaluator) Evaluate(b *Board, perspective Color) int {
	mine, theirs := b.masksFor(perspective)
	score := 0
	for _, sq := range squares(mine) {
		score += e.weights[sq]
	}
	for _, sq := range squares(theirs) {
		score -= e.weights[sq]
	}
	return score
}

// NewEvaluator resolves the built-in evaluators by name.
func NewEvaluator(name string) (Evaluator, error) {
	switch strings.ToLower(name) {
	case "piece", "":
		return PieceEvaluator{}, nil
	case "matrix":
		return NewMatrixEvaluator(DefaultMatrix), nil
	case "mobility":
		return MobilityEvaluator{}, nil
	}
	return nil, fmt.Errorf("%w: unknown evaluator %q", meta.ErrConfiguration, name)
}

// WinRate squashes an evaluator score into an estimated chance of winning in
// [0, 1]. scale is the score at which the estimate reaches about 73%.
func WinRate(score int, scale float64) float64 {
	return 1 / (1 + math.Exp(-float64(score)/scale))
}
