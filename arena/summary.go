package arena

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxElo caps the rating gap reported for a clean sweep.
const maxElo = 800

// Summary describes a run from player 1's point of view.
type Summary struct {
	Games      int
	Wins1      int
	Wins2      int
	Draws      int
	Forfeits1  int
	Forfeits2  int
	Pieces1    int
	Pieces2    int
	ScoreRate  float64 // Points per game, a draw counting half
	MeanMargin float64 // Disc margin per game
	StdMargin  float64
	Elo        float64 // Rating difference implied by ScoreRate
}

func (a *Arena) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Games:     a.played,
		Wins1:     a.wins[0],
		Wins2:     a.wins[1],
		Draws:     a.draws,
		Forfeits1: a.forfeits[0],
		Forfeits2: a.forfeits[1],
		Pieces1:   a.pieces[0],
		Pieces2:   a.pieces[1],
	}
	if s.Games == 0 {
		return s
	}

	s.ScoreRate = floats.Sum(a.points) / float64(len(a.points))
	if len(a.margins) > 1 {
		s.MeanMargin, s.StdMargin = stat.MeanStdDev(a.margins, nil)
	} else {
		s.MeanMargin = stat.Mean(a.margins, nil)
	}
	s.Elo = elo(s.ScoreRate)
	return s
}

func elo(score float64) float64 {
	switch {
	case score <= 0:
		return -maxElo
	case score >= 1:
		return maxElo
	}
	return math.Max(-maxElo, math.Min(maxElo, -400*math.Log10(1/score-1)))
}
