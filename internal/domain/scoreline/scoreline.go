// Package scoreline computes the exact joint distribution of final scores
// over a bounded grid, assuming both sides score independently.
//
// The grid covers 0 ≤ home, away < maxGoals. Mass outside it is not
// redistributed; Coverage reports how much of the distribution the grid holds.
package scoreline

import (
	"fmt"
	"math"

	"github.com/okian/matchodds/internal/domain/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultMaxGoals is the grid bound used when none is configured.
const DefaultMaxGoals = 7

// Outcome holds exact win, draw and loss sums over the grid.
type Outcome struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Grid is the joint scoreline distribution truncated at maxGoals.
type Grid struct {
	maxGoals int
	probs    []float64
}

// Compute builds the grid for the given rates.
func Compute(eg model.ExpectedGoals, maxGoals int) (*Grid, error) {
	if maxGoals < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxGoals, maxGoals)
	}
	home, err := marginal(eg.HomeRate, maxGoals)
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	away, err := marginal(eg.AwayRate, maxGoals)
	if err != nil {
		return nil, fmt.Errorf("away: %w", err)
	}

	g := &Grid{maxGoals: maxGoals, probs: make([]float64, maxGoals*maxGoals)}
	for i, ph := range home {
		for j, pa := range away {
			g.probs[i*maxGoals+j] = ph * pa
		}
	}
	return g, nil
}

// marginal returns P(k) for k < maxGoals. A zero rate is a point mass at 0.
func marginal(rate float64, maxGoals int) ([]float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	p := make([]float64, maxGoals)
	if rate == 0 {
		p[0] = 1
		return p, nil
	}
	dist := distuv.Poisson{Lambda: rate}
	for k := range p {
		p[k] = dist.Prob(float64(k))
	}
	return p, nil
}

// MaxGoals returns the exclusive grid bound.
func (g *Grid) MaxGoals() int { return g.maxGoals }

// At returns the probability of the score home-away. Scores outside the
// grid report zero.
func (g *Grid) At(home, away int) float64 {
	if home < 0 || away < 0 || home >= g.maxGoals || away >= g.maxGoals {
		return 0
	}
	return g.probs[home*g.maxGoals+away]
}

// Cells returns every grid cell, home goals major.
func (g *Grid) Cells() []model.ScorelineProbability {
	cells := make([]model.ScorelineProbability, 0, len(g.probs))
	for i := 0; i < g.maxGoals; i++ {
		for j := 0; j < g.maxGoals; j++ {
			cells = append(cells, model.ScorelineProbability{HomeGoals: i, AwayGoals: j, Probability: g.At(i, j)})
		}
	}
	return cells
}

// MostLikely returns the most probable cell. Ties go to the smallest home
// score, then the smallest away score.
func (g *Grid) MostLikely() model.ScorelineProbability {
	best := model.ScorelineProbability{Probability: g.probs[0]}
	for i := 0; i < g.maxGoals; i++ {
		for j := 0; j < g.maxGoals; j++ {
			// strict comparison keeps the first of equal cells in scan order
			if p := g.At(i, j); p > best.Probability {
				best = model.ScorelineProbability{HomeGoals: i, AwayGoals: j, Probability: p}
			}
		}
	}
	return best
}

// Coverage is the total probability inside the grid.
func (g *Grid) Coverage() float64 {
	var sum float64
	for _, p := range g.probs {
		sum += p
	}
	return sum
}

// Outcome sums the grid into home win, draw and away win mass. The three
// values add up to Coverage rather than 1.
func (g *Grid) Outcome() Outcome {
	var o Outcome
	for i := 0; i < g.maxGoals; i++ {
		for j := 0; j < g.maxGoals; j++ {
			p := g.At(i, j)
			switch {
			case i > j:
				o.HomeWin += p
			case i < j:
				o.AwayWin += p
			default:
				o.Draw += p
			}
		}
	}
	return o
}
