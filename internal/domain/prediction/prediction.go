// Package prediction is the single entry point for predicting a fixture: it
// derives the expected-goal rates, simulates the outcome and finds the most
// likely scoreline.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/rates"
	"github.com/okian/matchodds/internal/domain/scoreline"
	"github.com/okian/matchodds/internal/domain/simulation"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRatePredictor sets the rate predictor.
func WithRatePredictor(p *rates.Predictor) Option {
	return func(e *Engine) {
		if p != nil {
			e.rates = p
		}
	}
}

// WithSimulator sets the outcome simulator.
func WithSimulator(s *simulation.Simulator) Option {
	return func(e *Engine) {
		if s != nil {
			e.sim = s
		}
	}
}

// WithMaxGoals sets the exclusive scoreline grid bound.
func WithMaxGoals(m int) Option {
	return func(e *Engine) { e.maxGoals = m }
}

// Engine composes the rate predictor, simulator and scoreline grid.
type Engine struct {
	rates    *rates.Predictor
	sim      *simulation.Simulator
	maxGoals int
}

// New creates an Engine. Components not supplied use their defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		rates:    rates.New(),
		sim:      simulation.New(),
		maxGoals: scoreline.DefaultMaxGoals,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict returns the full prediction for req, or an error. There is no
// partial result.
func (e *Engine) Predict(ctx context.Context, ts *strength.TeamStrength, req model.FixtureRequest) (model.Prediction, error) {
	start := time.Now()
	p, err := e.predict(ctx, ts, req)
	if err != nil {
		metrics.RecordPrediction("error", msSince(start))
		metrics.RecordPredictionError(ErrorKind(err))
		return model.Prediction{}, err
	}
	metrics.RecordPrediction("ok", msSince(start))
	metrics.RecordScorelineCoverage(p.GridCoverage)
	return p, nil
}

func (e *Engine) predict(ctx context.Context, ts *strength.TeamStrength, req model.FixtureRequest) (model.Prediction, error) {
	eg, err := e.rates.ExpectedGoals(ts, req)
	if err != nil {
		return model.Prediction{}, err
	}
	outcome, err := e.sim.Run(ctx, eg)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("simulate %s vs %s: %w", req.HomeTeam, req.AwayTeam, err)
	}
	grid, err := scoreline.Compute(eg, e.maxGoals)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("scoreline %s vs %s: %w", req.HomeTeam, req.AwayTeam, err)
	}
	return model.Prediction{
		Fixture:       req,
		ExpectedGoals: eg,
		Outcome:       outcome,
		MostLikely:    grid.MostLikely(),
		GridCoverage:  grid.Coverage(),
		ModelID:       ts.ID(),
	}, nil
}

// ErrorKind classifies a prediction error for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, rates.ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, rates.ErrIdenticalTeams):
		return "identical_teams"
	case errors.Is(err, rates.ErrDegenerateRate):
		return "degenerate_rate"
	case errors.Is(err, strength.ErrInvalidModel):
		return "invalid_model"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
