// Package rates turns a fitted TeamStrength and a fixture into the two
// expected-goal rates.
package rates

import (
	"fmt"
	"math"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/strength"
)

const defaultFloor = 1e-9

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithFloor sets the smallest rate accepted as valid. Rates at or below it
// are reported as degenerate, never raised to it.
func WithFloor(floor float64) Option {
	return func(p *Predictor) {
		if floor > 0 {
			p.floor = floor
		}
	}
}

// Predictor evaluates the log-linear goal model for fixtures.
type Predictor struct {
	floor float64
}

// New creates a Predictor.
func New(opts ...Option) *Predictor {
	p := &Predictor{floor: defaultFloor}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExpectedGoals returns the home and away Poisson means for fixture.
func (p *Predictor) ExpectedGoals(ts *strength.TeamStrength, fixture model.FixtureRequest) (model.ExpectedGoals, error) {
	if ts == nil {
		return model.ExpectedGoals{}, fmt.Errorf("%w: no model", strength.ErrInvalidModel)
	}
	if fixture.HomeTeam == fixture.AwayTeam {
		return model.ExpectedGoals{}, fmt.Errorf("%w: %q", ErrIdenticalTeams, fixture.HomeTeam)
	}
	home, ok := ts.Coefficients(fixture.HomeTeam)
	if !ok {
		return model.ExpectedGoals{}, fmt.Errorf("%w: %q", ErrUnknownTeam, fixture.HomeTeam)
	}
	away, ok := ts.Coefficients(fixture.AwayTeam)
	if !ok {
		return model.ExpectedGoals{}, fmt.Errorf("%w: %q", ErrUnknownTeam, fixture.AwayTeam)
	}

	homeRate := math.Exp(ts.Intercept() + ts.HomeAdvantage() + home.Attack - away.Defense)
	awayRate := math.Exp(ts.Intercept() + away.Attack - home.Defense)

	if err := p.check("home", homeRate); err != nil {
		return model.ExpectedGoals{}, err
	}
	if err := p.check("away", awayRate); err != nil {
		return model.ExpectedGoals{}, err
	}
	return model.ExpectedGoals{HomeRate: homeRate, AwayRate: awayRate}, nil
}

func (p *Predictor) check(side string, rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= p.floor {
		return fmt.Errorf("%w: %s rate %v (floor %v)", ErrDegenerateRate, side, rate, p.floor)
	}
	return nil
}
