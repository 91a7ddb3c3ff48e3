package strength

import "github.com/okian/matchodds/pkg/logger"

// Default estimator configuration constants.
const (
	defaultMaxIterations     = 100
	defaultGradientThreshold = 1e-8
	defaultMaxAbsCoefficient = 10
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithRidge adds an L2 penalty of lambda/2·Σβ² over the team effects.
func WithRidge(lambda float64) Option {
	return func(e *Estimator) {
		if lambda >= 0 {
			e.ridge = lambda
		}
	}
}

// WithMaxIterations caps the number of Newton iterations.
func WithMaxIterations(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithGradientThreshold sets the gradient norm at which the fit is considered converged.
func WithGradientThreshold(threshold float64) Option {
	return func(e *Estimator) {
		if threshold > 0 {
			e.gradientThreshold = threshold
		}
	}
}

// WithMaxAbsCoefficient bounds the magnitude a fitted coefficient may reach
// before the team is reported as not covered by the data.
func WithMaxAbsCoefficient(limit float64) Option {
	return func(e *Estimator) {
		if limit > 0 {
			e.maxAbsCoefficient = limit
		}
	}
}

// WithLogger sets the logger used for fit summaries.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.log = l
		}
	}
}
