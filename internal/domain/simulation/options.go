package simulation

import "github.com/okian/matchodds/pkg/logger"

// Default simulator configuration constants.
const (
	defaultTrials      = 10_000
	defaultWorkers     = 4
	defaultMinReliable = 1_000
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithTrials sets the number of simulated matches used by Run.
func WithTrials(n int) Option {
	return func(s *Simulator) { s.trials = n }
}

// WithWorkers sets how many shards the trials are split across.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSeed fixes the base seed. Shard i draws from seed+i, so a fixed seed
// and worker count reproduce the same counts. Zero seeds from the clock.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.seed = seed }
}

// WithMinReliable sets the trial count below which results are flagged unreliable.
func WithMinReliable(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.minReliable = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}
