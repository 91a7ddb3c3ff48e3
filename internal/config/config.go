// Package config defines service configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers .env, an optional YAML file and MATCHODDS_* env vars on top.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database holding matches, season stats and models.
	DBPath string `koanf:"db_path"`

	// ModelPath is the JSON model file written after training. Empty disables
	// the file copy and the database becomes the only model source.
	ModelPath string `koanf:"model_path"`

	// Simulations is the Monte Carlo trial count per prediction.
	Simulations int `koanf:"simulations"`

	// SimulationWorkers bounds the goroutines sharing one simulation run.
	SimulationWorkers int `koanf:"simulation_workers"`

	// SimulationSeed makes simulations reproducible when non-zero.
	SimulationSeed uint64 `koanf:"simulation_seed"`

	// MinReliableSimulations is the trial count below which estimates are flagged.
	MinReliableSimulations int `koanf:"min_reliable_simulations"`

	// MaxGoals bounds the scoreline grid (goals < MaxGoals per side).
	MaxGoals int `koanf:"max_goals"`

	// RateFloor is the smallest expected-goal rate accepted from the model.
	RateFloor float64 `koanf:"rate_floor"`

	// Ridge is the L2 penalty applied to team effects while fitting.
	Ridge float64 `koanf:"ridge"`

	// MaxIterations caps optimizer iterations per fit.
	MaxIterations int `koanf:"max_iterations"`

	// GradientThreshold is the optimizer convergence threshold.
	GradientThreshold float64 `koanf:"gradient_threshold"`

	// MaxAbsCoefficient flags fitted team effects that ran off to infinity.
	MaxAbsCoefficient float64 `koanf:"max_abs_coefficient"`

	// TrainingQueueSize bounds pending training jobs.
	TrainingQueueSize int `koanf:"training_queue_size"`

	// TrainingRatePerMinute throttles POST /model/train.
	TrainingRatePerMinute float64 `koanf:"training_rate_per_minute"`

	// DedupeSize bounds the match-key deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MatchesPerSeason is the divisor for per-match season context when a
	// team's stats do not carry a played count.
	MatchesPerSeason int `koanf:"matches_per_season"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		DBPath:                 "data/matchodds.db",
		ModelPath:              "data/model.json",
		Simulations:            10_000,
		SimulationWorkers:      runtime.NumCPU(),
		MinReliableSimulations: 1_000,
		MaxGoals:               7,
		RateFloor:              1e-9,
		MaxIterations:          100,
		GradientThreshold:      1e-8,
		MaxAbsCoefficient:      10,
		TrainingQueueSize:      8,
		TrainingRatePerMinute:  2,
		DedupeSize:             100_000,
		MatchesPerSeason:       38,
	}
}
