package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MATCHODDS_"

// Load builds a Config by layering sources. Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file if MATCHODDS_CONFIG is set
//  3. env (prefix MATCHODDS_), seeded from an optional .env file
func Load(_ context.Context) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MATCHODDS_MAX_GOALS -> max_goals; underscores are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that would make the service misbehave.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.Simulations <= 0:
		return fmt.Errorf("%w: simulations must be positive", ErrInvalidConfig)
	case c.SimulationWorkers < 0:
		return fmt.Errorf("%w: simulation_workers must not be negative", ErrInvalidConfig)
	case c.MaxGoals < 1:
		return fmt.Errorf("%w: max_goals must be at least 1", ErrInvalidConfig)
	case c.RateFloor < 0:
		return fmt.Errorf("%w: rate_floor must not be negative", ErrInvalidConfig)
	case c.Ridge < 0:
		return fmt.Errorf("%w: ridge must not be negative", ErrInvalidConfig)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max_iterations must be positive", ErrInvalidConfig)
	case c.MaxAbsCoefficient <= 0:
		return fmt.Errorf("%w: max_abs_coefficient must be positive", ErrInvalidConfig)
	case c.TrainingQueueSize <= 0:
		return fmt.Errorf("%w: training_queue_size must be positive", ErrInvalidConfig)
	case c.MatchesPerSeason <= 0:
		return fmt.Errorf("%w: matches_per_season must be positive", ErrInvalidConfig)
	}
	return nil
}
