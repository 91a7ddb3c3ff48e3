package service

import (
	"github.com/okian/matchodds/internal/config"
	"github.com/okian/matchodds/internal/domain/prediction"
	"github.com/okian/matchodds/internal/domain/rates"
	"github.com/okian/matchodds/internal/domain/simulation"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/pkg/logger"
)

// EstimatorFromConfig builds the strength estimator described by cfg.
func EstimatorFromConfig(cfg *config.Config, log logger.Logger) *strength.Estimator {
	return strength.New(
		strength.WithRidge(cfg.Ridge),
		strength.WithMaxIterations(cfg.MaxIterations),
		strength.WithGradientThreshold(cfg.GradientThreshold),
		strength.WithMaxAbsCoefficient(cfg.MaxAbsCoefficient),
		strength.WithLogger(log.Named("estimator")),
	)
}

// EngineFromConfig builds the prediction engine described by cfg.
func EngineFromConfig(cfg *config.Config, log logger.Logger) *prediction.Engine {
	sim := simulation.New(
		simulation.WithTrials(cfg.Simulations),
		simulation.WithWorkers(cfg.SimulationWorkers),
		simulation.WithSeed(cfg.SimulationSeed),
		simulation.WithMinReliable(cfg.MinReliableSimulations),
		simulation.WithLogger(log.Named("simulator")),
	)
	return prediction.New(
		prediction.WithRatePredictor(rates.New(rates.WithFloor(cfg.RateFloor))),
		prediction.WithSimulator(sim),
		prediction.WithMaxGoals(cfg.MaxGoals),
	)
}

// OptionsFromConfig maps cfg onto service options.
func OptionsFromConfig(cfg *config.Config, log logger.Logger) []Option {
	return []Option{
		WithLogger(log),
		WithDBPath(cfg.DBPath),
		WithModelPath(cfg.ModelPath),
		WithEstimator(EstimatorFromConfig(cfg, log)),
		WithEngine(EngineFromConfig(cfg, log)),
		WithQueueSize(cfg.TrainingQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMatchesPerSeason(cfg.MatchesPerSeason),
		WithTrainingRate(cfg.TrainingRatePerMinute),
	}
}
