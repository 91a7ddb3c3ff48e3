// Package repository persists match history, season statistics and fitted
// models.
package repository

import (
	"context"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/strength"
)

// MatchStore holds completed matches.
type MatchStore interface {
	// SaveMatches inserts matches, ignoring ones already stored, and returns
	// how many were new.
	SaveMatches(ctx context.Context, matches []model.HistoricalMatch) (int, error)
	// Matches returns every match with a recorded result in canonical order.
	Matches(ctx context.Context) ([]model.HistoricalMatch, error)
	// MatchKeys returns the dedupe keys of all stored matches.
	MatchKeys(ctx context.Context) ([]string, error)
	// Teams returns the sorted names of every team in the history.
	Teams(ctx context.Context) ([]string, error)
}

// StatsStore holds per-season team aggregates used for display.
type StatsStore interface {
	UpsertSeasonStats(ctx context.Context, stats []model.TeamSeasonStats) error
	// LatestSeasonStats returns the most recent season in which team has
	// recorded shots. Returns ErrNotFound if there is none.
	LatestSeasonStats(ctx context.Context, team string) (model.TeamSeasonStats, error)
}

// ModelStore holds fitted models.
type ModelStore interface {
	SaveModel(ctx context.Context, ts *strength.TeamStrength) error
	// LatestModel returns the most recently fitted model or ErrNotFound.
	LatestModel(ctx context.Context) (*strength.TeamStrength, error)
}

// Store is the full persistence contract.
type Store interface {
	MatchStore
	StatsStore
	ModelStore
	Close() error
}
