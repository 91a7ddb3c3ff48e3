// Package smoketest drives a running matchodds server end to end: it seeds a
// synthetic league, trains through the job queue, predicts every fixture and
// checks the answers against the league's known strengths.
package smoketest

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Teams        int           // Teams in the synthetic league
	Seasons      int           // Seasons to play
	Seed         uint64        // League seed; also decides team names' strengths
	Workers      int           // Concurrent prediction requests
	BatchSize    int           // Matches per POST /matches
	Timeout      time.Duration // HTTP request timeout
	TrainTimeout time.Duration // How long to wait for the training job
	PollInterval time.Duration // Job polling interval
	Verbose      bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	MatchesGenerated  int
	MatchesInserted   int
	MatchesDuplicate  int
	ModelID           string
	Predictions       int
	PredictionsFailed int
	LatencyP50        time.Duration
	LatencyP95        time.Duration
	LatencyMax        time.Duration
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Teams < 2 {
		c.Teams = 20
	}
	if c.Seasons < 1 {
		c.Seasons = 3
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Workers < 1 {
		c.Workers = 8
	}
	if c.BatchSize < 1 {
		c.BatchSize = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.TrainTimeout <= 0 {
		c.TrainTimeout = 2 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	return c
}
