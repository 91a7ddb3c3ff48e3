// Command smoke runs an end-to-end check against a running matchodds server.
// It writes a synthetic league into the server's database, so point it at a
// scratch instance.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/matchodds/internal/smoketest"
	"github.com/okian/matchodds/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams       = 20
	defaultSeasons     = 3
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams        = flag.Int("teams", defaultTeams, "Teams in the synthetic league")
		seasons      = flag.Int("seasons", defaultSeasons, "Seasons to play")
		seed         = flag.Uint64("seed", 42, "League seed")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent prediction requests")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		trainTimeout = flag.Duration("train-timeout", 2*time.Minute, "How long to wait for training")
		logFormat    = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose      = flag.Bool("verbose", false, "Log every failed request")
	)
	flag.Parse()

	if err := logger.InitWithOptions(logger.Options{Format: *logFormat}); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	_, err := smoketest.Run(ctx, smoketest.Config{
		BaseURL:      *baseURL,
		Teams:        *teams,
		Seasons:      *seasons,
		Seed:         *seed,
		Workers:      *workers,
		Timeout:      *timeout,
		TrainTimeout: *trainTimeout,
		Verbose:      *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
