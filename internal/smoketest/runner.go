package smoketest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/types"
	"github.com/okian/matchodds/internal/leaguegen"
	"github.com/okian/matchodds/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Run executes the complete smoke test and returns its statistics.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("smoketest")
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting matchodds smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("teams", cfg.Teams),
		logger.Int("seasons", cfg.Seasons),
		logger.Int("workers", cfg.Workers),
	)

	// Step 1: Check service health
	if err := client.getJSON(ctx, "/healthz", nil, http.StatusOK, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate and submit the league
	league := leaguegen.Generate(
		leaguegen.WithTeams(cfg.Teams),
		leaguegen.WithSeasons(cfg.Seasons),
		leaguegen.WithSeed(cfg.Seed),
	)
	stats.MatchesGenerated = len(league.Matches)
	if err := submitMatches(ctx, client, cfg.BatchSize, league.Matches, stats); err != nil {
		return stats, fmt.Errorf("match submission failed: %w", err)
	}

	// Step 3: Train through the job queue
	modelID, err := train(ctx, client, cfg)
	if err != nil {
		return stats, fmt.Errorf("training failed: %w", err)
	}
	stats.ModelID = modelID
	log.Info(ctx, "model trained", logger.String("model_id", modelID))

	// Step 4: Predict every fixture concurrently
	views, err := predictAll(ctx, client, cfg, league, stats)
	if err != nil {
		return stats, fmt.Errorf("predictions failed: %w", err)
	}

	// Step 5: Verify results against the known strengths
	if err := verifyPredictions(league, views); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

type matchRequest struct {
	Season    string `json:"season"`
	Date      string `json:"date"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

func submitMatches(ctx context.Context, client *httpClient, batchSize int, matches []model.HistoricalMatch, stats *Stats) error {
	for start := 0; start < len(matches); start += batchSize {
		end := min(start+batchSize, len(matches))
		batch := make([]matchRequest, 0, end-start)
		for _, m := range matches[start:end] {
			batch = append(batch, matchRequest{
				Season:    m.Season,
				Date:      m.Date.Format(model.DateLayout),
				HomeTeam:  m.HomeTeam,
				AwayTeam:  m.AwayTeam,
				HomeGoals: m.HomeGoals,
				AwayGoals: m.AwayGoals,
			})
		}
		var res types.IngestResult
		if err := client.postJSON(ctx, "/matches", batch, http.StatusOK, &res); err != nil {
			return err
		}
		if res.Rejected > 0 {
			return fmt.Errorf("server rejected %d generated matches", res.Rejected)
		}
		stats.MatchesInserted += res.Inserted
		stats.MatchesDuplicate += res.Duplicates
	}
	return nil
}

// train requests a job and polls it until it finishes.
func train(ctx context.Context, client *httpClient, cfg Config) (string, error) {
	var queued model.JobStatus
	if err := client.postJSON(ctx, "/model/train", map[string]string{"reason": "smoke test"}, http.StatusAccepted, &queued); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.TrainTimeout)
	defer cancel()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		var st model.JobStatus
		if err := client.getJSON(ctx, "/model/jobs/"+url.PathEscape(queued.Job.ID), nil, http.StatusOK, &st); err != nil {
			return "", err
		}
		switch st.State {
		case model.JobSucceeded:
			return st.ModelID, nil
		case model.JobFailed:
			return "", fmt.Errorf("job %s: %s", st.Job.ID, st.Error)
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("job %s still %s: %w", queued.Job.ID, st.State, ctx.Err())
		case <-ticker.C:
		}
	}
}

type fixture struct{ home, away string }

// predictAll requests every ordered pair of teams. Individual failures are
// counted; the run fails only when nothing succeeds.
func predictAll(ctx context.Context, client *httpClient, cfg Config, league *leaguegen.League, stats *Stats) (map[fixture]types.PredictionView, error) {
	log := logger.Named("smoketest")
	var fixtures []fixture
	for _, h := range league.Teams {
		for _, a := range league.Teams {
			if h.Name != a.Name {
				fixtures = append(fixtures, fixture{h.Name, a.Name})
			}
		}
	}

	var (
		mu        sync.Mutex
		views     = make(map[fixture]types.PredictionView, len(fixtures))
		latencies = make([]float64, 0, len(fixtures))
		failed    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, f := range fixtures {
		f := f
		g.Go(func() error {
			q := url.Values{"home": {f.home}, "away": {f.away}}
			start := time.Now()
			var v types.PredictionView
			err := client.getJSON(gctx, "/predict", q, http.StatusOK, &v)
			took := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				if cfg.Verbose {
					log.Warn(gctx, "prediction failed", logger.String("home", f.home), logger.String("away", f.away), logger.Error(err))
				}
				return nil
			}
			views[f] = v
			latencies = append(latencies, float64(took))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Predictions = len(views)
	stats.PredictionsFailed = failed
	if len(latencies) == 0 {
		return nil, fmt.Errorf("all %d predictions failed", len(fixtures))
	}
	sort.Float64s(latencies)
	stats.LatencyP50 = time.Duration(stat.Quantile(0.5, stat.Empirical, latencies, nil))
	stats.LatencyP95 = time.Duration(stat.Quantile(0.95, stat.Empirical, latencies, nil))
	stats.LatencyMax = time.Duration(latencies[len(latencies)-1])
	return views, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("matchesInserted", stats.MatchesInserted),
		logger.Int("matchesDuplicate", stats.MatchesDuplicate),
		logger.String("modelID", stats.ModelID),
		logger.Int("predictions", stats.Predictions),
		logger.Int("predictionsFailed", stats.PredictionsFailed),
		logger.Duration("latencyP50", stats.LatencyP50),
		logger.Duration("latencyP95", stats.LatencyP95),
		logger.Duration("latencyMax", stats.LatencyMax),
		logger.Duration("duration", stats.Duration),
	)
}
