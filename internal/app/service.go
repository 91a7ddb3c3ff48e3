// Package service wires the prediction engine to storage, training jobs and
// the model cache, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/matchodds/internal/adapters/modelfile"
	"github.com/okian/matchodds/internal/adapters/mq/queue"
	"github.com/okian/matchodds/internal/adapters/mq/worker"
	"github.com/okian/matchodds/internal/adapters/repository"
	"github.com/okian/matchodds/internal/domain/dedupe"
	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/prediction"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/internal/domain/types"
	"github.com/okian/matchodds/pkg/logger"
	"github.com/okian/matchodds/pkg/metrics"
	"golang.org/x/time/rate"
)

// Default service configuration constants.
const (
	defaultDBPath           = "data/matchodds.db"
	defaultModelPath        = "data/model.json"
	defaultQueueSize        = 8
	defaultDedupeSize       = 100_000
	defaultMatchesPerSeason = 38
	defaultTrainingPerMin   = 2
	maxJobHistory           = 100
	workerShutdownTimeout   = 30 * time.Second
)

// Service implements the API dependencies for the prediction system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	jobs      *queue.InMemoryQueue
	trainer   *worker.InMemoryWorker
	estimator *strength.Estimator
	engine    *prediction.Engine
	cache     *ModelCache
	limiter   *rate.Limiter

	// Configuration
	dbPath           string
	modelPath        string
	queueSize        int
	dedupeSize       int
	matchesPerSeason int
	trainingPerMin   float64
	ownsStore        bool

	// Training job history, oldest first
	jobMu     sync.Mutex
	jobStatus map[string]model.JobStatus
	jobOrder  []string

	// State
	started      bool
	workerCancel context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects an already opened store. The service will not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDBPath sets the SQLite file opened when no store is injected.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithModelPath sets the model file. An empty path keeps models in the database only.
func WithModelPath(path string) Option {
	return func(s *Service) { s.modelPath = path }
}

// WithEstimator sets the estimator used by training jobs.
func WithEstimator(e *strength.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithEngine sets the prediction engine.
func WithEngine(e *prediction.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithQueueSize sets how many training jobs may wait at once.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the ingestion dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMatchesPerSeason sets the divisor used when season stats lack a match count.
func WithMatchesPerSeason(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.matchesPerSeason = n
		}
	}
}

// WithTrainingRate limits how many training jobs may be requested per minute.
func WithTrainingRate(perMinute float64) Option {
	return func(s *Service) {
		if perMinute > 0 {
			s.trainingPerMin = perMinute
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:           defaultDBPath,
		modelPath:        defaultModelPath,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		matchesPerSeason: defaultMatchesPerSeason,
		trainingPerMin:   defaultTrainingPerMin,
		estimator:        strength.New(),
		engine:           prediction.New(),
		jobStatus:        make(map[string]model.JobStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewModelCache(s.loadModel)
	s.limiter = rate.NewLimiter(rate.Limit(s.trainingPerMin/60), 1)
	return s
}

// Start opens storage, warms the dedupe cache and starts the training worker.
// A missing model is not fatal: predictions fail until one is trained.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting prediction service...")

	if s.store == nil {
		store, err := repository.OpenSQLite(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	keys, err := s.store.MatchKeys(ctx)
	if err != nil {
		return fmt.Errorf("warm dedupe: %w", err)
	}
	for _, k := range keys {
		s.deduper.SeenAndRecord(ctx, k)
	}

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.trainer = worker.NewInMemoryWorker(s.jobs, s, worker.WithReporter(s), worker.WithLogger(s.logger.Named("trainer")))
	workerCtx, cancel := context.WithCancel(context.Background())
	s.workerCancel = cancel
	go s.trainer.Run(workerCtx)

	if ts, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn(ctx, "no model loaded; train one before predicting", logger.Error(err))
	} else {
		s.logger.Info(ctx, "model loaded", logger.String("model_id", ts.ID()), logger.Int("teams", ts.Len()))
	}

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("known_matches", len(keys)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the training worker and closes storage.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	_ = s.jobs.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	defer cancel()
	if err := s.trainer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "training worker did not stop in time", logger.Error(err))
	}
	s.workerCancel()

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

func (s *Service) loadModel(ctx context.Context) (*strength.TeamStrength, error) {
	if s.modelPath != "" {
		ts, err := modelfile.Load(s.modelPath)
		if err == nil {
			return ts, nil
		}
		if !errors.Is(err, modelfile.ErrNotFound) {
			return nil, err
		}
	}
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store.LatestModel(ctx)
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Predict returns the display-ready prediction for a fixture, with each
// side's latest season context attached when available.
func (s *Service) Predict(ctx context.Context, home, away string) (types.PredictionView, error) {
	if err := s.running(); err != nil {
		return types.PredictionView{}, err
	}
	ts, err := s.cache.Get(ctx)
	if err != nil {
		metrics.RecordPredictionError("model_unavailable")
		return types.PredictionView{}, err
	}
	p, err := s.engine.Predict(ctx, ts, model.FixtureRequest{HomeTeam: home, AwayTeam: away})
	if err != nil {
		return types.PredictionView{}, err
	}

	view := types.NewPredictionView(p)
	view.HomeContext = s.teamContext(ctx, home)
	view.AwayContext = s.teamContext(ctx, away)

	s.logger.Debug(ctx, "prediction served",
		logger.String("home", home),
		logger.String("away", away),
		logger.Float64("home_rate", p.ExpectedGoals.HomeRate),
		logger.Float64("away_rate", p.ExpectedGoals.AwayRate),
	)
	return view, nil
}

// teamContext is display-only, so a lookup failure leaves it empty rather
// than failing the prediction.
func (s *Service) teamContext(ctx context.Context, team string) *types.TeamContext {
	st, err := s.store.LatestSeasonStats(ctx, team)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "season stats lookup failed", logger.String("team", team), logger.Error(err))
		}
		return nil
	}
	shots, cards := st.PerMatch(s.matchesPerSeason)
	return &types.TeamContext{Team: team, Season: st.Season, ShotsPerMatch: shots, CardsPerMatch: cards}
}

// Teams returns the roster of teams present in the stored history.
func (s *Service) Teams(ctx context.Context) ([]string, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Teams(ctx)
}

// IngestMatches validates, de-duplicates and stores completed matches.
func (s *Service) IngestMatches(ctx context.Context, matches []model.HistoricalMatch) (types.IngestResult, error) {
	if err := s.running(); err != nil {
		return types.IngestResult{}, err
	}
	res := types.IngestResult{Received: len(matches)}

	valid := make([]model.HistoricalMatch, 0, len(matches))
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			res.Rejected++
			metrics.RecordMatchRejected()
			s.logger.Debug(ctx, "match rejected", logger.String("key", m.Key()), logger.Error(err))
			continue
		}
		valid = append(valid, m)
	}

	fresh, dups := dedupe.FilterMatches(ctx, s.deduper, valid)
	res.Duplicates = dups
	for i := 0; i < dups; i++ {
		metrics.RecordMatchDuplicate()
	}

	inserted, err := s.store.SaveMatches(ctx, fresh)
	if err != nil {
		for _, m := range fresh {
			s.deduper.Unrecord(ctx, m.Key())
		}
		return res, fmt.Errorf("save matches: %w", err)
	}
	res.Inserted = inserted
	// rows the store already held but the bounded dedupe cache had evicted
	res.Duplicates += len(fresh) - inserted
	metrics.RecordMatchesIngested(inserted)

	s.logger.Info(ctx, "matches ingested",
		logger.Int("received", res.Received),
		logger.Int("inserted", res.Inserted),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("rejected", res.Rejected),
	)
	return res, nil
}

// RecordSeasonStats stores per-team season aggregates.
func (s *Service) RecordSeasonStats(ctx context.Context, stats []model.TeamSeasonStats) error {
	if err := s.running(); err != nil {
		return err
	}
	for _, st := range stats {
		if err := st.Validate(); err != nil {
			return err
		}
	}
	return s.store.UpsertSeasonStats(ctx, stats)
}

// Train fits a model from the stored history, persists it and makes it
// active. It implements worker.Trainer and can also be called directly.
func (s *Service) Train(ctx context.Context, job model.TrainingJob) (string, error) {
	matches, err := s.store.Matches(ctx)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	ts, err := s.estimator.Fit(ctx, matches)
	if err != nil {
		return "", fmt.Errorf("fit: %w", err)
	}
	if err := s.store.SaveModel(ctx, ts); err != nil {
		return "", fmt.Errorf("save model: %w", err)
	}
	if s.modelPath != "" {
		if err := modelfile.Save(s.modelPath, ts); err != nil {
			return "", fmt.Errorf("write model file: %w", err)
		}
	}
	s.cache.Swap(ts)
	s.logger.Info(ctx, "model activated",
		logger.String("model_id", ts.ID()),
		logger.String("job_id", job.ID),
		logger.Int("matches", ts.Matches()),
	)
	return ts.ID(), nil
}

// RequestTraining queues a training job, subject to the rate limit.
func (s *Service) RequestTraining(ctx context.Context, reason string) (model.JobStatus, error) {
	if err := s.running(); err != nil {
		return model.JobStatus{}, err
	}
	if !s.limiter.Allow() {
		metrics.RecordErrorByType("training_throttled", "low")
		return model.JobStatus{}, ErrTrainingThrottled
	}
	job := model.TrainingJob{ID: uuid.NewString(), RequestedAt: time.Now().UTC(), Reason: reason}
	status := model.JobStatus{Job: job, State: model.JobQueued}
	s.Report(ctx, status)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		finished := time.Now().UTC()
		s.Report(ctx, model.JobStatus{Job: job, State: model.JobFailed, Error: err.Error(), FinishedAt: &finished})
		return model.JobStatus{}, fmt.Errorf("queue training job: %w", err)
	}
	return status, nil
}

// Report records a job state change. It implements worker.Reporter.
func (s *Service) Report(_ context.Context, status model.JobStatus) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	id := status.Job.ID
	if _, ok := s.jobStatus[id]; !ok {
		s.jobOrder = append(s.jobOrder, id)
		if len(s.jobOrder) > maxJobHistory {
			delete(s.jobStatus, s.jobOrder[0])
			s.jobOrder = s.jobOrder[1:]
		}
	}
	s.jobStatus[id] = status
}

// JobStatus returns the last known state of a training job.
func (s *Service) JobStatus(_ context.Context, id string) (model.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	st, ok := s.jobStatus[id]
	if !ok {
		return model.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return st, nil
}

// Reload re-reads the persisted model and swaps it in.
func (s *Service) Reload(ctx context.Context) (types.ModelInfo, error) {
	if err := s.running(); err != nil {
		return types.ModelInfo{}, err
	}
	ts, err := s.cache.Reload(ctx)
	if err != nil {
		return types.ModelInfo{}, err
	}
	s.logger.Info(ctx, "model reloaded", logger.String("model_id", ts.ID()))
	return modelInfo(ts), nil
}

// ModelInfo describes the active model.
func (s *Service) ModelInfo(ctx context.Context) (types.ModelInfo, error) {
	if err := s.running(); err != nil {
		return types.ModelInfo{}, err
	}
	ts, err := s.cache.Get(ctx)
	if err != nil {
		return types.ModelInfo{}, err
	}
	return modelInfo(ts), nil
}

func modelInfo(ts *strength.TeamStrength) types.ModelInfo {
	return types.ModelInfo{
		ID:            ts.ID(),
		FittedAt:      ts.FittedAt(),
		Teams:         ts.Len(),
		Matches:       ts.Matches(),
		ReferenceTeam: ts.ReferenceTeam(),
		Intercept:     ts.Intercept(),
		HomeAdvantage: ts.HomeAdvantage(),
		LogLikelihood: ts.LogLikelihood(),
		Iterations:    ts.Iterations(),
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
	}
	if s.started {
		queueLen := s.jobs.Len()
		stats["queueLength"] = queueLen
		stats["knownMatches"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)
	}
	if ts := s.cache.Current(); ts != nil {
		stats["modelID"] = ts.ID()
		stats["modelTeams"] = ts.Len()
	}
	s.jobMu.Lock()
	stats["trainingJobs"] = len(s.jobStatus)
	s.jobMu.Unlock()
	return stats
}
