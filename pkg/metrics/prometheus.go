// Package metrics provides Prometheus metrics for the matchodds prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Model fitting
	fitsTotal        *prometheus.CounterVec
	fitDuration      prometheus.Histogram
	fitIterations    prometheus.Gauge
	fitLogLikelihood prometheus.Gauge
	modelTeams       prometheus.Gauge
	modelReloads     *prometheus.CounterVec

	// Prediction path
	predictionsTotal      *prometheus.CounterVec
	predictionLatency     prometheus.Histogram
	predictionErrors      *prometheus.CounterVec
	simulationLatency     prometheus.Histogram
	simulationTrials      prometheus.Counter
	unreliableSimulations prometheus.Counter
	scorelineCoverage     prometheus.Histogram

	// Ingestion
	matchesIngested  prometheus.Counter
	matchesDuplicate prometheus.Counter
	matchesRejected  prometheus.Counter

	// Training job queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	trainingJobLatency prometheus.Histogram
	trainingJobErrors  prometheus.Counter

	// Repository
	repositoryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // dedicated registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchodds",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.fitsTotal = auto.NewCounterVec(m.counterOpts("fits_total", "Strength model fits by outcome"), []string{"status"})
	m.fitDuration = auto.NewHistogram(m.histogramOpts("fit_duration_milliseconds", "Wall time of a strength model fit", m.histogramBuckets))
	m.fitIterations = auto.NewGauge(m.gaugeOpts("fit_iterations", "Optimizer iterations used by the last fit"))
	m.fitLogLikelihood = auto.NewGauge(m.gaugeOpts("fit_log_likelihood", "Poisson log-likelihood of the last fit"))
	m.modelTeams = auto.NewGauge(m.gaugeOpts("model_teams", "Teams covered by the active strength model"))
	m.modelReloads = auto.NewCounterVec(m.counterOpts("model_reloads_total", "Active model swaps by outcome"), []string{"status"})

	m.predictionsTotal = auto.NewCounterVec(m.counterOpts("predictions_total", "Predictions served by outcome"), []string{"status"})
	m.predictionLatency = auto.NewHistogram(m.histogramOpts("prediction_latency_milliseconds", "End-to-end prediction latency", m.histogramBuckets))
	m.predictionErrors = auto.NewCounterVec(m.counterOpts("prediction_errors_total", "Prediction failures by kind"), []string{"kind"})
	m.simulationLatency = auto.NewHistogram(m.histogramOpts("simulation_latency_milliseconds", "Monte Carlo outcome simulation latency", m.histogramBuckets))
	m.simulationTrials = auto.NewCounter(m.counterOpts("simulation_trials_total", "Simulated match trials"))
	m.unreliableSimulations = auto.NewCounter(m.counterOpts("simulation_unreliable_total", "Simulations run below the reliable trial count"))
	m.scorelineCoverage = auto.NewHistogram(m.histogramOpts("scoreline_grid_coverage_ratio", "Probability mass captured by the bounded scoreline grid",
		[]float64{0.9, 0.95, 0.98, 0.99, 0.995, 0.999, 0.9999, 1}))

	m.matchesIngested = auto.NewCounter(m.counterOpts("matches_ingested_total", "Historical matches stored"))
	m.matchesDuplicate = auto.NewCounter(m.counterOpts("matches_duplicate_total", "Historical matches rejected as duplicates"))
	m.matchesRejected = auto.NewCounter(m.counterOpts("matches_rejected_total", "Historical matches rejected as invalid"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("training_queue_size", "Pending training jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("training_queue_capacity", "Training job queue capacity"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("training_queue_enqueue_total", "Training jobs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("training_queue_dequeue_total", "Training jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("training_queue_enqueue_errors_total", "Training jobs refused by the queue"))
	m.trainingJobLatency = auto.NewHistogram(m.histogramOpts("training_job_latency_milliseconds", "Training job processing latency", m.histogramBuckets))
	m.trainingJobErrors = auto.NewCounter(m.counterOpts("training_job_errors_total", "Failed training jobs"))

	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds", "Repository operation latency", m.histogramBuckets), []string{"operation"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Model fitting.

// RecordFit records a completed fit attempt. status is "ok" or an error kind.
func RecordFit(status string, durationMs float64) {
	globalManager.fitsTotal.WithLabelValues(status).Inc()
	globalManager.fitDuration.Observe(durationMs)
}

// UpdateFitSummary publishes optimizer statistics of the last successful fit.
func UpdateFitSummary(iterations int, logLikelihood float64) {
	globalManager.fitIterations.Set(float64(iterations))
	globalManager.fitLogLikelihood.Set(logLikelihood)
}

// UpdateModelTeams sets the number of teams in the active model.
func UpdateModelTeams(count int) {
	globalManager.modelTeams.Set(float64(count))
}

// RecordModelReload records an attempt to swap the active model.
func RecordModelReload(status string) {
	globalManager.modelReloads.WithLabelValues(status).Inc()
}

// Prediction path.

// RecordPrediction records a finished prediction and its latency.
func RecordPrediction(status string, latencyMs float64) {
	globalManager.predictionsTotal.WithLabelValues(status).Inc()
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordPredictionError increments the failure counter for kind.
func RecordPredictionError(kind string) {
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordSimulation records one Monte Carlo run.
func RecordSimulation(trials int, latencyMs float64, reliable bool) {
	globalManager.simulationTrials.Add(float64(trials))
	globalManager.simulationLatency.Observe(latencyMs)
	if !reliable {
		globalManager.unreliableSimulations.Inc()
	}
}

// RecordScorelineCoverage records the probability mass inside the scoreline grid.
func RecordScorelineCoverage(coverage float64) {
	globalManager.scorelineCoverage.Observe(coverage)
}

// Ingestion.

// RecordMatchesIngested adds n stored matches.
func RecordMatchesIngested(n int) {
	globalManager.matchesIngested.Add(float64(n))
}

// RecordMatchDuplicate increments the duplicate match counter.
func RecordMatchDuplicate() {
	globalManager.matchesDuplicate.Inc()
}

// RecordMatchRejected increments the invalid match counter.
func RecordMatchRejected() {
	globalManager.matchesRejected.Inc()
}

// Training queue.

// UpdateQueueSize sets the number of pending training jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the training queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordTrainingJob records the latency of a processed training job.
func RecordTrainingJob(latencyMs float64, failed bool) {
	globalManager.trainingJobLatency.Observe(latencyMs)
	if failed {
		globalManager.trainingJobErrors.Inc()
	}
}

// Repository.

// RecordRepositoryLatency records the latency of a repository operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
