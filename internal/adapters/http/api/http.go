// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/matchodds/internal/adapters/mq/queue"
	service "github.com/okian/matchodds/internal/app"
	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/rates"
	"github.com/okian/matchodds/internal/domain/strength"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	MatchDependencies
	ModelDependencies
	JobDependencies

	Teams(ctx context.Context) ([]string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	matchesHandler *MatchesHandler
	modelHandler   *ModelHandler
	jobsHandler    *JobsHandler
	deps           Dependencies
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		matchesHandler: NewMatchesHandler(deps, defaultMaxBatch),
		modelHandler:   NewModelHandler(deps),
		jobsHandler:    NewJobsHandler(deps),
		deps:           deps,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.handleTeams, "teams"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandlePostMatches, "matches"))
	mux.HandleFunc("/season-stats", MetricsMiddleware(s.matchesHandler.HandlePostSeasonStats, "season_stats"))
	mux.HandleFunc("/model", MetricsMiddleware(s.modelHandler.HandleGetModel, "model"))
	mux.HandleFunc("/model/reload", MetricsMiddleware(s.modelHandler.HandleReload, "model_reload"))
	mux.HandleFunc("/model/train", MetricsMiddleware(s.jobsHandler.HandleTrain, "model_train"))
	mux.HandleFunc("/model/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "model_jobs"))
}

type teamsResponse struct {
	Teams []string `json:"teams"`
}

// handleTeams handles GET /teams requests.
func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_teams"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	teams, err := s.deps.Teams(r.Context())
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	if teams == nil {
		teams = []string{}
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: teams})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// errorMapping pairs a sentinel with the status and code it is reported as.
// The first match wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{rates.ErrUnknownTeam, http.StatusNotFound, "unknown_team"},
	{rates.ErrIdenticalTeams, http.StatusBadRequest, "identical_teams"},
	{rates.ErrDegenerateRate, http.StatusUnprocessableEntity, "degenerate_rate"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{model.ErrInvalidMatch, http.StatusBadRequest, "invalid_match"},
	{model.ErrInvalidStats, http.StatusBadRequest, "invalid_stats"},
	{service.ErrJobNotFound, http.StatusNotFound, "job_not_found"},
	{service.ErrTrainingThrottled, http.StatusTooManyRequests, "training_throttled"},
	{queue.ErrFull, http.StatusTooManyRequests, "backpressure"},
	{service.ErrModelUnavailable, http.StatusServiceUnavailable, "model_unavailable"},
	{strength.ErrInvalidModel, http.StatusServiceUnavailable, "model_unavailable"},
	{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
	{queue.ErrClosed, http.StatusServiceUnavailable, "unavailable"},
	{context.Canceled, http.StatusServiceUnavailable, "cancelled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// writeDomainError reports err with the status its sentinel maps to, or 500.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err)
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
