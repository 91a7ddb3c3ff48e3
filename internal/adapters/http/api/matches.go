// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/types"
)

const defaultMaxBatch = 20_000

// MatchDependencies defines the interface for history ingestion.
type MatchDependencies interface {
	IngestMatches(ctx context.Context, matches []model.HistoricalMatch) (types.IngestResult, error)
	RecordSeasonStats(ctx context.Context, stats []model.TeamSeasonStats) error
}

// MatchesHandler handles match and season stats submissions.
type MatchesHandler struct {
	deps     MatchDependencies
	maxBatch int
}

// NewMatchesHandler creates a new ingestion handler.
func NewMatchesHandler(deps MatchDependencies, maxBatch int) *MatchesHandler {
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	return &MatchesHandler{deps: deps, maxBatch: maxBatch}
}

// matchRequest mirrors the OpenAPI schema for one entry of POST /matches.
type matchRequest struct {
	Season    string `json:"season"`
	Date      string `json:"date"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

func (m matchRequest) toModel() (model.HistoricalMatch, error) {
	d, err := time.Parse(model.DateLayout, m.Date)
	if err != nil {
		return model.HistoricalMatch{}, fmt.Errorf("invalid date %q; must be YYYY-MM-DD", m.Date)
	}
	return model.HistoricalMatch{
		Season:    m.Season,
		Date:      d,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		HomeGoals: m.HomeGoals,
		AwayGoals: m.AwayGoals,
	}, nil
}

// HandlePostMatches handles POST /matches requests. Rows that fail
// validation are counted as rejected rather than failing the batch.
func (h *MatchesHandler) HandlePostMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_matches"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req []matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.checkBatch(op, len(req)); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	matches := make([]model.HistoricalMatch, 0, len(req))
	badDates := 0
	for _, m := range req {
		hm, err := m.toModel()
		if err != nil {
			badDates++
			continue
		}
		matches = append(matches, hm)
	}

	res, err := h.deps.IngestMatches(r.Context(), matches)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	res.Received += badDates
	res.Rejected += badDates
	writeJSON(w, http.StatusOK, res)
}

// HandlePostSeasonStats handles POST /season-stats requests.
func (h *MatchesHandler) HandlePostSeasonStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_season_stats"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req []model.TeamSeasonStats
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.checkBatch(op, len(req)); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.RecordSeasonStats(r.Context(), req); err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stored": len(req)})
}

func (h *MatchesHandler) checkBatch(op string, n int) error {
	switch {
	case n == 0:
		return WrapKind(op, ErrBadRequest, ErrEmptyBatch)
	case n > h.maxBatch:
		return WrapKind(op, ErrBadRequest, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, n, h.maxBatch))
	}
	return nil
}
