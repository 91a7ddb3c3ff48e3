// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/matchodds/internal/domain/types"
)

// PredictDependencies defines the interface for fixture predictions.
type PredictDependencies interface {
	Predict(ctx context.Context, home, away string) (types.PredictionView, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles GET /predict?home=X&away=Y requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	home := strings.TrimSpace(q.Get("home"))
	away := strings.TrimSpace(q.Get("away"))
	if home == "" || away == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, ErrMissingTeam))
		return
	}
	view, err := h.deps.Predict(r.Context(), home, away)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
