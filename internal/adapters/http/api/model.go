// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/matchodds/internal/domain/types"
)

// ModelDependencies defines the interface for inspecting and reloading the active model.
type ModelDependencies interface {
	ModelInfo(ctx context.Context) (types.ModelInfo, error)
	Reload(ctx context.Context) (types.ModelInfo, error)
}

// ModelHandler handles model requests.
type ModelHandler struct {
	deps ModelDependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps ModelDependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleGetModel handles GET /model requests.
func (h *ModelHandler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info, err := h.deps.ModelInfo(r.Context())
	if err != nil {
		writeDomainError(w, Wrap("api.get_model", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleReload handles POST /model/reload requests. The previous model stays
// active when the reload fails.
func (h *ModelHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	info, err := h.deps.Reload(r.Context())
	if err != nil {
		writeDomainError(w, Wrap("api.reload_model", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
