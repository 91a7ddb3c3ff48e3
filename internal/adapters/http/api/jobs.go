// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/matchodds/internal/domain/model"
)

// JobDependencies defines the interface for training job operations.
type JobDependencies interface {
	RequestTraining(ctx context.Context, reason string) (model.JobStatus, error)
	JobStatus(ctx context.Context, id string) (model.JobStatus, error)
}

// JobsHandler handles training job requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new training job handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type trainRequest struct {
	Reason string `json:"reason"`
}

// HandleTrain handles POST /model/train requests. The body is optional.
func (h *JobsHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = "api"
	}
	status, err := h.deps.RequestTraining(r.Context(), req.Reason)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

// HandleGetJob handles GET /model/jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /model/jobs/
	id := strings.TrimPrefix(r.URL.Path, "/model/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	status, err := h.deps.JobStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}
