package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/fieldmatch/internal/server/response"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
)

// HandleListRuns handles GET /api/v1/runs?limit=N.
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.ServiceUnavailable(w, "Run history is disabled")
		return
	}

	limit := constants.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.ErrorFromType(w, errors.NewValidationError("limit", raw, "must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.store.Runs(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		response.InternalError(w, err)
		return
	}
	response.OK(w, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		response.ServiceUnavailable(w, "Run history is disabled")
		return
	}
	run, err := h.store.Run(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, run)
}

// HandleRunOutcomes handles GET /api/v1/runs/{id}/outcomes.
func (h *Handlers) HandleRunOutcomes(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		response.ServiceUnavailable(w, "Run history is disabled")
		return
	}
	outcomes, err := h.store.Outcomes(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"run_id":   id,
		"outcomes": outcomes,
	})
}
