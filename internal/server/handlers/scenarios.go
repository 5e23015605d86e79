package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/fieldmatch/internal/server/response"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
)

// BatchRequest is the optional body of POST /api/v1/scenarios/reconcile.
type BatchRequest struct {
	// IDs restricts the batch; empty means every scenario.
	IDs []int `json:"ids,omitempty"`
	// Save persists the run when history is enabled. Defaults to true.
	Save *bool `json:"save,omitempty"`
}

// BatchResponse is returned by a batch run.
type BatchResponse struct {
	RunID       string              `json:"run_id,omitempty"`
	ScenarioIDs []int               `json:"scenario_ids"`
	Summary     reconcile.Summary   `json:"summary"`
	Outcomes    []reconcile.Outcome `json:"outcomes"`
}

type scenarioView struct {
	ID    int              `json:"id"`
	Pairs reconcile.Record `json:"pairs"`
}

// HandleListScenarios handles GET /api/v1/scenarios.
func (h *Handlers) HandleListScenarios(w http.ResponseWriter, _ *http.Request) {
	views := make([]scenarioView, 0, h.catalogue.Count())
	for _, id := range h.catalogue.IDs() {
		rec, _ := h.catalogue.Get(id)
		views = append(views, scenarioView{ID: id, Pairs: rec})
	}
	response.OK(w, map[string]any{
		"source":    h.catalogue.Source(),
		"count":     len(views),
		"scenarios": views,
	})
}

// HandleGetScenario handles GET /api/v1/scenarios/{id}.
func (h *Handlers) HandleGetScenario(w http.ResponseWriter, _ *http.Request, rawID string) {
	id, err := parseScenarioID(rawID)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	rec, err := h.catalogue.Get(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, scenarioView{ID: id, Pairs: rec})
}

// HandleReconcileScenario handles POST /api/v1/scenarios/{id}/reconcile.
func (h *Handlers) HandleReconcileScenario(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseScenarioID(rawID)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	rec, err := h.catalogue.Get(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := logging.WithScenario(r.Context(), id)
	result, err := h.client.Reconcile(ctx, rec)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}

// HandleReconcileScenarios handles POST /api/v1/scenarios/reconcile. It runs
// a batch over the catalogue and records it in the history store.
func (h *Handlers) HandleReconcileScenarios(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			response.ErrorFromType(w, err)
			return
		}
	}

	cat := h.catalogue
	ids := req.IDs
	if len(ids) > 0 {
		var err error
		if cat, err = h.catalogue.Subset(ids...); err != nil {
			response.ErrorFromType(w, err)
			return
		}
	} else {
		ids = h.catalogue.IDs()
	}

	run := store.NewRun(h.client.Cache().Source().Name(), cat.Source(), h.client.Config())
	ctx := logging.WithRunID(r.Context(), run.ID)

	outcomes, err := h.client.ReconcileAll(ctx, cat)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	run.Finish(outcomes)

	resp := BatchResponse{
		ScenarioIDs: ids,
		Summary:     run.Summary,
		Outcomes:    outcomes,
	}

	if h.store != nil && (req.Save == nil || *req.Save) {
		if err := h.store.SaveRun(ctx, run); err != nil {
			logging.FromContext(ctx).Error().Err(err).Msg("Failed to save run")
			response.InternalError(w, err)
			return
		}
		resp.RunID = run.ID
		response.Created(w, resp)
		return
	}
	response.OK(w, resp)
}

func parseScenarioID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError("id", raw, "scenario id must be an integer")
	}
	return id, nil
}
