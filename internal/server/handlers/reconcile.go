package handlers

import (
	"net/http"
	"strings"

	"github.com/agentstation/fieldmatch/internal/server/response"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
)

// InferRequest is the body of POST /api/v1/infer.
type InferRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ReconcileRequest is the body of POST /api/v1/reconcile.
type ReconcileRequest struct {
	Pairs reconcile.Record `json:"pairs"`
}

// HandleInfer resolves one raw pair.
func (h *Handlers) HandleInfer(w http.ResponseWriter, r *http.Request) {
	var req InferRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if strings.TrimSpace(req.Value) == "" && strings.TrimSpace(req.Field) == "" {
		response.ErrorFromType(w, errors.NewValidationError("field", req.Field, "field or value is required"))
		return
	}

	result, err := h.client.Infer(r.Context(), req.Field, req.Value)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}

// HandleReconcile corrects one record. Pairs that cannot be matched are
// reported in the result's failures rather than failing the request.
func (h *Handlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	result, err := h.client.Reconcile(r.Context(), req.Pairs)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}
