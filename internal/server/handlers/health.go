package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/fieldmatch/internal/server/response"
)

// HandleHealth handles GET /health and GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "fieldmatch-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The service is ready once a
// taxonomy is available, fetching one if the cache is empty.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	tax, err := h.client.Taxonomy(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Taxonomy not available")
		return
	}

	entry, _ := h.client.Cache().Entry()
	response.OK(w, map[string]any{
		"status": "ready",
		"taxonomy": map[string]any{
			"source":     h.client.Cache().Source().Name(),
			"fields":     tax.Len(),
			"values":     tax.ValueCount(),
			"fetched_at": entry.FetchedAt,
			"age":        entry.Age().Round(time.Second).String(),
		},
		"scenarios": h.catalogue.Count(),
		"history":   h.store != nil,
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
