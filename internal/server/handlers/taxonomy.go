package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/agentstation/fieldmatch/internal/server/response"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// HandleTaxonomy handles GET /api/v1/taxonomy. With ?refresh=true the
// taxonomy is refetched first and cached responses are dropped.
func (h *Handlers) HandleTaxonomy(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		var err error
		if refresh, err = strconv.ParseBool(raw); err != nil {
			response.ErrorFromType(w, errors.NewValidationError("refresh", raw, "must be a boolean"))
			return
		}
	}

	if refresh {
		if _, err := h.client.Refresh(r.Context()); err != nil {
			response.ErrorFromType(w, err)
			return
		}
		h.cache.Clear()
	}

	tax, err := h.client.Taxonomy(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	entry, _ := h.client.Cache().Entry()

	response.OK(w, map[string]any{
		"source":     h.client.Cache().Source().Name(),
		"fetched_at": entry.FetchedAt,
		"fields":     tax,
	})
}

// HandleSelfScores handles GET /api/v1/taxonomy/self-scores. The table is
// cached per taxonomy generation.
func (h *Handlers) HandleSelfScores(w http.ResponseWriter, r *http.Request) {
	if _, err := h.client.Taxonomy(r.Context()); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	entry, _ := h.client.Cache().Entry()
	key := fmt.Sprintf("selfscores:%d", entry.FetchedAt.UnixNano())

	if cached, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		response.OK(w, cached)
		return
	}

	table, err := h.client.SelfScores(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	data := map[string]any{
		"method": h.client.Config().Method,
		"scores": table,
	}
	h.cache.Set(key, data)
	w.Header().Set("X-Cache", "MISS")
	response.OK(w, data)
}

// HandleTaxonomyDiff handles POST /api/v1/taxonomy/diff. The body is a
// taxonomy document compared against the current one.
func (h *Handlers) HandleTaxonomyDiff(w http.ResponseWriter, r *http.Request) {
	current, err := h.client.Taxonomy(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	updated, err := taxonomy.Decode(raw, "request")
	if err != nil {
		response.BadRequest(w, err.Error(), "")
		return
	}

	changes := taxonomy.Diff(current, updated)
	response.OK(w, map[string]any{
		"summary": changes.String(),
		"changes": changes,
	})
}
