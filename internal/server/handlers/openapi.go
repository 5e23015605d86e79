package handlers

import (
	"net/http"

	"github.com/agentstation/fieldmatch/internal/embedded/openapi"
	"github.com/agentstation/fieldmatch/internal/server/response"
)

// HandleOpenAPIJSON serves the OpenAPI document as JSON.
func (h *Handlers) HandleOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	spec, err := openapi.JSON()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to convert OpenAPI document")
		response.InternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(spec)
}

// HandleOpenAPIYAML serves the OpenAPI document as YAML.
func (h *Handlers) HandleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(openapi.SpecYAML)
}
