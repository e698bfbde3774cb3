package handlers

import (
	"net/http"

	"github.com/agentstation/launchsync/internal/embedded/openapi"
	"github.com/agentstation/launchsync/internal/server/response"
)

// HandleOpenAPIJSON handles GET /api/v1/openapi.json.
func (h *Handlers) HandleOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	spec, err := openapi.SpecJSON()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(spec)
}

// HandleOpenAPIYAML handles GET /api/v1/openapi.yaml.
func (h *Handlers) HandleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(openapi.SpecYAML)
}
