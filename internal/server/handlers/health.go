package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/agentstation/launchsync/internal/server/response"
	"github.com/agentstation/launchsync/pkg/logging"
)

// HandleHealth handles GET /health and GET /api/v1/health. The aggregate
// report is returned either way; a down category makes it a 503.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	report, err := h.svc.Health(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Health check failed")
		response.ServiceUnavailable(w, "health check failed")
		return
	}
	if !report.Up {
		var down []string
		for name, ind := range report.Categories {
			if !ind.Up {
				down = append(down, name)
			}
		}
		sort.Strings(down)
		response.Unavailable(w, report, "down: "+strings.Join(down, ", "))
		return
	}
	response.OK(w, report)
}

// HandleInfo handles GET /api/v1/info.
func (h *Handlers) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"service": "launchsync",
		"version": "v1",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}
