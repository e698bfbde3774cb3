package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/launchsync/internal/server/response"
	"github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/logging"
)

// HandleStatus handles GET /api/v1/sync/status: the latest run of every
// category, null for categories that never ran.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.svc.Latest(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, latest)
}

// HandleRuns handles GET /api/v1/sync/runs?type=&limit=.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.DefaultRunsLimit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	syncType := r.URL.Query().Get("type")
	if syncType != "" {
		if _, err := sync.ParseCategory(syncType); err != nil {
			response.ErrorFromType(w, err)
			return
		}
	}
	runs, err := h.svc.Runs(r.Context(), syncType, limit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleTrigger handles POST /api/v1/sync/{category}?limit=&year=. The run
// executes within the request; "all" runs every category.
func (h *Handlers) HandleTrigger(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := r.Context()
	if h.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.syncTimeout)
		defer cancel()
	}
	logger := logging.FromContext(ctx)

	if name == "all" {
		results, err := h.svc.RunAll(ctx, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Triggered sync failed")
			response.ErrorFromType(w, err)
			return
		}
		response.OK(w, results)
		return
	}

	category, err := sync.ParseCategory(name)
	if err != nil {
		response.NotFound(w, err.Error(), "")
		return
	}

	var result sync.Result
	if category == sync.MissionsByYear {
		year, perr := intParam(r, "year", 0)
		if perr != nil {
			response.ErrorFromType(w, perr)
			return
		}
		result, err = h.svc.RunYear(ctx, year, limit)
	} else {
		result, err = h.svc.RunSync(ctx, category, limit)
	}
	if err != nil {
		logger.Error().Err(err).Str("category", name).Msg("Triggered sync failed")
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}
