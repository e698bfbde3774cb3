package server

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/launchsync/internal/server/handlers"
	"github.com/agentstation/launchsync/internal/server/middleware"
	"github.com/agentstation/launchsync/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(s.svc, s.config.SyncTimeout)
	s.registerRoutes(mux, h)

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
	)(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/info", getOnly(h.HandleInfo))
	mux.HandleFunc(prefix+"/openapi.json", getOnly(h.HandleOpenAPIJSON))
	mux.HandleFunc(prefix+"/openapi.yaml", getOnly(h.HandleOpenAPIYAML))

	mux.HandleFunc(prefix+"/sync/status", getOnly(h.HandleStatus))
	mux.HandleFunc(prefix+"/sync/runs", getOnly(h.HandleRuns))
	mux.HandleFunc(prefix+"/sync/", func(w http.ResponseWriter, r *http.Request) {
		parts := splitPath(strings.TrimPrefix(r.URL.Path, prefix+"/sync/"))
		if len(parts) != 1 {
			response.NotFound(w, "Not found", r.URL.Path)
			return
		}
		h.HandleTrigger(w, r, parts[0])
	})

	if s.config.MetricsEnabled {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.MethodNotAllowed(w, r.Method)
			return
		}
		next(w, r)
	}
}

// splitPath splits a URL path into parts, removing empty strings.
func splitPath(path string) []string {
	parts := []string{}
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
