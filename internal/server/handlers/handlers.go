// Package handlers provides the HTTP handlers of the launchsync server.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Service is what the handlers need from the sync service.
type Service interface {
	RunSync(ctx context.Context, category sync.Category, limit int) (sync.Result, error)
	RunYear(ctx context.Context, year, limit int) (sync.Result, error)
	RunAll(ctx context.Context, limit int) (map[sync.Category]sync.Result, error)
	Health(ctx context.Context) (status.Report, error)
	Runs(ctx context.Context, syncType string, limit int) ([]status.Run, error)
	Latest(ctx context.Context) (map[string]*status.Run, error)
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	svc         Service
	syncTimeout time.Duration
	startTime   time.Time
}

// New creates a new Handlers instance. syncTimeout bounds a triggered run.
func New(svc Service, syncTimeout time.Duration) *Handlers {
	return &Handlers{
		svc:         svc,
		syncTimeout: syncTimeout,
		startTime:   time.Now(),
	}
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(name, raw, "must be a non-negative integer")
	}
	return n, nil
}
