package launchsync

import (
	stdsync "sync"

	"github.com/agentstation/launchsync/internal/sync"
)

// Hook function types for sync events
type (
	// SyncCompletedHook is called after a run reaches SUCCESS
	SyncCompletedHook func(result sync.Result)

	// SyncFailedHook is called after a run fails or is rejected
	SyncFailedHook func(result sync.Result, err error)
)

// Hooks registers callbacks for sync events.
type Hooks interface {
	// OnSyncCompleted registers a callback for successful runs
	OnSyncCompleted(fn SyncCompletedHook)

	// OnSyncFailed registers a callback for failed runs
	OnSyncFailed(fn SyncFailedHook)
}

// hooks manages event callbacks for sync runs
type hooks struct {
	mu          stdsync.RWMutex
	onCompleted []SyncCompletedHook
	onFailed    []SyncFailedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSyncCompleted registers a callback for successful runs.
func (c *client) OnSyncCompleted(fn SyncCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCompleted = append(c.hooks.onCompleted, fn)
}

// OnSyncFailed registers a callback for failed runs.
func (c *client) OnSyncFailed(fn SyncFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFailed = append(c.hooks.onFailed, fn)
}

// fire calls the hooks matching the outcome of one run.
func (h *hooks) fire(result sync.Result, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err != nil {
		for _, hook := range h.onFailed {
			hook(result, err)
		}
		return
	}
	for _, hook := range h.onCompleted {
		hook(result)
	}
}
