// Package status records the lifecycle of sync runs and derives health from
// the latest run of each category. Runs are append-only: each run is a new
// row that moves from IN_PROGRESS to a terminal state exactly once.
package status

import (
	"context"
	"time"
)

// State is a sync run state.
type State string

// Run states.
const (
	NotStarted State = "NOT_STARTED"
	InProgress State = "IN_PROGRESS"
	Success    State = "SUCCESS"
	Failed     State = "FAILED"
)

// Terminal reports whether s is SUCCESS or FAILED.
func (s State) Terminal() bool { return s == Success || s == Failed }

// Run is one sync invocation.
type Run struct {
	ID            string     `json:"id" yaml:"id"`
	Type          string     `json:"sync_type" yaml:"sync_type"`
	State         State      `json:"state" yaml:"state"`
	StartedAt     time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	RecordsSynced *int       `json:"records_synced,omitempty" yaml:"records_synced,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	SourceAPI     string     `json:"source_api,omitempty" yaml:"source_api,omitempty"`
}

// Duration returns how long a completed run took.
func (r Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Stale reports whether an IN_PROGRESS run started more than maxAge before now.
// A stale run was most likely abandoned and must not be read as success.
func (r Run) Stale(now time.Time, maxAge time.Duration) bool {
	return r.State == InProgress && now.Sub(r.StartedAt) > maxAge
}

// Store is the durable record of sync runs.
type Store interface {
	// Start writes a new IN_PROGRESS run and returns its id.
	Start(ctx context.Context, syncType, sourceAPI string) (string, error)
	// Succeed moves an IN_PROGRESS run to SUCCESS.
	Succeed(ctx context.Context, runID string, recordsSynced int) error
	// Fail moves an IN_PROGRESS run to FAILED with the error text.
	Fail(ctx context.Context, runID string, cause error) error

	Get(ctx context.Context, runID string) (Run, bool, error)
	Latest(ctx context.Context, syncType string) (Run, bool, error)
	LatestSuccessful(ctx context.Context, syncType string) (Run, bool, error)
	InProgress(ctx context.Context) ([]Run, error)
	FailedSince(ctx context.Context, since time.Time) ([]Run, error)
	Recent(ctx context.Context, syncType string, limit int) ([]Run, error)
	CountByState(ctx context.Context) (map[State]int, error)
	AnyInProgress(ctx context.Context) (bool, error)
	TotalRecordsSynced(ctx context.Context, syncType string) (int, error)
}

func errorText(cause error) string {
	if cause == nil {
		return "unknown error"
	}
	return cause.Error()
}
