package status

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/launchsync/pkg/errors"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []Run
	now  func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Start implements Store.
func (m *MemoryStore) Start(_ context.Context, syncType, sourceAPI string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.runs = append(m.runs, Run{
		ID:        id,
		Type:      syncType,
		State:     InProgress,
		StartedAt: m.now().UTC(),
		SourceAPI: sourceAPI,
	})
	return id, nil
}

func (m *MemoryStore) finish(runID string, state State, records *int, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		r := &m.runs[i]
		if r.ID != runID {
			continue
		}
		if r.State != InProgress {
			return errors.NewInvariantError("single terminal transition",
				fmt.Sprintf("run %s is already %s", runID, r.State))
		}
		done := m.now().UTC()
		r.State = state
		r.CompletedAt = &done
		r.RecordsSynced = records
		r.Error = msg
		return nil
	}
	return errors.NewNotFoundError("sync run", runID)
}

// Succeed implements Store.
func (m *MemoryStore) Succeed(_ context.Context, runID string, recordsSynced int) error {
	return m.finish(runID, Success, &recordsSynced, "")
}

// Fail implements Store.
func (m *MemoryStore) Fail(_ context.Context, runID string, cause error) error {
	return m.finish(runID, Failed, nil, errorText(cause))
}

// MustSucceed is Succeed for tests; a second terminal transition panics.
func (m *MemoryStore) MustSucceed(runID string, recordsSynced int) {
	if err := m.Succeed(context.Background(), runID, recordsSynced); err != nil {
		panic(err)
	}
}

// MustFail is Fail for tests; a second terminal transition panics.
func (m *MemoryStore) MustFail(runID string, cause error) {
	if err := m.Fail(context.Background(), runID, cause); err != nil {
		panic(err)
	}
}

// newest returns the runs matching keep, newest first.
func (m *MemoryStore) newest(keep func(Run) bool) []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if keep(m.runs[i]) {
			out = append(out, m.runs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func first(runs []Run) (Run, bool, error) {
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, runID string) (Run, bool, error) {
	return first(m.newest(func(r Run) bool { return r.ID == runID }))
}

// Latest implements Store.
func (m *MemoryStore) Latest(_ context.Context, syncType string) (Run, bool, error) {
	return first(m.newest(func(r Run) bool { return r.Type == syncType }))
}

// LatestSuccessful implements Store.
func (m *MemoryStore) LatestSuccessful(_ context.Context, syncType string) (Run, bool, error) {
	return first(m.newest(func(r Run) bool { return r.Type == syncType && r.State == Success }))
}

// InProgress implements Store.
func (m *MemoryStore) InProgress(context.Context) ([]Run, error) {
	return m.newest(func(r Run) bool { return r.State == InProgress }), nil
}

// FailedSince implements Store.
func (m *MemoryStore) FailedSince(_ context.Context, since time.Time) ([]Run, error) {
	return m.newest(func(r Run) bool { return r.State == Failed && !r.StartedAt.Before(since) }), nil
}

// Recent implements Store. An empty syncType matches every type.
func (m *MemoryStore) Recent(_ context.Context, syncType string, limit int) ([]Run, error) {
	runs := m.newest(func(r Run) bool { return syncType == "" || r.Type == syncType })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// CountByState implements Store.
func (m *MemoryStore) CountByState(context.Context) (map[State]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[State]int{}
	for _, r := range m.runs {
		out[r.State]++
	}
	return out, nil
}

// AnyInProgress implements Store.
func (m *MemoryStore) AnyInProgress(ctx context.Context) (bool, error) {
	runs, _ := m.InProgress(ctx)
	return len(runs) > 0, nil
}

// TotalRecordsSynced implements Store.
func (m *MemoryStore) TotalRecordsSynced(_ context.Context, syncType string) (int, error) {
	total := 0
	for _, r := range m.newest(func(r Run) bool { return r.Type == syncType && r.State == Success }) {
		if r.RecordsSynced != nil {
			total += *r.RecordsSynced
		}
	}
	return total, nil
}
