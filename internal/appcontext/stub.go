package appcontext

import (
	"context"
	stdsync "sync"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/sync"
)

// StubService is a launchsync.Service for command tests. It records the
// calls it receives and answers with the configured values.
type StubService struct {
	mu stdsync.Mutex

	Results map[sync.Category]sync.Result
	Err     error
	Report  status.Report
	RunList []status.Run
	Newest  map[string]*status.Run

	Calls     []string
	GotLimit  int
	GotYear   int
	GotType   string
	Scheduled bool
	Closed    bool
}

func (s *StubService) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
}

// RunSync returns the configured result for category.
func (s *StubService) RunSync(_ context.Context, category sync.Category, limit int) (sync.Result, error) {
	s.record("RunSync:" + string(category))
	s.GotLimit = limit
	r, ok := s.Results[category]
	if !ok {
		r = sync.Result{Category: category}
	}
	return r, s.Err
}

// RunYear returns the configured missions_year result.
func (s *StubService) RunYear(_ context.Context, year, limit int) (sync.Result, error) {
	s.record("RunYear")
	s.GotYear, s.GotLimit = year, limit
	r, ok := s.Results[sync.MissionsByYear]
	if !ok {
		r = sync.Result{Category: sync.MissionsByYear}
	}
	return r, s.Err
}

// RunAll returns every configured result.
func (s *StubService) RunAll(_ context.Context, limit int) (map[sync.Category]sync.Result, error) {
	s.record("RunAll")
	s.GotLimit = limit
	return s.Results, s.Err
}

// Health returns Report.
func (s *StubService) Health(context.Context) (status.Report, error) {
	s.record("Health")
	return s.Report, nil
}

// Runs returns RunList.
func (s *StubService) Runs(_ context.Context, syncType string, limit int) ([]status.Run, error) {
	s.record("Runs")
	s.GotType, s.GotLimit = syncType, limit
	return s.RunList, nil
}

// Latest returns Newest.
func (s *StubService) Latest(context.Context) (map[string]*status.Run, error) {
	s.record("Latest")
	return s.Newest, nil
}

// AutoSyncOn marks scheduled syncs as running.
func (s *StubService) AutoSyncOn() error {
	s.Scheduled = true
	return nil
}

// AutoSyncOff marks scheduled syncs as stopped.
func (s *StubService) AutoSyncOff() error {
	s.Scheduled = false
	return nil
}

// OnSyncCompleted ignores fn.
func (s *StubService) OnSyncCompleted(launchsync.SyncCompletedHook) {}

// OnSyncFailed ignores fn.
func (s *StubService) OnSyncFailed(launchsync.SyncFailedHook) {}

// LedgerEnabled reports true.
func (s *StubService) LedgerEnabled() bool { return true }

// Close marks the stub closed.
func (s *StubService) Close() error {
	s.Closed = true
	return nil
}

var _ launchsync.Service = (*StubService)(nil)
