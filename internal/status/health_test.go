package status

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_NeverRun(t *testing.T) {
	c := NewChecker(NewMemoryStore(), []string{"missions"})
	ind, err := c.CheckType(context.Background(), "missions")
	require.NoError(t, err)
	assert.True(t, ind.Up)
	assert.Equal(t, "Never", ind.Details["lastSyncTime"])
	assert.Equal(t, "NOT_STARTED", ind.Details["status"])
}

func TestChecker_States(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, _ := s.Start(ctx, "missions", "spacedevs")
	s.MustSucceed(ok, 12)

	bad, _ := s.Start(ctx, "engines", "truthledger")
	s.MustFail(bad, fmt.Errorf("ledger unreachable"))

	_, _ = s.Start(ctx, "launch_sites", "spacedevs")

	c := NewChecker(s, []string{"missions", "engines", "launch_sites"})
	report, err := c.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.Up)

	missions := report.Categories["missions"]
	assert.True(t, missions.Up)
	assert.Equal(t, "SUCCESS", missions.Details["status"])
	assert.Equal(t, 12, missions.Details["recordsSynced"])
	assert.Equal(t, "1/1", missions.Details["recentSuccessRate"])
	assert.Contains(t, missions.Details, "completedAt")

	engines := report.Categories["engines"]
	assert.False(t, engines.Up)
	assert.Equal(t, "ledger unreachable", engines.Details["error"])
	assert.Equal(t, "0/1", engines.Details["recentSuccessRate"])

	sites := report.Categories["launch_sites"]
	assert.True(t, sites.Up)
	assert.Equal(t, "IN_PROGRESS", sites.Details["status"])
	assert.NotContains(t, sites.Details, "stale")
}

func TestChecker_StaleInProgress(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.Start(ctx, "missions", "spacedevs")

	later := func() time.Time { return time.Now().Add(3 * time.Hour) }
	c := NewChecker(s, []string{"missions"}, WithClock(later), WithStaleAfter(2*time.Hour))
	ind, err := c.CheckType(ctx, "missions")
	require.NoError(t, err)
	assert.False(t, ind.Up, "an abandoned run is not success")
	assert.Equal(t, true, ind.Details["stale"])
}

func TestChecker_SuccessRateWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 7; i++ {
		id, _ := s.Start(ctx, "missions", "spacedevs")
		if i%2 == 0 {
			s.MustSucceed(id, i)
		} else {
			s.MustFail(id, fmt.Errorf("run %d", i))
		}
	}

	ind, err := NewChecker(s, []string{"missions"}).CheckType(ctx, "missions")
	require.NoError(t, err)
	// last five runs: i=2..6 -> successes at 2, 4, 6
	assert.Equal(t, "3/5", ind.Details["recentSuccessRate"])
	assert.True(t, ind.Up)

	ind, err = NewChecker(s, []string{"missions"}, WithWindow(2)).CheckType(ctx, "missions")
	require.NoError(t, err)
	assert.Equal(t, "1/2", ind.Details["recentSuccessRate"])
}

func TestChecker_Summary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, _ := s.Start(ctx, "missions", "spacedevs")
	s.MustSucceed(first, 4)
	second, _ := s.Start(ctx, "missions", "spacedevs")
	s.MustSucceed(second, 6)
	bad, _ := s.Start(ctx, "missions", "spacedevs")
	s.MustFail(bad, fmt.Errorf("timeout"))
	_, _ = s.Start(ctx, "upcoming", "spacedevs")

	report, err := NewChecker(s, []string{"missions", "upcoming"}).Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[State]int{Success: 2, Failed: 1, InProgress: 1}, report.Summary.Runs)
	assert.True(t, report.Summary.Syncing)
	assert.Equal(t, 1, report.Summary.RecentFailed)
	assert.Equal(t, "24h0m0s", report.Summary.FailureWindow)
	assert.Nil(t, report.Ledger)

	missions := report.Categories["missions"]
	assert.False(t, missions.Up)
	assert.Equal(t, 10, missions.Details["totalRecordsSynced"])
	assert.NotEqual(t, "Never", missions.Details["lastSuccessTime"])

	upcoming := report.Categories["upcoming"]
	assert.Equal(t, "Never", upcoming.Details["lastSuccessTime"])
	assert.Equal(t, 0, upcoming.Details["totalRecordsSynced"])

	// failures older than the window are not counted
	later := func() time.Time { return time.Now().Add(48 * time.Hour) }
	report, err = NewChecker(s, []string{"missions"}, WithClock(later)).Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.RecentFailed)
}

func TestChecker_LedgerReachability(t *testing.T) {
	tests := []struct {
		name    string
		healthy bool
	}{
		{name: "reachable", healthy: true},
		{name: "unreachable does not mark the report down", healthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reachable := func(context.Context) bool { return tt.healthy }
			report, err := NewChecker(NewMemoryStore(), []string{"engines"}, WithLedgerCheck(reachable)).Check(context.Background())
			require.NoError(t, err)
			require.NotNil(t, report.Ledger)
			assert.Equal(t, tt.healthy, report.Ledger.Up)
			assert.Equal(t, tt.healthy, report.Ledger.Details["healthy"])
			assert.True(t, report.Up)
		})
	}
}
