package launchsync

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

const launchesPage = `{
	"count": 1, "next": null, "previous": null,
	"results": [
		{"id":"crew-9","name":"Falcon 9 | Crew-9","status":{"id":3,"name":"Launch Successful","abbrev":"Success"},
		 "net":"2024-09-28T17:17:00Z",
		 "launch_service_provider":{"name":"SpaceX","country_code":"USA"},
		 "mission":{"name":"Crew-9","type":"Human Exploration","orbit":{"abbrev":"LEO"}}}
	]}`

const emptyPage = `{"count": 0, "next": null, "previous": null, "results": []}`

// newLaunchAPI serves one previous launch and empty lists elsewhere.
func newLaunchAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/launch/previous/" {
			_, _ = w.Write([]byte(launchesPage))
			return
		}
		_, _ = w.Write([]byte(emptyPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(t *testing.T, extra ...Option) []Option {
	t.Helper()
	srv := newLaunchAPI(t)
	cfg := resilient.DefaultConfig(constants.SourceSpaceDevs)
	cfg.Retry.MaxAttempts = 1
	cfg.Limit.RatePerSecond = 1000
	cfg.Limit.Burst = 100
	return append([]Option{
		WithSpaceDevs(srv.URL, ""),
		WithResilience(cfg),
		WithLogger(logging.NewNopLogger()),
	}, extra...)
}

func newTestService(t *testing.T, extra ...Option) Service {
	t.Helper()
	svc, err := New(testOptions(t, extra...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"unsupported driver", WithDatabase("mysql", "root@/db")},
		{"empty dsn", WithDatabase("sqlite", " ")},
		{"threshold above one", WithTruthThreshold(1.5)},
		{"negative threshold", WithTruthThreshold(-0.1)},
		{"zero interval", WithAutoSync(0)},
		{"zero limit", WithSyncLimit(0)},
		{"unknown dependency", WithResilience(resilient.DefaultConfig("weather"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestRunSync_InMemory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var completed []sync.Result
	svc.OnSyncCompleted(func(r sync.Result) { completed = append(completed, r) })

	res, err := svc.RunSync(ctx, sync.Missions, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.Created)
	require.Len(t, completed, 1)
	assert.Equal(t, sync.Missions, completed[0].Category)

	res, err = svc.RunSync(ctx, sync.Missions, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)
}

func TestRunSync_LedgerDisabled(t *testing.T) {
	svc := newTestService(t)
	assert.False(t, svc.LedgerEnabled())

	var failures []error
	svc.OnSyncFailed(func(_ sync.Result, err error) { failures = append(failures, err) })

	_, err := svc.RunSync(context.Background(), sync.Engines, 0)
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, failures, 1)

	runs, err := svc.Runs(context.Background(), "engines", 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "a rejected category writes no run")
}

func TestStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RunSync(ctx, sync.Missions, 5)
	require.NoError(t, err)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	require.Contains(t, latest, "missions")
	require.NotNil(t, latest["missions"])
	assert.Equal(t, status.Success, latest["missions"].State)
	assert.Nil(t, latest["engines"])

	report, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.True(t, report.Up)
	assert.Equal(t, "SUCCESS", report.Categories["missions"].Details["status"])
	assert.Equal(t, "NOT_STARTED", report.Categories["upcoming"].Details["status"])
	assert.Nil(t, report.Ledger)
	assert.Equal(t, 1, report.Summary.Runs[status.Success])

	runs, err := svc.Runs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHealth_ReportsLedger(t *testing.T) {
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ledger.Close)

	svc := newTestService(t, WithTruthLedger(ledger.URL))
	require.True(t, svc.LedgerEnabled())

	report, err := svc.Health(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report.Ledger)
	assert.True(t, report.Ledger.Up)
}

func TestRunAll_FiresHooksPerCategory(t *testing.T) {
	svc := newTestService(t)

	seen := map[sync.Category]bool{}
	svc.OnSyncCompleted(func(r sync.Result) { seen[r.Category] = true })

	results, err := svc.RunAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, 1, results[sync.Missions].Created)
	for c := range results {
		assert.True(t, seen[c], c)
	}
}

func TestFailedCategories(t *testing.T) {
	sites := errors.NewSyncError("launch_sites", "r-1", errors.NewInvariantError("unique name", "Baikonur"))
	missions := errors.NewSyncError("missions", "r-2", context.Canceled)

	tests := []struct {
		name string
		err  error
		want map[sync.Category]error
	}{
		{"nil", nil, map[sync.Category]error{}},
		{"single", sites, map[sync.Category]error{sync.LaunchSites: sites}},
		{"joined", stderrors.Join(sites, missions), map[sync.Category]error{sync.LaunchSites: sites, sync.Missions: missions}},
		{"not a sync error", context.Canceled, map[sync.Category]error{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failedCategories(tt.err))
		})
	}
}

func TestRunSync_SQLite(t *testing.T) {
	svc := newTestService(t, WithDatabase("sqlite", ":memory:"))
	ctx := context.Background()

	res, err := svc.RunSync(ctx, sync.Missions, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	res, err = svc.RunSync(ctx, sync.Missions, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	runs, err := svc.Runs(ctx, "missions", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, status.Success, r.State)
		assert.Equal(t, constants.SourceSpaceDevs, r.SourceAPI)
	}
}

func TestRunYear_OutOfRange(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RunYear(context.Background(), 1900, 10)
	assert.True(t, errors.IsValidationError(err))
}

func TestRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(t, WithRegistry(reg))

	_, err := svc.RunSync(context.Background(), sync.Missions, 10)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["launchsync_sync_runs_total"])
	assert.True(t, names["launchsync_dependency_calls_total"])
}

func TestAutoSync(t *testing.T) {
	done := make(chan sync.Result, 16)
	svc := newTestService(t, WithAutoSync(20*time.Millisecond))
	svc.OnSyncCompleted(func(r sync.Result) {
		select {
		case done <- r:
		default:
		}
	})

	select {
	case r := <-done:
		assert.NotEmpty(t, r.Category)
	case <-time.After(5 * time.Second):
		t.Fatal("auto-sync never ran")
	}

	require.NoError(t, svc.AutoSyncOff())
	require.NoError(t, svc.AutoSyncOff(), "stopping twice is harmless")
}

func TestAutoSyncOn_RequiresInterval(t *testing.T) {
	svc := newTestService(t)
	assert.True(t, errors.IsValidationError(svc.AutoSyncOn()))
}

func TestClose_Idempotent(t *testing.T) {
	svc, err := New(testOptions(t, WithDatabase("sqlite", ":memory:"))...)
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}
