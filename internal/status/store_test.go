package status

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/errors"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    newSQLStore(t),
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.Start(ctx, "missions", "spacedevs")
			require.NoError(t, err)
			assert.NotEmpty(t, id)

			run, ok, err := s.Latest(ctx, "missions")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, InProgress, run.State)
			assert.Nil(t, run.CompletedAt)
			assert.Nil(t, run.RecordsSynced)
			assert.Equal(t, "spacedevs", run.SourceAPI)

			busy, err := s.AnyInProgress(ctx)
			require.NoError(t, err)
			assert.True(t, busy)

			require.NoError(t, s.Succeed(ctx, id, 42))

			run, ok, err = s.Get(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, Success, run.State)
			require.NotNil(t, run.CompletedAt)
			require.NotNil(t, run.RecordsSynced)
			assert.Equal(t, 42, *run.RecordsSynced)
			assert.GreaterOrEqual(t, run.Duration(), time.Duration(0))

			busy, err = s.AnyInProgress(ctx)
			require.NoError(t, err)
			assert.False(t, busy)
		})
	}
}

func TestStore_SecondTerminalTransitionIsInvariantViolation(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := s.Start(ctx, "engines", "truthledger")
			require.NoError(t, err)
			require.NoError(t, s.Fail(ctx, id, fmt.Errorf("provider down")))

			err = s.Succeed(ctx, id, 1)
			require.Error(t, err)
			assert.True(t, errors.IsInvariantViolation(err))

			err = s.Fail(ctx, id, nil)
			assert.True(t, errors.IsInvariantViolation(err))

			run, _, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, Failed, run.State, "first transition stands")
			assert.Equal(t, "provider down", run.Error)
		})
	}
}

func TestStore_UnknownRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Succeed(context.Background(), "no-such-run", 1)
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestStore_Queries(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			before := time.Now().Add(-time.Minute)

			a, _ := s.Start(ctx, "missions", "spacedevs")
			require.NoError(t, s.Succeed(ctx, a, 10))
			b, _ := s.Start(ctx, "missions", "spacedevs")
			require.NoError(t, s.Fail(ctx, b, fmt.Errorf("boom")))
			c, _ := s.Start(ctx, "missions", "spacedevs")
			require.NoError(t, s.Succeed(ctx, c, 5))
			d, _ := s.Start(ctx, "engines", "truthledger")

			latest, ok, err := s.Latest(ctx, "missions")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, c, latest.ID)

			succ, ok, err := s.LatestSuccessful(ctx, "missions")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, c, succ.ID)

			_, ok, err = s.Latest(ctx, "launch_sites")
			require.NoError(t, err)
			assert.False(t, ok)

			recent, err := s.Recent(ctx, "missions", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, c, recent[0].ID)
			assert.Equal(t, b, recent[1].ID)

			all, err := s.Recent(ctx, "", 10)
			require.NoError(t, err)
			assert.Len(t, all, 4)
			assert.Equal(t, d, all[0].ID)

			running, err := s.InProgress(ctx)
			require.NoError(t, err)
			require.Len(t, running, 1)
			assert.Equal(t, d, running[0].ID)

			failed, err := s.FailedSince(ctx, before)
			require.NoError(t, err)
			require.Len(t, failed, 1)
			assert.Equal(t, b, failed[0].ID)

			failed, err = s.FailedSince(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Empty(t, failed)

			counts, err := s.CountByState(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[State]int{Success: 2, Failed: 1, InProgress: 1}, counts)

			total, err := s.TotalRecordsSynced(ctx, "missions")
			require.NoError(t, err)
			assert.Equal(t, 15, total)
		})
	}
}

func TestMemoryStore_MustPanicsOnSecondTransition(t *testing.T) {
	s := NewMemoryStore()
	id, err := s.Start(context.Background(), "missions", "spacedevs")
	require.NoError(t, err)

	s.MustSucceed(id, 3)
	assert.Panics(t, func() { s.MustSucceed(id, 3) })
	assert.Panics(t, func() { s.MustFail(id, fmt.Errorf("late")) })
}

func TestSQLStore_UpdateFailure(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sync_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLStore(context.Background(), sqlx.NewDb(raw, "postgres"))
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sync_runs")).
		WithArgs(string(Success), sqlmock.AnyArg(), 7, nil, "run-1", string(InProgress)).
		WillReturnError(assert.AnError)

	err = s.Succeed(context.Background(), "run-1", 7)
	require.Error(t, err)
	var resErr *errors.ResourceError
	assert.ErrorAs(t, err, &resErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ConditionalUpdate(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sync_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLStore(context.Background(), sqlx.NewDb(raw, "postgres"))
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $5 AND state = $6")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sync_type", "state", "started_at", "completed_at", "records_synced", "error_message", "source_api"}).
			AddRow("run-1", "missions", "SUCCESS", "2026-01-01T00:00:00.000000000Z", "2026-01-01T00:01:00.000000000Z", 3, nil, "spacedevs"))

	err = s.Fail(context.Background(), "run-1", fmt.Errorf("late failure"))
	assert.True(t, errors.IsInvariantViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
