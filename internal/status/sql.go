package status

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id             TEXT PRIMARY KEY,
	sync_type      TEXT NOT NULL,
	state          TEXT NOT NULL,
	started_at     TEXT NOT NULL,
	completed_at   TEXT,
	records_synced INTEGER,
	error_message  TEXT,
	source_api     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_type_started ON sync_runs (sync_type, started_at);`

const columns = `id, sync_type, state, started_at, completed_at, records_synced, error_message, source_api`

type runRow struct {
	ID            string         `db:"id"`
	SyncType      string         `db:"sync_type"`
	State         string         `db:"state"`
	StartedAt     string         `db:"started_at"`
	CompletedAt   sql.NullString `db:"completed_at"`
	RecordsSynced sql.NullInt64  `db:"records_synced"`
	ErrorMessage  sql.NullString `db:"error_message"`
	SourceAPI     string         `db:"source_api"`
}

func (r runRow) run() (Run, error) {
	started, err := time.Parse(store.TimeLayout, r.StartedAt)
	if err != nil {
		return Run{}, errors.WrapParse("time", "sync_runs.started_at", err)
	}
	out := Run{
		ID:        r.ID,
		Type:      r.SyncType,
		State:     State(r.State),
		StartedAt: started,
		Error:     r.ErrorMessage.String,
		SourceAPI: r.SourceAPI,
	}
	if r.CompletedAt.Valid {
		done, err := time.Parse(store.TimeLayout, r.CompletedAt.String)
		if err != nil {
			return Run{}, errors.WrapParse("time", "sync_runs.completed_at", err)
		}
		out.CompletedAt = &done
	}
	if r.RecordsSynced.Valid {
		n := int(r.RecordsSynced.Int64)
		out.RecordsSynced = &n
	}
	return out, nil
}

// SQLStore is a Store over the sync_runs table.
type SQLStore struct {
	db *sqlx.DB

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewSQLStore creates the sync_runs table if needed and returns the store.
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.WrapResource("migrate", "database", "sync_runs", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// stamp returns a strictly increasing UTC timestamp so runs started in the
// same clock tick still order deterministically.
func (s *SQLStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now().UTC().Truncate(time.Nanosecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// Start implements Store.
func (s *SQLStore) Start(ctx context.Context, syncType, sourceAPI string) (string, error) {
	id := uuid.NewString()
	q := s.db.Rebind(`INSERT INTO sync_runs (id, sync_type, state, started_at, source_api) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, id, syncType, string(InProgress), s.stamp().Format(store.TimeLayout), sourceAPI); err != nil {
		return "", errors.WrapResource("create", "sync_run", syncType, err)
	}
	return id, nil
}

func (s *SQLStore) finish(ctx context.Context, runID string, state State, records any, msg any) error {
	q := s.db.Rebind(`UPDATE sync_runs
		SET state = ?, completed_at = ?, records_synced = ?, error_message = ?
		WHERE id = ? AND state = ?`)
	res, err := s.db.ExecContext(ctx, q,
		string(state), s.stamp().Format(store.TimeLayout), records, msg, runID, string(InProgress))
	if err != nil {
		return errors.WrapResource("update", "sync_run", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapResource("update", "sync_run", runID, err)
	}
	if n == 1 {
		return nil
	}

	run, ok, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("sync run", runID)
	}
	return errors.NewInvariantError("single terminal transition",
		fmt.Sprintf("run %s is already %s", runID, run.State))
}

// Succeed implements Store.
func (s *SQLStore) Succeed(ctx context.Context, runID string, recordsSynced int) error {
	return s.finish(ctx, runID, Success, recordsSynced, nil)
}

// Fail implements Store.
func (s *SQLStore) Fail(ctx context.Context, runID string, cause error) error {
	return s.finish(ctx, runID, Failed, nil, errorText(cause))
}

func (s *SQLStore) one(ctx context.Context, where string, args ...any) (Run, bool, error) {
	var row runRow
	q := s.db.Rebind(`SELECT ` + columns + ` FROM sync_runs WHERE ` + where + ` ORDER BY started_at DESC LIMIT 1`)
	err := s.db.GetContext(ctx, &row, q, args...)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, errors.WrapResource("load", "sync_run", "", err)
	}
	run, err := row.run()
	return run, err == nil, err
}

func (s *SQLStore) many(ctx context.Context, query string, args ...any) ([]Run, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.WrapResource("load", "sync_run", "", err)
	}
	out := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.run()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, runID string) (Run, bool, error) {
	return s.one(ctx, `id = ?`, runID)
}

// Latest implements Store.
func (s *SQLStore) Latest(ctx context.Context, syncType string) (Run, bool, error) {
	return s.one(ctx, `sync_type = ?`, syncType)
}

// LatestSuccessful implements Store.
func (s *SQLStore) LatestSuccessful(ctx context.Context, syncType string) (Run, bool, error) {
	return s.one(ctx, `sync_type = ? AND state = ?`, syncType, string(Success))
}

// InProgress implements Store.
func (s *SQLStore) InProgress(ctx context.Context) ([]Run, error) {
	return s.many(ctx, `SELECT `+columns+` FROM sync_runs WHERE state = ? ORDER BY started_at DESC`, string(InProgress))
}

// FailedSince implements Store.
func (s *SQLStore) FailedSince(ctx context.Context, since time.Time) ([]Run, error) {
	return s.many(ctx, `SELECT `+columns+` FROM sync_runs WHERE state = ? AND started_at >= ? ORDER BY started_at DESC`,
		string(Failed), since.UTC().Format(store.TimeLayout))
}

// Recent implements Store. An empty syncType matches every type.
func (s *SQLStore) Recent(ctx context.Context, syncType string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	if syncType == "" {
		return s.many(ctx, `SELECT `+columns+` FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	}
	return s.many(ctx, `SELECT `+columns+` FROM sync_runs WHERE sync_type = ? ORDER BY started_at DESC LIMIT ?`, syncType, limit)
}

// CountByState implements Store.
func (s *SQLStore) CountByState(ctx context.Context) (map[State]int, error) {
	var rows []struct {
		State string `db:"state"`
		N     int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT state, COUNT(*) AS n FROM sync_runs GROUP BY state`); err != nil {
		return nil, errors.WrapResource("count", "sync_run", "", err)
	}
	out := make(map[State]int, len(rows))
	for _, r := range rows {
		out[State(r.State)] = r.N
	}
	return out, nil
}

// AnyInProgress implements Store.
func (s *SQLStore) AnyInProgress(ctx context.Context) (bool, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM sync_runs WHERE state = ?`)
	if err := s.db.GetContext(ctx, &n, q, string(InProgress)); err != nil {
		return false, errors.WrapResource("count", "sync_run", "", err)
	}
	return n > 0, nil
}

// TotalRecordsSynced implements Store.
func (s *SQLStore) TotalRecordsSynced(ctx context.Context, syncType string) (int, error) {
	var n int
	q := s.db.Rebind(`SELECT COALESCE(SUM(records_synced), 0) FROM sync_runs WHERE sync_type = ? AND state = ?`)
	if err := s.db.GetContext(ctx, &n, q, syncType, string(Success)); err != nil {
		return 0, errors.WrapResource("count", "sync_run", syncType, err)
	}
	return n, nil
}
