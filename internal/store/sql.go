package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/agentstation/launchsync/internal/matcher"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// TimeLayout is the fixed-width UTC layout timestamps are stored in, so
// lexical order matches time order on every driver.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	kind       TEXT NOT NULL,
	key        TEXT NOT NULL,
	name       TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, key)
);
CREATE TABLE IF NOT EXISTS countries (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);`

// Open connects to driver/dsn and creates the entity tables.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.NewConfigError("database", "unsupported driver "+driver, nil)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.WrapResource("open", "database", driver, err)
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases shared and writes serialized
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("connect", "database", driver, err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the entity and country tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.WrapResource("migrate", "database", "entities", err)
	}
	return nil
}

type entityRow struct {
	Name string `db:"name"`
	Body string `db:"body"`
}

// SQL is a Repository over the entities table. The primary key on the
// folded name makes the database enforce entity identity.
type SQL[T catalog.Keyed] struct {
	db   *sqlx.DB
	kind string
	now  func() time.Time
}

// NewSQL returns a SQL repository for one entity kind.
func NewSQL[T catalog.Keyed](db *sqlx.DB, kind string) *SQL[T] {
	return &SQL[T]{db: db, kind: kind, now: time.Now}
}

// FindAll implements Repository.
func (s *SQL[T]) FindAll(ctx context.Context) ([]T, error) {
	var rows []entityRow
	q := s.db.Rebind(`SELECT name, body FROM entities WHERE kind = ? ORDER BY key`)
	if err := s.db.SelectContext(ctx, &rows, q, s.kind); err != nil {
		return nil, errors.WrapResource("load", s.kind, "", err)
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var e T
		if err := json.Unmarshal([]byte(r.Body), &e); err != nil {
			return nil, errors.WrapParse("json", s.kind+" "+r.Name, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// FindByKey implements Repository.
func (s *SQL[T]) FindByKey(ctx context.Context, key string) (T, bool, error) {
	var zero T
	var row entityRow
	q := s.db.Rebind(`SELECT name, body FROM entities WHERE kind = ? AND key = ?`)
	err := s.db.GetContext(ctx, &row, q, s.kind, matcher.Key(key))
	if stderrors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.WrapResource("load", s.kind, key, err)
	}
	var e T
	if err := json.Unmarshal([]byte(row.Body), &e); err != nil {
		return zero, false, errors.WrapParse("json", s.kind+" "+row.Name, err)
	}
	return e, true, nil
}

// Save implements Repository as an upsert on (kind, key).
func (s *SQL[T]) Save(ctx context.Context, entity T) (T, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return entity, errors.WrapParse("json", s.kind+" "+entity.Key(), err)
	}
	q := s.db.Rebind(`INSERT INTO entities (kind, key, name, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, key) DO UPDATE
		SET name = excluded.name, body = excluded.body, updated_at = excluded.updated_at`)
	_, err = s.db.ExecContext(ctx, q,
		s.kind, matcher.Key(entity.Key()), entity.Key(), string(body), s.now().UTC().Format(TimeLayout))
	if err != nil {
		return entity, errors.WrapResource("save", s.kind, entity.Key(), err)
	}
	return entity, nil
}

// Countries is the country reference table.
type Countries struct {
	db *sqlx.DB
}

// NewCountries returns the country repository over db.
func NewCountries(db *sqlx.DB) *Countries {
	return &Countries{db: db}
}

// FindAll implements CountryRepository.
func (c *Countries) FindAll(ctx context.Context) ([]catalog.Country, error) {
	var out []catalog.Country
	if err := c.db.SelectContext(ctx, &out, `SELECT code, name FROM countries ORDER BY code`); err != nil {
		return nil, errors.WrapResource("load", "country", "", err)
	}
	return out, nil
}

// SeedIfEmpty inserts countries when the table has none. It reports how
// many rows were written.
func (c *Countries) SeedIfEmpty(ctx context.Context, countries []catalog.Country) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM countries`); err != nil {
		return 0, errors.WrapResource("count", "country", "", err)
	}
	if n > 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.WrapResource("seed", "country", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := tx.Rebind(`INSERT INTO countries (code, name) VALUES (?, ?)`)
	for _, ct := range countries {
		if _, err := tx.ExecContext(ctx, q, ct.Code, ct.Name); err != nil {
			return 0, errors.WrapResource("seed", "country", ct.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.WrapResource("seed", "country", "", err)
	}
	return len(countries), nil
}

// NewSQLRepositories returns repositories over db.
func NewSQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Missions:       NewSQL[catalog.Mission](db, KindMission),
		LaunchSites:    NewSQL[catalog.LaunchSite](db, KindLaunchSite),
		Engines:        NewSQL[catalog.Engine](db, KindEngine),
		LaunchVehicles: NewSQL[catalog.LaunchVehicle](db, KindLaunchVehicle),
		Countries:      NewCountries(db),
	}
}
