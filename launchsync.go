// Package launchsync keeps a local catalog of space missions, launch sites,
// launch vehicles, and engines in step with two upstream providers: a
// public launch-data API and an optional verification ledger that scores
// individual facts.
//
// A Service fetches each sync category on demand or on a schedule, matches
// fetched records against stored entities by normalized name, merges the
// new values field by field, and records every run so health can be judged
// from the run history.
//
// Example usage:
//
//	svc, err := launchsync.New(
//	    launchsync.WithDatabase("sqlite", "file:launchsync.db"),
//	    launchsync.WithTruthLedger("http://localhost:3000/api/v1"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	svc.OnSyncCompleted(func(r sync.Result) {
//	    log.Println(r.Summary())
//	})
//
//	result, err := svc.RunSync(ctx, sync.Missions, 50)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package launchsync

import (
	"context"
	stderrors "errors"
	stdsync "sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/country"
	"github.com/agentstation/launchsync/internal/merge"
	"github.com/agentstation/launchsync/internal/metrics"
	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/sources/spacedevs"
	"github.com/agentstation/launchsync/internal/sources/truthledger"
	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/internal/sync"
	"github.com/agentstation/launchsync/internal/transport"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Service    = (*client)(nil)
	_ Syncer     = (*client)(nil)
	_ Status     = (*client)(nil)
	_ AutoSyncer = (*client)(nil)
	_ Hooks      = (*client)(nil)
)

// Syncer runs sync categories.
type Syncer interface {
	// RunSync runs one category. A limit of zero uses the default.
	RunSync(ctx context.Context, category sync.Category, limit int) (sync.Result, error)

	// RunYear syncs the launches of one calendar year into missions.
	RunYear(ctx context.Context, year, limit int) (sync.Result, error)

	// RunAll runs every enabled category.
	RunAll(ctx context.Context, limit int) (map[sync.Category]sync.Result, error)
}

// Status reads the run history.
type Status interface {
	// Health judges every category from its recent runs.
	Health(ctx context.Context) (status.Report, error)

	// Runs lists recent runs, newest first. An empty syncType lists all.
	Runs(ctx context.Context, syncType string, limit int) ([]status.Run, error)

	// Latest returns the newest run per category, nil where none exists.
	Latest(ctx context.Context) (map[string]*status.Run, error)
}

// Service is the complete launchsync API.
type Service interface {
	Syncer
	Status
	AutoSyncer
	Hooks

	// LedgerEnabled reports whether the verification categories can run.
	LedgerEnabled() bool

	// Close stops automatic syncs and releases the database.
	Close() error
}

// client implements Service.
type client struct {
	options *options
	logger  *zerolog.Logger

	orchestrator *sync.Orchestrator
	runs         status.Store
	checker      *status.Checker
	db           *sqlx.DB

	hooks *hooks

	// auto-sync state
	mu       stdsync.Mutex
	ticker   *time.Ticker
	stopCh   chan struct{}
	cancel   context.CancelFunc
	closeOne stdsync.Once
}

// New wires the providers, storage, and orchestrator described by opts.
func New(opts ...Option) (Service, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	logger := logging.OrDefault(o.logger)

	c := &client{
		options: o,
		logger:  logger,
		hooks:   newHooks(),
		stopCh:  make(chan struct{}),
	}

	var m *metrics.Metrics
	if o.registry != nil {
		m = metrics.New(o.registry)
	}

	ctx := context.Background()
	repos, err := c.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	syncOpts := []sync.Option{
		sync.WithLogger(logger),
		sync.WithMerger(merge.New(merge.WithThreshold(o.threshold), merge.WithLogger(logger))),
	}
	if m != nil {
		syncOpts = append(syncOpts, sync.WithMetrics(m))
	}
	var checkOpts []status.CheckerOption
	if o.ledgerEnabled {
		ledger := c.ledgerClient(m)
		syncOpts = append(syncOpts, sync.WithLedger(ledger))
		checkOpts = append(checkOpts, status.WithLedgerCheck(ledger.Healthy))
	}
	c.orchestrator = sync.New(c.spaceDevsClient(m), repos, c.runs, syncOpts...)
	c.checker = status.NewChecker(c.runs, categoryNames(), checkOpts...)

	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// openStorage returns the entity repositories and sets the run store. A
// database is opened, migrated, and seeded with countries when configured.
func (c *client) openStorage(ctx context.Context) (store.Repositories, error) {
	countries, err := country.Seed()
	if err != nil {
		return store.Repositories{}, err
	}

	if c.options.dbDriver == "" {
		c.runs = status.NewMemoryStore()
		return store.NewMemoryRepositories(countries), nil
	}

	db, err := store.Open(ctx, c.options.dbDriver, c.options.dbDSN)
	if err != nil {
		return store.Repositories{}, err
	}
	seeded, err := store.NewCountries(db).SeedIfEmpty(ctx, countries)
	if err != nil {
		_ = db.Close()
		return store.Repositories{}, err
	}
	if seeded > 0 {
		c.logger.Info().Int("countries", seeded).Msg("Seeded reference countries")
	}
	runs, err := status.NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return store.Repositories{}, err
	}
	c.db = db
	c.runs = runs
	return store.NewSQLRepositories(db), nil
}

func (c *client) resilientClient(name string, m *metrics.Metrics) *resilient.Client {
	opts := []resilient.Option{resilient.WithLogger(c.logger)}
	if m != nil {
		opts = append(opts, resilient.WithObserver(m))
	}
	return resilient.New(c.options.resilience[name], opts...)
}

func (c *client) spaceDevsClient(m *metrics.Metrics) *spacedevs.Client {
	topts := []transport.Option{}
	if c.options.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(c.options.httpClient))
	}
	if c.options.spaceDevsKey != "" {
		topts = append(topts, transport.WithAuth(&transport.TokenAuth{}, c.options.spaceDevsKey))
	}
	http := transport.New(constants.SourceSpaceDevs, c.options.spaceDevsURL, topts...)
	return spacedevs.New(http, c.resilientClient(constants.SourceSpaceDevs, m), c.logger)
}

func (c *client) ledgerClient(m *metrics.Metrics) *truthledger.Client {
	topts := []transport.Option{}
	if c.options.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(c.options.httpClient))
	}
	http := transport.New(constants.SourceTruthLedger, c.options.ledgerURL, topts...)
	return truthledger.New(http, c.resilientClient(constants.SourceTruthLedger, m),
		truthledger.WithFactCacheTTL(c.options.factCacheTTL),
		truthledger.WithLogger(c.logger),
	)
}

func categoryNames() []string {
	cats := sync.Categories()
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = string(cat)
	}
	return names
}

// RunSync runs one category.
func (c *client) RunSync(ctx context.Context, category sync.Category, limit int) (sync.Result, error) {
	result, err := c.orchestrator.RunSync(ctx, category, limit)
	c.hooks.fire(result, err)
	return result, err
}

// RunYear syncs the launches of one calendar year.
func (c *client) RunYear(ctx context.Context, year, limit int) (sync.Result, error) {
	result, err := c.orchestrator.RunYear(ctx, year, limit)
	c.hooks.fire(result, err)
	return result, err
}

// RunAll runs every enabled category.
func (c *client) RunAll(ctx context.Context, limit int) (map[sync.Category]sync.Result, error) {
	results, err := c.orchestrator.RunAll(ctx, limit)
	failed := failedCategories(err)
	for _, r := range results {
		c.hooks.fire(r, failed[r.Category])
	}
	return results, err
}

// failedCategories maps each category in a RunAll error to its own error.
func failedCategories(err error) map[sync.Category]error {
	out := make(map[sync.Category]error)
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var syncErr *errors.SyncError
		if stderrors.As(err, &syncErr) {
			out[sync.Category(syncErr.Category)] = err
		}
	}
	if err != nil {
		walk(err)
	}
	return out
}

// LedgerEnabled reports whether the verification categories can run.
func (c *client) LedgerEnabled() bool { return c.orchestrator.LedgerEnabled() }

// Health judges every category from its recent runs and, when the
// verification provider is configured, reports whether it is reachable.
func (c *client) Health(ctx context.Context) (status.Report, error) {
	return c.checker.Check(ctx)
}

// Runs lists recent runs.
func (c *client) Runs(ctx context.Context, syncType string, limit int) ([]status.Run, error) {
	if limit <= 0 {
		limit = constants.DefaultRunsLimit
	}
	return c.runs.Recent(ctx, syncType, limit)
}

// Latest returns the newest run per category.
func (c *client) Latest(ctx context.Context) (map[string]*status.Run, error) {
	out := make(map[string]*status.Run)
	for _, name := range categoryNames() {
		run, ok, err := c.runs.Latest(ctx, name)
		if err != nil {
			return nil, errors.WrapResource("load", "sync_run", name, err)
		}
		if !ok {
			out[name] = nil
			continue
		}
		out[name] = &run
	}
	return out, nil
}

// Close stops automatic syncs and releases the database.
func (c *client) Close() error {
	var err error
	c.closeOne.Do(func() {
		_ = c.AutoSyncOff()
		if c.db != nil {
			err = errors.WrapIO("close", "database", c.db.Close())
		}
	})
	return err
}
