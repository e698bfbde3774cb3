package sync

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/launchsync/internal/country"
	"github.com/agentstation/launchsync/internal/matcher"
	"github.com/agentstation/launchsync/internal/merge"
	"github.com/agentstation/launchsync/internal/metrics"
	"github.com/agentstation/launchsync/internal/sources/spacedevs"
	"github.com/agentstation/launchsync/internal/sources/truthledger"
	"github.com/agentstation/launchsync/internal/status"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

// LaunchSource is the launch-data provider as the orchestrator uses it.
// Implementations absorb provider failures and return empty lists.
type LaunchSource interface {
	PreviousLaunches(ctx context.Context, limit int) []spacedevs.Launch
	UpcomingLaunches(ctx context.Context, limit int) []spacedevs.Launch
	LaunchesByYear(ctx context.Context, year, limit int) []spacedevs.Launch
	LauncherConfigs(ctx context.Context, limit int) []spacedevs.LauncherConfig
	Pads(ctx context.Context, limit int) []spacedevs.Pad
}

// LedgerSource is the verification provider as the orchestrator uses it.
type LedgerSource interface {
	ListAllEntities(ctx context.Context, entityType string) []truthledger.Entity
	EntityFacts(ctx context.Context, entityID string, truthMin float64) (truthledger.EntityFacts, bool)
}

// Orchestrator runs sync categories against the repositories and records
// every run in the status store.
type Orchestrator struct {
	launches LaunchSource
	ledger   LedgerSource
	repos    store.Repositories
	status   status.Store
	merger   *merge.Merger
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLedger enables the verification categories.
func WithLedger(ledger LedgerSource) Option {
	return func(o *Orchestrator) { o.ledger = ledger }
}

// WithMetrics records run and record counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMerger replaces the default merger.
func WithMerger(m *merge.Merger) Option {
	return func(o *Orchestrator) { o.merger = m }
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator.
func New(launches LaunchSource, repos store.Repositories, runs status.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		launches: launches,
		repos:    repos,
		status:   runs,
		merger:   merge.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrDefault(o.logger)
	return o
}

// LedgerEnabled reports whether the verification categories can run.
func (o *Orchestrator) LedgerEnabled() bool { return o.ledger != nil }

// RunSync runs one category with a fresh country context.
func (o *Orchestrator) RunSync(ctx context.Context, category Category, limit int) (Result, error) {
	return o.runCategory(ctx, category, limit, country.NewContext())
}

// RunYear syncs the launches of one calendar year into missions.
func (o *Orchestrator) RunYear(ctx context.Context, year, limit int) (Result, error) {
	if year < 1957 || year > o.now().Year()+10 {
		return Result{Category: MissionsByYear}, errors.NewValidationError("year", year, "year out of range")
	}
	return o.execute(ctx, MissionsByYear, country.NewContext(), func(ctx context.Context, r *run) error {
		return r.missions(ctx, o.launches.LaunchesByYear(ctx, year, limitOrDefault(limit)))
	})
}

// RunAll runs every enabled category. Categories writing different entity
// types run concurrently; categories sharing one run in order. All runs
// share one country context. The first failure cancels the others: runs in
// flight are recorded as FAILED and no further category starts. Results are
// returned for every category that started, along with the errors of every
// failed category joined in category order.
func (o *Orchestrator) RunAll(ctx context.Context, limit int) (map[Category]Result, error) {
	countries := country.NewContext()

	var groups [][]Category
	seen := make(map[string]int)
	for _, c := range Categories() {
		if c.Ledger() && !o.LedgerEnabled() {
			continue
		}
		key := c.entityGroup()
		i, ok := seen[key]
		if !ok {
			i = len(groups)
			seen[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}

	results := make([][]Result, len(groups))
	errs := make([]error, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			for _, c := range group {
				if err := gctx.Err(); err != nil {
					// a canceled caller is reported; a sibling failure already is
					if ctx.Err() != nil {
						errs[i] = err
					}
					return err
				}
				res, err := o.runCategory(gctx, c, limit, countries)
				results[i] = append(results[i], res)
				if err != nil {
					errs[i] = err
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[Category]Result)
	for _, rs := range results {
		for _, r := range rs {
			out[r.Category] = r
		}
	}
	return out, stderrors.Join(errs...)
}

func (o *Orchestrator) runCategory(ctx context.Context, category Category, limit int, countries *country.Context) (Result, error) {
	if category == MissionsByYear {
		return Result{Category: category}, errors.NewValidationError("category", category, "missions_year requires a year")
	}
	if category.Ledger() && !o.LedgerEnabled() {
		return Result{Category: category}, errors.NewConfigError(string(category), "verification provider is not configured", nil)
	}
	limit = limitOrDefault(limit)
	return o.execute(ctx, category, countries, func(ctx context.Context, r *run) error {
		switch category {
		case Missions:
			return r.missions(ctx, o.launches.PreviousLaunches(ctx, limit))
		case Upcoming:
			return r.missions(ctx, o.launches.UpcomingLaunches(ctx, limit))
		case LaunchSites:
			return r.launchSites(ctx, o.launches.Pads(ctx, limit))
		case LaunchVehicles:
			return r.launcherConfigs(ctx, o.launches.LauncherConfigs(ctx, limit))
		case Engines:
			return r.engines(ctx, o.ledger.ListAllEntities(ctx, truthledger.TypeEngine))
		case VerifiedLaunchVehicles:
			return r.verifiedVehicles(ctx, o.ledger.ListAllEntities(ctx, truthledger.TypeLaunchVehicle))
		default:
			return errors.NewValidationError("category", category, "unknown sync category")
		}
	})
}

// execute owns the status row of one run. The row is written IN_PROGRESS
// before any work and moved to exactly one terminal state afterwards.
func (o *Orchestrator) execute(ctx context.Context, category Category, countries *country.Context, body func(context.Context, *run) error) (Result, error) {
	started := time.Now()
	result := Result{Category: category}

	runID, err := o.status.Start(ctx, string(category), category.Source())
	if err != nil {
		return result, errors.NewSyncError(string(category), "", err)
	}
	result.RunID = runID

	ctx = logging.WithLogger(ctx, o.logger)
	ctx = logging.WithRunID(logging.WithCategory(ctx, string(category)), runID)
	logger := logging.FromContext(ctx)
	logger.Info().Msg("Sync run started")

	r := &run{
		o:        o,
		category: category,
		result:   &result,
		logger:   logger,
	}
	err = errors.WrapResource("load", "countries", "", countries.Populate(ctx, o.repos.Countries))
	if err == nil {
		r.resolver = country.NewResolver(countries)
		err = body(ctx, r)
	}
	// Provider fallbacks turn a canceled fetch into an empty one, so a run
	// whose context ended is never complete.
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	result.SyncedAt = o.now().UTC()

	// Terminal writes must land even when the caller has gone away.
	final := context.WithoutCancel(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Sync run failed")
		if ferr := o.status.Fail(final, runID, err); ferr != nil {
			logger.Error().Err(ferr).Msg("Failed to record run failure")
		}
		o.observe(category, status.Failed, started, result)
		return result, errors.NewSyncError(string(category), runID, err)
	}

	if err := o.status.Succeed(final, runID, result.Total()); err != nil {
		o.observe(category, status.Failed, started, result)
		return result, errors.NewSyncError(string(category), runID, err)
	}
	o.observe(category, status.Success, started, result)
	logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Dur("duration", time.Since(started)).
		Msg("Sync run completed")
	return result, nil
}

func (o *Orchestrator) observe(category Category, state status.State, started time.Time, r Result) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveRecords(string(category), r.Created, r.Updated, r.Skipped)
	o.metrics.ObserveRun(string(category), string(state), started)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return constants.DefaultSyncLimit
	}
	return limit
}

// run is the state of one category run.
type run struct {
	o        *Orchestrator
	category Category
	resolver *country.Resolver
	result   *Result
	logger   *zerolog.Logger
}

// record processes one fetched record and tallies its outcome. Errors and
// panics skip the record; only an invariant violation aborts the run.
func (r *run) record(name string, fn func() (Outcome, error)) error {
	outcome, err := guard(fn)
	if err != nil {
		if errors.IsInvariantViolation(err) {
			return err
		}
		r.logger.Warn().Err(err).Str("record", name).Msg("Skipping record")
		outcome = Skipped
	}
	r.result.count(outcome)
	return nil
}

func guard(fn func() (Outcome, error)) (outcome Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			outcome, err = Skipped, fmt.Errorf("panic processing record: %v", p)
		}
	}()
	return fn()
}

func (r *run) skip(name, reason string) (Outcome, error) {
	r.logger.Debug().Str("record", name).Str("reason", reason).Msg("Skipping record")
	return Skipped, nil
}

// loadIndex builds the identity index for one repository. Two stored
// entities sharing a key fail the run.
func loadIndex[T catalog.Keyed](ctx context.Context, repo store.Repository[T], kind string) (*matcher.Index[T], error) {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return nil, errors.WrapResource("load", kind, "", err)
	}
	return matcher.NewIndex(existing)
}

// upsert matches name against the index, lets build fill in the entity, and
// saves it. build receives the existing entity when one matched and may
// decline the record.
func upsert[T catalog.Keyed](ctx context.Context, repo store.Repository[T], idx *matcher.Index[T], name string, build func(e T, found bool) (T, bool)) (Outcome, error) {
	existing, found := idx.Lookup(name)
	entity, ok := build(existing, found)
	if !ok {
		return Skipped, nil
	}
	saved, err := repo.Save(ctx, entity)
	if err != nil {
		return Skipped, err
	}
	idx.Put(saved)
	if found {
		return Updated, nil
	}
	return Created, nil
}
