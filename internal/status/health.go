package status

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/launchsync/pkg/constants"
)

// Indicator is the health of one sync category.
type Indicator struct {
	Up      bool           `json:"up" yaml:"up"`
	Details map[string]any `json:"details" yaml:"details"`
}

// Report is the aggregate health of every category.
type Report struct {
	Up         bool                 `json:"up" yaml:"up"`
	Categories map[string]Indicator `json:"categories" yaml:"categories"`
	Ledger     *Indicator           `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	Summary    Summary              `json:"summary" yaml:"summary"`
	CheckedAt  time.Time            `json:"checked_at" yaml:"checked_at"`
}

// Summary counts runs across every category.
type Summary struct {
	Runs          map[State]int `json:"runs" yaml:"runs"`
	Syncing       bool          `json:"syncing" yaml:"syncing"`
	RecentFailed  int           `json:"recent_failed" yaml:"recent_failed"`
	FailureWindow string        `json:"failure_window" yaml:"failure_window"`
}

// Reachable reports whether an upstream provider is reachable.
type Reachable func(ctx context.Context) bool

// Checker derives health from a Store.
type Checker struct {
	store         Store
	types         []string
	window        int
	staleAfter    time.Duration
	failureWindow time.Duration
	ledger        Reachable
	now           func() time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithWindow sets how many recent runs the success rate covers.
func WithWindow(n int) CheckerOption {
	return func(c *Checker) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithStaleAfter sets the age after which an IN_PROGRESS run is stale.
func WithStaleAfter(d time.Duration) CheckerOption {
	return func(c *Checker) { c.staleAfter = d }
}

// WithFailureWindow sets how far back Summary.RecentFailed looks.
func WithFailureWindow(d time.Duration) CheckerOption {
	return func(c *Checker) {
		if d > 0 {
			c.failureWindow = d
		}
	}
}

// WithLedgerCheck adds the verification provider to the report. Its
// reachability is informational and does not change Report.Up.
func WithLedgerCheck(fn Reachable) CheckerOption {
	return func(c *Checker) { c.ledger = fn }
}

// WithClock sets the clock used for staleness.
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) { c.now = now }
}

// NewChecker returns a Checker over the given sync types.
func NewChecker(store Store, types []string, opts ...CheckerOption) *Checker {
	c := &Checker{
		store:         store,
		types:         types,
		window:        constants.HealthWindow,
		staleAfter:    constants.StaleRunAge,
		failureWindow: constants.FailureWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports every category; the report is up only if all are.
func (c *Checker) Check(ctx context.Context) (Report, error) {
	report := Report{Up: true, Categories: make(map[string]Indicator, len(c.types)), CheckedAt: c.now().UTC()}
	for _, t := range c.types {
		ind, err := c.CheckType(ctx, t)
		if err != nil {
			return Report{}, err
		}
		report.Categories[t] = ind
		report.Up = report.Up && ind.Up
	}

	summary, err := c.summary(ctx)
	if err != nil {
		return Report{}, err
	}
	report.Summary = summary

	if c.ledger != nil {
		healthy := c.ledger(ctx)
		report.Ledger = &Indicator{Up: healthy, Details: map[string]any{"healthy": healthy}}
	}
	return report, nil
}

func (c *Checker) summary(ctx context.Context) (Summary, error) {
	counts, err := c.store.CountByState(ctx)
	if err != nil {
		return Summary{}, err
	}
	syncing, err := c.store.AnyInProgress(ctx)
	if err != nil {
		return Summary{}, err
	}
	failed, err := c.store.FailedSince(ctx, c.now().Add(-c.failureWindow))
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Runs:          counts,
		Syncing:       syncing,
		RecentFailed:  len(failed),
		FailureWindow: c.failureWindow.String(),
	}, nil
}

// CheckType reports the health of one sync type from its latest run.
// SUCCESS and fresh IN_PROGRESS are up, FAILED and stale IN_PROGRESS are
// down, and a type that never ran is up with status NOT_STARTED.
func (c *Checker) CheckType(ctx context.Context, syncType string) (Indicator, error) {
	latest, ok, err := c.store.Latest(ctx, syncType)
	if err != nil {
		return Indicator{}, err
	}
	if !ok {
		return Indicator{Up: true, Details: map[string]any{
			"lastSyncTime": "Never",
			"status":       string(NotStarted),
		}}, nil
	}

	details := map[string]any{
		"lastSyncTime": latest.StartedAt.Format(time.RFC3339),
		"status":       string(latest.State),
	}
	if latest.CompletedAt != nil {
		details["completedAt"] = latest.CompletedAt.Format(time.RFC3339)
	}
	if latest.RecordsSynced != nil {
		details["recordsSynced"] = *latest.RecordsSynced
	}
	if latest.Error != "" {
		details["error"] = latest.Error
	}

	last, ok, err := c.store.LatestSuccessful(ctx, syncType)
	if err != nil {
		return Indicator{}, err
	}
	details["lastSuccessTime"] = "Never"
	if ok {
		details["lastSuccessTime"] = last.StartedAt.Format(time.RFC3339)
	}
	total, err := c.store.TotalRecordsSynced(ctx, syncType)
	if err != nil {
		return Indicator{}, err
	}
	details["totalRecordsSynced"] = total

	recent, err := c.store.Recent(ctx, syncType, c.window)
	if err != nil {
		return Indicator{}, err
	}
	succeeded := 0
	for _, r := range recent {
		if r.State == Success {
			succeeded++
		}
	}
	details["recentSuccessRate"] = fmt.Sprintf("%d/%d", succeeded, len(recent))

	up := latest.State == Success || latest.State == InProgress
	if latest.Stale(c.now(), c.staleAfter) {
		details["stale"] = true
		up = false
	}
	return Indicator{Up: up, Details: details}, nil
}
