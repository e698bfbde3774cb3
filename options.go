package launchsync

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/store"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Option configures a Service.
type Option func(*options) error

// options holds the resolved configuration of a Service.
type options struct {
	dbDriver string
	dbDSN    string

	spaceDevsURL string
	spaceDevsKey string

	ledgerURL     string
	ledgerEnabled bool
	threshold     float64
	factCacheTTL  time.Duration

	resilience map[string]resilient.Config

	logger     *zerolog.Logger
	registry   prometheus.Registerer
	httpClient *http.Client

	autoSyncEnabled  bool
	autoSyncInterval time.Duration
	syncLimit        int
}

func defaults() *options {
	spaceDevs := resilient.DefaultConfig(constants.SourceSpaceDevs)
	ledger := resilient.DefaultConfig(constants.SourceTruthLedger)
	ledger.Limit.RatePerSecond = constants.TruthLedgerRatePerSecond
	return &options{
		spaceDevsURL: constants.SpaceDevsBaseURL,
		ledgerURL:    constants.TruthLedgerBaseURL,
		threshold:    constants.DefaultTruthThreshold,
		factCacheTTL: constants.FactCacheTTL,
		resilience: map[string]resilient.Config{
			constants.SourceSpaceDevs:   spaceDevs,
			constants.SourceTruthLedger: ledger,
		},
		syncLimit: constants.DefaultSyncLimit,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithDatabase persists entities and sync runs in a SQL database. driver
// is "sqlite" or "postgres". Without it everything is kept in memory.
func WithDatabase(driver, dsn string) Option {
	return func(o *options) error {
		switch driver {
		case store.DriverSQLite, store.DriverPostgres:
		default:
			return errors.NewValidationError("driver", driver, "must be sqlite or postgres")
		}
		if strings.TrimSpace(dsn) == "" {
			return errors.NewValidationError("dsn", dsn, "must not be empty")
		}
		o.dbDriver, o.dbDSN = driver, dsn
		return nil
	}
}

// WithSpaceDevs sets the launch-data provider root and optional API key.
func WithSpaceDevs(baseURL, apiKey string) Option {
	return func(o *options) error {
		if baseURL != "" {
			o.spaceDevsURL = baseURL
		}
		o.spaceDevsKey = apiKey
		return nil
	}
}

// WithTruthLedger enables the verification provider at baseURL.
func WithTruthLedger(baseURL string) Option {
	return func(o *options) error {
		if baseURL != "" {
			o.ledgerURL = baseURL
		}
		o.ledgerEnabled = true
		return nil
	}
}

// WithTruthThreshold sets the score a fact must exceed to be verified.
func WithTruthThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold < 0 || threshold > 1 {
			return errors.NewValidationError("threshold", threshold, "must be within [0, 1]")
		}
		o.threshold = threshold
		return nil
	}
}

// WithFactCacheTTL sets how long verification facts are reused. Zero
// disables the cache.
func WithFactCacheTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.factCacheTTL = ttl
		return nil
	}
}

// WithResilience replaces the breaker, retry, and rate-limit policy of the
// dependency named by cfg.Name.
func WithResilience(cfg resilient.Config) Option {
	return func(o *options) error {
		if _, ok := o.resilience[cfg.Name]; !ok {
			return errors.NewValidationError("resilience.name", cfg.Name, "unknown dependency")
		}
		o.resilience[cfg.Name] = cfg
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithRegistry registers the collectors on reg. Without it no metrics
// are recorded.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registry = reg
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for both providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithAutoSync runs every category on the given interval once the
// service starts.
func WithAutoSync(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("autoSyncInterval", interval, "must be positive")
		}
		o.autoSyncEnabled = true
		o.autoSyncInterval = interval
		return nil
	}
}

// WithSyncLimit sets the record count fetched by automatic runs.
func WithSyncLimit(limit int) Option {
	return func(o *options) error {
		if limit <= 0 {
			return errors.NewValidationError("limit", limit, "must be positive")
		}
		o.syncLimit = limit
		return nil
	}
}
