// Package constants provides shared constants used throughout launchsync:
// provider endpoints, timeouts, resilience defaults, and file permissions.
package constants

import "time"

// Provider endpoints
const (
	// SpaceDevsBaseURL is the launch-data provider API root
	SpaceDevsBaseURL = "https://ll.thespacedevs.com/2.2.0"

	// TruthLedgerBaseURL is the default verification provider API root
	TruthLedgerBaseURL = "http://localhost:3000/api/v1"

	// SourceSpaceDevs names the launch-data provider in logs, errors, and run rows
	SourceSpaceDevs = "spacedevs"

	// SourceTruthLedger names the verification provider
	SourceTruthLedger = "truthledger"
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to providers
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout bounds a single category run started from the CLI or server
	SyncTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown of the server
	ShutdownTimeout = 10 * time.Second

	// StaleRunAge is how long an IN_PROGRESS run may sit before health calls it stale
	StaleRunAge = 2 * time.Hour

	// FailureWindow is how far back health counts failed runs
	FailureWindow = 24 * time.Hour
)

// Resilience defaults
const (
	// BreakerFailureRatio trips the breaker when exceeded within the window
	BreakerFailureRatio = 0.5

	// BreakerMinRequests is the minimum window size before the ratio is evaluated
	BreakerMinRequests = 5

	// BreakerInterval is the rolling window for closed-state failure counts
	BreakerInterval = 60 * time.Second

	// BreakerOpenTimeout is the cooldown before half-open trial calls
	BreakerOpenTimeout = 30 * time.Second

	// BreakerHalfOpenMax is the number of trial calls allowed while half open
	BreakerHalfOpenMax = 3

	// MaxRetries is the maximum number of attempts for a transient failure
	MaxRetries = 3

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 500 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 10 * time.Second

	// RetryMultiplier grows the backoff between attempts
	RetryMultiplier = 2.0

	// SpaceDevsRatePerSecond matches the provider's free tier
	SpaceDevsRatePerSecond = 15

	// TruthLedgerRatePerSecond is the local verification service budget
	TruthLedgerRatePerSecond = 50

	// RateLimitAcquireTimeout is how long a caller may wait for a permit
	RateLimitAcquireTimeout = 5 * time.Second
)

// Sync defaults
const (
	// DefaultSyncLimit is the record count fetched per run when none is given
	DefaultSyncLimit = 100

	// TruthLedgerPageSize is the page size used to list every entity of a type
	TruthLedgerPageSize = 100

	// MaxLedgerPages bounds one listing when the provider keeps returning full pages
	MaxLedgerPages = 200

	// DefaultTruthThreshold is the truth score a value must exceed to count as verified
	DefaultTruthThreshold = 0.5

	// HealthWindow is the number of recent runs used for the success rate
	HealthWindow = 5

	// DefaultRunsLimit is the number of runs listed when no limit is given
	DefaultRunsLimit = 20

	// FactCacheTTL is how long verification facts are reused
	FactCacheTTL = 10 * time.Minute

	// FactCacheCleanupInterval is how often expired facts are evicted
	FactCacheCleanupInterval = 5 * time.Minute
)

// Storage defaults used by the CLI
const (
	// DefaultDatabaseDriver is the embedded database driver
	DefaultDatabaseDriver = "sqlite"

	// DefaultDatabaseDSN is the database file in the working directory
	DefaultDatabaseDSN = "launchsync.db"
)

// Server defaults
const (
	// DefaultPort is the port the health and status server listens on
	DefaultPort = 8080

	// DefaultPathPrefix is the API path prefix
	DefaultPathPrefix = "/api/v1"
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
