// Package app provides the application context and dependency management
// for the launchsync CLI. It centralizes configuration, logging, and the
// lifecycle of the launchsync service shared by all commands.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/server"
	"github.com/agentstation/launchsync/pkg/errors"
)

// App represents the launchsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Service instance (lazy-initialized, singleton)
	mu      sync.RWMutex
	service launchsync.Service
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// that can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the output format selected by flag or config.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ServerConfig returns the HTTP server settings.
func (a *App) ServerConfig() server.Config {
	return a.config.Server
}

// SyncLimit returns the default record count per sync run.
func (a *App) SyncLimit() int {
	return a.config.SyncLimit
}

// AutoSyncInterval returns the scheduled-sync interval.
func (a *App) AutoSyncInterval() time.Duration {
	return a.config.AutoSyncInterval
}

// Service returns the launchsync service, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Service() (launchsync.Service, error) {
	a.mu.RLock()
	if a.service != nil {
		svc := a.service
		a.mu.RUnlock()
		return svc, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.service != nil {
		return a.service, nil
	}

	svc, err := launchsync.New(a.serviceOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "service", "", err)
	}

	a.service = svc
	return svc, nil
}

// ServiceWithOptions returns a new service built from the configured
// options followed by opts. The caller owns it and must Close it.
func (a *App) ServiceWithOptions(opts ...launchsync.Option) (launchsync.Service, error) {
	svc, err := launchsync.New(append(a.serviceOptions(), opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "service", "with custom options", err)
	}
	return svc, nil
}

// Shutdown performs graceful shutdown of the application.
// It stops scheduled syncs and closes the storage of the shared service.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	svc := a.service
	a.service = nil
	a.mu.Unlock()

	if svc == nil {
		return nil
	}
	if err := svc.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close service during shutdown")
		return err
	}
	return nil
}

// serviceOptions constructs launchsync options from the app configuration.
func (a *App) serviceOptions() []launchsync.Option {
	c := a.config
	opts := []launchsync.Option{
		launchsync.WithLogger(a.logger),
		launchsync.WithRegistry(prometheus.DefaultRegisterer),
		launchsync.WithSpaceDevs(c.SpaceDevsURL, c.SpaceDevsAPIKey),
		launchsync.WithTruthThreshold(c.TruthThreshold),
	}

	if c.DatabaseDriver != "" || c.DatabaseDSN != "" {
		opts = append(opts, launchsync.WithDatabase(c.DatabaseDriver, c.DatabaseDSN))
	}
	if c.LedgerEnabled {
		opts = append(opts, launchsync.WithTruthLedger(c.LedgerURL))
	}
	if c.FactCacheTTL > 0 {
		opts = append(opts, launchsync.WithFactCacheTTL(c.FactCacheTTL))
	}
	if c.SyncLimit > 0 {
		opts = append(opts, launchsync.WithSyncLimit(c.SyncLimit))
	}
	for _, rc := range c.Resilience {
		opts = append(opts, launchsync.WithResilience(rc))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithService sets a custom service instance (useful for testing).
func WithService(svc launchsync.Service) Option {
	return func(a *App) error {
		a.service = svc
		return nil
	}
}
