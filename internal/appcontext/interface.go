// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete CLI application.
package appcontext

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/server"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/launchsync/app implements it; tests use Mock.
type Interface interface {
	// Service returns the launchsync service, creating it lazily if needed.
	// This is thread-safe and ensures only one instance is created.
	Service() (launchsync.Service, error)

	// ServiceWithOptions creates a separate service from the configured
	// options plus opts. The caller owns it and must Close it.
	ServiceWithOptions(opts ...launchsync.Option) (launchsync.Service, error)

	// ServerConfig returns the HTTP server settings.
	ServerConfig() server.Config

	// SyncLimit returns the default record count per sync run.
	SyncLimit() int

	// AutoSyncInterval returns the configured scheduled-sync interval; zero
	// disables scheduled syncs.
	AutoSyncInterval() time.Duration

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
