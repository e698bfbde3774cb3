package appcontext

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/server"
	"github.com/agentstation/launchsync/pkg/constants"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ServiceFunc            func() (launchsync.Service, error)
	ServiceWithOptionsFunc func(...launchsync.Option) (launchsync.Service, error)
	ServerConfigFunc       func() server.Config
	LoggerFunc             func() *zerolog.Logger
	Format                 string
	Limit                  int
	AutoSync               time.Duration
	VersionFunc            func() string
}

// Service returns a service using the mock function or nil.
func (m *Mock) Service() (launchsync.Service, error) {
	if m.ServiceFunc != nil {
		return m.ServiceFunc()
	}
	return nil, nil
}

// ServiceWithOptions returns a service using the mock function or nil.
func (m *Mock) ServiceWithOptions(opts ...launchsync.Option) (launchsync.Service, error) {
	if m.ServiceWithOptionsFunc != nil {
		return m.ServiceWithOptionsFunc(opts...)
	}
	return nil, nil
}

// AutoSyncInterval returns AutoSync.
func (m *Mock) AutoSyncInterval() time.Duration {
	return m.AutoSync
}

// ServerConfig returns the mock server config or the defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// SyncLimit returns Limit or the default sync limit.
func (m *Mock) SyncLimit() int {
	if m.Limit > 0 {
		return m.Limit
	}
	return constants.DefaultSyncLimit
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
