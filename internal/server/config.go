package server

import (
	"time"

	"github.com/agentstation/launchsync/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// HTTP timeouts. WriteTimeout must cover SyncTimeout for triggered runs.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// SyncTimeout bounds a run triggered over HTTP
	SyncTimeout time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           constants.DefaultPort,
		PathPrefix:     constants.DefaultPathPrefix,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   constants.SyncTimeout + time.Minute,
		IdleTimeout:    120 * time.Second,
		SyncTimeout:    constants.SyncTimeout,
		MetricsEnabled: true,
	}
}
