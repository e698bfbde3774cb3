// Package server exposes sync health, run history, and sync triggers over
// HTTP, plus the Prometheus metrics endpoint.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/server/handlers"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	svc      handlers.Service
	gatherer prometheus.Gatherer
	logger   *zerolog.Logger
	config   Config
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer sets the registry /metrics serves. Without one the default
// Prometheus registry is used.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a new server instance with the given configuration.
func New(svc handlers.Service, cfg Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.NewConfigError("server", "service is required", nil)
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = constants.DefaultPathPrefix
	}
	s := &Server{
		svc:      svc,
		gatherer: prometheus.DefaultGatherer,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s, nil
}

// Handler returns the configured http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// ListenAndServe serves until ctx is done, then drains connections for up
// to constants.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Dur("timeout", constants.ShutdownTimeout).Msg("Server stopped gracefully")
	return nil
}
