// Package resilient guards calls to one external dependency with a circuit
// breaker, bounded exponential retry, and a rate limiter. Callers that must
// never fail pass an explicit fallback to Call.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	pkgerrors "github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

// Call outcomes reported to an Observer.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeShortCircuit = "short_circuit"
	OutcomeRateLimited  = "rate_limited"
	OutcomeRetry        = "retry"
)

// Observer receives call outcomes and breaker transitions.
type Observer interface {
	ObserveCall(dependency, outcome string)
	ObserveState(dependency string, state gobreaker.State)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, string)            {}
func (nopObserver) ObserveState(string, gobreaker.State) {}

// Client applies the configured policies to calls against one dependency.
type Client struct {
	cfg      Config
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	logger   *zerolog.Logger
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for failures and state changes.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrDefault(logger)
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a Client for the dependency named in cfg.
func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Limit.RatePerSecond), cfg.Limit.Burst),
		logger:   logging.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Breaker.HalfOpenMax,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio > cfg.Breaker.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Only transient failures say anything about the dependency's health.
			return err == nil || errors.Is(err, context.Canceled) || !pkgerrors.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("dependency", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			c.observer.ObserveState(name, to)
		},
	})
	c.observer.ObserveState(cfg.Name, gobreaker.StateClosed)

	return c
}

// Name returns the dependency name.
func (c *Client) Name() string { return c.cfg.Name }

// State returns the current breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Do runs fn under the limiter, breaker, and retry policies. Transient
// failures are retried with backoff unless the breaker is open, in which case
// Do fails fast with an error matching errors.ErrCircuitOpen.
func (c *Client) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	return c.do(c.scope(ctx, op), op, fn)
}

// scope tags the context logger with the dependency and operation. A logger
// already on ctx is kept so run fields carry through.
func (c *Client) scope(ctx context.Context, op string) context.Context {
	ctx = logging.WithLogger(ctx, logging.FromContextOr(ctx, c.logger))
	return logging.WithOperation(logging.WithSource(ctx, c.cfg.Name), op)
}

func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			c.observer.ObserveCall(c.cfg.Name, OutcomeRetry)
			if err := c.wait(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.acquire(ctx); err != nil {
			if pkgerrors.IsRateLimited(err) {
				c.observer.ObserveCall(c.cfg.Name, OutcomeRateLimited)
			}
			return err
		}

		_, err := c.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			c.observer.ObserveCall(c.cfg.Name, OutcomeSuccess)
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.observer.ObserveCall(c.cfg.Name, OutcomeShortCircuit)
			return fmt.Errorf("%s %s: %w", c.cfg.Name, op, pkgerrors.ErrCircuitOpen)
		}

		c.observer.ObserveCall(c.cfg.Name, OutcomeFailure)
		lastErr = err
		if !pkgerrors.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		logging.FromContext(ctx).Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Transient failure, retrying")
	}
	return lastErr
}

// acquire takes one limiter permit, waiting at most AcquireTimeout.
func (c *Client) acquire(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.Limit.AcquireTimeout)
	defer cancel()
	if err := c.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &pkgerrors.RateLimitExceededError{
			Limiter: c.cfg.Name,
			Wait:    c.cfg.Limit.AcquireTimeout.String(),
		}
	}
	return nil
}

// backoff returns Initial * Multiplier^n capped at MaxBackoff, with up to 10% jitter.
func (c *Client) backoff(n int) time.Duration {
	r := c.cfg.Retry
	d := time.Duration(float64(r.InitialBackoff) * math.Pow(r.Multiplier, float64(n)))
	if d > r.MaxBackoff || d < 0 {
		d = r.MaxBackoff
	}
	if r.Jitter && d > 0 {
		d += time.Duration(rand.Float64() * 0.1 * float64(d))
	}
	return d
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Call runs fn through c and never returns an error: on any failure it logs
// one line and returns fallback(err).
func Call[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error), fallback func(error) T) T {
	var out T
	ctx = c.scope(ctx, op)
	err := c.do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("breaker", c.State().String()).
			Msg("Call failed, using fallback")
		return fallback(err)
	}
	return out
}

// Empty is a fallback returning an empty slice.
func Empty[T any](error) []T { return []T{} }

// Absent is a fallback returning the zero value and false.
func Absent[T any](error) Maybe[T] { return Maybe[T]{} }

// Maybe is an optional result for lookups that may legitimately find nothing.
type Maybe[T any] struct {
	Value T
	OK    bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] { return Maybe[T]{Value: v, OK: true} }
