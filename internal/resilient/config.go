package resilient

import (
	"time"

	"github.com/agentstation/launchsync/pkg/constants"
)

// Config composes the three policies applied to every call of one dependency.
type Config struct {
	Name    string        `mapstructure:"name"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Limit   LimitConfig   `mapstructure:"limit"`
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureRatio trips the breaker once failures/requests exceeds it.
	FailureRatio float64 `mapstructure:"failure_ratio"`
	// MinRequests is the smallest window the ratio is evaluated on.
	MinRequests uint32 `mapstructure:"min_requests"`
	// Interval clears closed-state counts; zero keeps them until a state change.
	Interval time.Duration `mapstructure:"interval"`
	// OpenTimeout is the cooldown before half-open trial calls.
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// HalfOpenMax bounds concurrent trial calls while half open.
	HalfOpenMax uint32 `mapstructure:"half_open_max"`
}

// RetryConfig configures exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
	Jitter         bool          `mapstructure:"jitter"`
}

// LimitConfig configures the token-bucket limiter.
type LimitConfig struct {
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

// DefaultConfig returns the production defaults for a dependency called name.
func DefaultConfig(name string) Config {
	return Config{
		Name: name,
		Breaker: BreakerConfig{
			FailureRatio: constants.BreakerFailureRatio,
			MinRequests:  constants.BreakerMinRequests,
			Interval:     constants.BreakerInterval,
			OpenTimeout:  constants.BreakerOpenTimeout,
			HalfOpenMax:  constants.BreakerHalfOpenMax,
		},
		Retry: RetryConfig{
			MaxAttempts:    constants.MaxRetries,
			InitialBackoff: constants.RetryBackoff,
			MaxBackoff:     constants.MaxRetryBackoff,
			Multiplier:     constants.RetryMultiplier,
			Jitter:         true,
		},
		Limit: LimitConfig{
			RatePerSecond:  constants.SpaceDevsRatePerSecond,
			Burst:          1,
			AcquireTimeout: constants.RateLimitAcquireTimeout,
		},
	}
}

// withDefaults fills zero values so a partially specified Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig(c.Name)
	if c.Breaker.FailureRatio <= 0 {
		c.Breaker.FailureRatio = d.Breaker.FailureRatio
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = d.Breaker.MinRequests
	}
	if c.Breaker.OpenTimeout <= 0 {
		c.Breaker.OpenTimeout = d.Breaker.OpenTimeout
	}
	if c.Breaker.HalfOpenMax == 0 {
		c.Breaker.HalfOpenMax = d.Breaker.HalfOpenMax
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = d.Retry.Multiplier
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = d.Retry.MaxBackoff
	}
	if c.Limit.RatePerSecond <= 0 {
		c.Limit.RatePerSecond = d.Limit.RatePerSecond
	}
	if c.Limit.Burst <= 0 {
		c.Limit.Burst = 1
	}
	if c.Limit.AcquireTimeout <= 0 {
		c.Limit.AcquireTimeout = d.Limit.AcquireTimeout
	}
	return c
}
