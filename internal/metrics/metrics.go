// Package metrics holds the Prometheus collectors for resilient calls and
// sync runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics contains all collectors. It implements resilient.Observer.
type Metrics struct {
	BreakerState  *prometheus.GaugeVec
	Calls         *prometheus.CounterVec
	SyncRecords   *prometheus.CounterVec
	SyncRuns      *prometheus.CounterVec
	SyncDuration  *prometheus.HistogramVec
	LastSuccessTS *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "launchsync",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per dependency (0 closed, 1 half-open, 2 open)",
		}, []string{"dependency"}),

		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchsync",
			Name:      "dependency_calls_total",
			Help:      "Calls to external dependencies by outcome",
		}, []string{"dependency", "outcome"}),

		SyncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchsync",
			Name:      "sync_records_total",
			Help:      "Records processed by sync runs by outcome",
		}, []string{"category", "outcome"}),

		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchsync",
			Name:      "sync_runs_total",
			Help:      "Sync runs by terminal state",
		}, []string{"category", "state"}),

		SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "launchsync",
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"category"}),

		LastSuccessTS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "launchsync",
			Name:      "sync_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per category",
		}, []string{"category"}),
	}

	if reg != nil {
		m.BreakerState = register(reg, m.BreakerState)
		m.Calls = register(reg, m.Calls)
		m.SyncRecords = register(reg, m.SyncRecords)
		m.SyncRuns = register(reg, m.SyncRuns)
		m.SyncDuration = register(reg, m.SyncDuration)
		m.LastSuccessTS = register(reg, m.LastSuccessTS)
	}
	return m
}

// register adds c to reg. When an equal collector is already registered,
// as happens when two services share one registry, the existing one is
// returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveCall implements resilient.Observer.
func (m *Metrics) ObserveCall(dependency, outcome string) {
	m.Calls.WithLabelValues(dependency, outcome).Inc()
}

// ObserveState implements resilient.Observer.
func (m *Metrics) ObserveState(dependency string, state gobreaker.State) {
	m.BreakerState.WithLabelValues(dependency).Set(float64(state))
}

// ObserveRecords adds per-outcome record counts for one run.
func (m *Metrics) ObserveRecords(category string, created, updated, skipped int) {
	m.SyncRecords.WithLabelValues(category, "created").Add(float64(created))
	m.SyncRecords.WithLabelValues(category, "updated").Add(float64(updated))
	m.SyncRecords.WithLabelValues(category, "skipped").Add(float64(skipped))
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(category, state string, started time.Time) {
	m.SyncRuns.WithLabelValues(category, state).Inc()
	m.SyncDuration.WithLabelValues(category).Observe(time.Since(started).Seconds())
	if state == "SUCCESS" {
		m.LastSuccessTS.WithLabelValues(category).SetToCurrentTime()
	}
}
