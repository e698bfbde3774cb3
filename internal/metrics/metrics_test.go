package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCall("spacedevs", "success")
	m.ObserveState("spacedevs", gobreaker.StateOpen)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BreakerState.WithLabelValues("spacedevs")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Calls.WithLabelValues("spacedevs", "success")))
}

func TestMetrics_ObserveRun(t *testing.T) {
	m := New(nil)

	m.ObserveRecords("missions", 2, 1, 3)
	m.ObserveRun("missions", "SUCCESS", time.Now().Add(-time.Second))
	m.ObserveRun("missions", "FAILED", time.Now())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SyncRecords.WithLabelValues("missions", "created")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SyncRecords.WithLabelValues("missions", "skipped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SyncRuns.WithLabelValues("missions", "FAILED")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessTS.WithLabelValues("missions")), float64(0))
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)

	a.ObserveRun("engines", "SUCCESS", time.Now())
	b.ObserveRun("engines", "SUCCESS", time.Now())

	assert.Same(t, a.SyncRuns, b.SyncRuns)
	assert.Equal(t, float64(2), testutil.ToFloat64(a.SyncRuns.WithLabelValues("engines", "SUCCESS")))
}
