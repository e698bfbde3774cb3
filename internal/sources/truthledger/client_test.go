package truthledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/transport"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilient.DefaultConfig("truthledger")
	cfg.Retry.MaxAttempts = 1
	cfg.Limit.RatePerSecond = 1000
	cfg.Limit.Burst = 100
	nop := logging.NewNopLogger()
	opts = append([]Option{WithLogger(nop)}, opts...)
	return New(transport.New("truthledger", srv.URL), resilient.New(cfg, resilient.WithLogger(nop)), opts...)
}

func TestListAllEntities_PagesUntilShortPage(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/entities", r.URL.Path)
		assert.Equal(t, TypeLaunchVehicle, r.URL.Query().Get("type"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		// 5 entities upstream
		var out EntityList
		for i := offset; i < min(offset+limit, 5); i++ {
			out.Entities = append(out.Entities, Entity{ID: strconv.Itoa(i), CanonicalName: "v" + strconv.Itoa(i)})
		}
		out.Count = len(out.Entities)
		_ = json.NewEncoder(w).Encode(out)
	}, WithPageSize(2))

	all := c.ListAllEntities(context.Background(), TypeLaunchVehicle)
	assert.Len(t, all, 5)
	assert.Equal(t, int32(3), requests.Load())
}

func TestListAllEntities_ExactMultipleFetchesEmptyPage(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset >= 2 {
			_, _ = w.Write([]byte(`{"entities":[],"count":0}`))
			return
		}
		_, _ = w.Write([]byte(`{"entities":[{"id":"a"},{"id":"b"}],"count":2}`))
	}, WithPageSize(2))

	all := c.ListAllEntities(context.Background(), TypeEngine)
	assert.Len(t, all, 2)
	assert.Equal(t, int32(2), requests.Load())
}

func TestListAllEntities_StopsAtPageCap(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// ignores offset and always returns a full page
		_, _ = w.Write([]byte(`{"entities":[{"id":"a"},{"id":"b"}],"count":2}`))
	}, WithPageSize(2), WithMaxPages(3))

	all := c.ListAllEntities(context.Background(), TypeEngine)
	assert.Len(t, all, 6)
	assert.Equal(t, int32(3), requests.Load())
}

func TestListEntities_FailureFallsBackToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := c.ListEntities(context.Background(), TypeEngine, 10, 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEntityFacts_Cached(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/entities/e-1/facts", r.URL.Path)
		assert.Equal(t, "0.5", r.URL.Query().Get("truth_min"))
		_, _ = w.Write([]byte(`{
			"entity": {"id":"e-1","entityType":"engine","canonicalName":"Merlin 1D"},
			"facts": [
				{"fieldName":"isp_s","bestValue":311,"truthDisplay":0.82,"statusDisplay":"Verified","sourceCount":3}
			],
			"pagination": {"total":1,"limit":50,"offset":0,"hasMore":false}
		}`))
	})

	ctx := context.Background()
	facts, ok := c.EntityFacts(ctx, "e-1", 0.5)
	require.True(t, ok)
	require.Len(t, facts.Facts, 1)
	assert.Equal(t, "Merlin 1D", facts.Entity.CanonicalName)
	assert.Equal(t, catalog.VerificationVerified, facts.Facts[0].Status())
	require.NotNil(t, facts.Facts[0].TruthDisplay)
	assert.InDelta(t, 0.82, *facts.Facts[0].TruthDisplay, 1e-9)

	_, ok = c.EntityFacts(ctx, "e-1", 0.5)
	require.True(t, ok)
	assert.Equal(t, int32(1), requests.Load())
}

func TestEntityFacts_AbsentOnFailure(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, ok := c.EntityFacts(context.Background(), "missing", 0.5)
	assert.False(t, ok)
	_, ok = c.EntityFacts(context.Background(), "missing", 0.5)
	assert.False(t, ok)
	assert.Equal(t, int32(2), requests.Load(), "failures are not cached")
}

func TestHealthy(t *testing.T) {
	up := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	assert.True(t, up.Healthy(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, down.Healthy(context.Background()))
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name  string
		facts []Fact
		want  catalog.VerificationStatus
	}{
		{"no facts", nil, catalog.VerificationUnverified},
		{"conflict wins", []Fact{{StatusDisplay: "verified"}, {StatusDisplay: "supported", ConflictPresent: true}}, catalog.VerificationDisputed},
		{"supported counts as verified", []Fact{{StatusDisplay: "insufficient"}, {StatusDisplay: "Supported"}}, catalog.VerificationVerified},
		{"verified", []Fact{{StatusDisplay: "verified"}}, catalog.VerificationVerified},
		{"nothing strong", []Fact{{StatusDisplay: "insufficient"}, {StatusDisplay: "unknown"}}, catalog.VerificationInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallStatus(tt.facts))
		})
	}
}
