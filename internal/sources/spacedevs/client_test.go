package spacedevs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/transport"
	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilient.DefaultConfig("spacedevs")
	cfg.Retry.MaxAttempts = 1
	cfg.Limit.RatePerSecond = 1000
	cfg.Limit.Burst = 100
	nop := logging.NewNopLogger()
	return New(transport.New("spacedevs", srv.URL), resilient.New(cfg, resilient.WithLogger(nop)), nop)
}

func TestPreviousLaunches(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/launch/previous/", r.URL.Path)
		assert.Equal(t, "-net", r.URL.Query().Get("ordering"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"count": 2, "next": null, "previous": null,
			"results": [
				{"id":"a","name":"Falcon 9 | Starlink","status":{"id":3,"name":"Launch Successful","abbrev":"Success"},
				 "net":"2024-03-01T12:00:00Z",
				 "launch_service_provider":{"name":"SpaceX","country_code":"USA"},
				 "mission":{"name":"Starlink","type":"Communications","orbit":{"abbrev":"LEO"}}},
				{"id":"b","name":"Soyuz | Progress","status":"Failure"}
			]}`))
	})

	launches := c.PreviousLaunches(context.Background(), 2)
	require.Len(t, launches, 2)
	assert.Equal(t, catalog.MissionCompleted, launches[0].MissionStatus())
	assert.Equal(t, catalog.MissionFailed, launches[1].MissionStatus())
	assert.Equal(t, "USA", launches[0].Provider.CountryCode)

	ts, ok := launches[0].LaunchTime()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), ts)

	_, ok = launches[1].LaunchTime()
	assert.False(t, ok)
}

func TestFetch_PagesUntilShortPage(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		// 130 pads upstream
		n := min(limit, 130-offset)
		page := Page[Pad]{Count: 130}
		for i := 0; i < n; i++ {
			page.Results = append(page.Results, Pad{ID: offset + i, Name: fmt.Sprintf("pad-%d", offset+i)})
		}
		if offset+n < 130 {
			next := "more"
			page.Next = &next
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	pads := c.Pads(context.Background(), 500)
	assert.Len(t, pads, 130)
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, "pad-129", pads[129].Name)
}

func TestFetch_FallbackIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	launches := c.UpcomingLaunches(context.Background(), 10)
	assert.NotNil(t, launches)
	assert.Empty(t, launches)
}

func TestFetch_ZeroLimit(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	assert.Empty(t, c.Pads(context.Background(), 0))
}

func TestLaunchesByYear(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/launch/", r.URL.Path)
		assert.Equal(t, "2023-01-01", r.URL.Query().Get("net__gte"))
		assert.Equal(t, "2023-12-31", r.URL.Query().Get("net__lte"))
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	})
	assert.Empty(t, c.LaunchesByYear(context.Background(), 2023, 5))
}

func TestPadDecoding(t *testing.T) {
	var pad Pad
	err := json.Unmarshal([]byte(`{
		"name":"LC-101","latitude":"19.678","longitude":"bogus",
		"location":{"name":" Wenchang ","total_launch_count":10}}`), &pad)
	require.NoError(t, err)

	require.NotNil(t, pad.Latitude.Ptr())
	assert.InDelta(t, 19.678, *pad.Latitude.Ptr(), 1e-9)
	assert.Nil(t, pad.Longitude.Ptr())
	assert.Equal(t, "Wenchang", pad.LocationName())

	var numeric Pad
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":28.5,"longitude":null}`), &numeric))
	assert.True(t, numeric.Latitude.Valid)
	assert.False(t, numeric.Longitude.Valid)
}

func TestStatusWithoutField(t *testing.T) {
	var l Launch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &l))
	assert.Equal(t, catalog.MissionPlanned, l.MissionStatus())

	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","status":{"name":"Launch in Flight","abbrev":"In Flight"}}`), &l))
	assert.Equal(t, catalog.MissionLaunched, l.MissionStatus())
}
