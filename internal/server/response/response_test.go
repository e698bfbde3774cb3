package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]int{"count": 42})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	resp := decode(t, w)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"count": float64(42)}, resp.Data)
}

func TestUnavailableCarriesData(t *testing.T) {
	w := httptest.NewRecorder()
	Unavailable(w, map[string]bool{"up": false}, "missions is down")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, "missions is down", resp.Error.Details)
	assert.Equal(t, map[string]any{"up": false}, resp.Data)
}

func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not found", errors.NewNotFoundError("sync_run", "r-1"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", errors.NewValidationError("category", "x", "unknown"), http.StatusBadRequest, "BAD_REQUEST"},
		{"wrapped validation", fmt.Errorf("parse: %w", errors.NewValidationError("limit", -1, "negative")), http.StatusBadRequest, "BAD_REQUEST"},
		{"config", errors.NewConfigError("engines", "verification provider is not configured", nil), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"rate limited", &errors.RateLimitExceededError{Limiter: "spacedevs", Wait: "5s"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"upstream 5xx", errors.NewAPIError("spacedevs", 502, "bad gateway"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"upstream 4xx", errors.NewAPIError("spacedevs", 404, "missing"), http.StatusBadRequest, "BAD_REQUEST"},
		{"sync", errors.NewSyncError("missions", "r-1", errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"sync timed out", errors.NewSyncError("missions", "r-1", fmt.Errorf("run interrupted: %w", context.DeadlineExceeded)), http.StatusGatewayTimeout, "TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)
			assert.Equal(t, tt.want, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("password=hunter2"))
	assert.NotContains(t, w.Body.String(), "hunter2")
}
