package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/launchsync/pkg/errors"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Token abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/v2/pad/", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":3}`))
	}))
	defer srv.Close()

	c := New("spacedevs", srv.URL+"/v2/", WithAuth(&TokenAuth{}, "abc"))

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.Get(context.Background(), "/pad/", &out))
	assert.Equal(t, 3, out.Count)
}

func TestClient_GetErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			body:   "maintenance",
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsProviderUnavailable(err))
				var apiErr *errors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "truthledger", apiErr.Source)
				assert.Equal(t, "/health", apiErr.Endpoint)
			},
		},
		{
			name:   "throttled",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsRateLimited(err))
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   "{not json",
			check: func(t *testing.T, err error) {
				var parseErr *errors.ParseError
				assert.ErrorAs(t, err, &parseErr)
				assert.False(t, errors.IsTransient(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New("truthledger", srv.URL)
			var out map[string]any
			err := c.Get(context.Background(), "health", &out)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_NoKeyNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("spacedevs", srv.URL, WithAuth(&TokenAuth{}, ""))
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "launch/", &out))
}
