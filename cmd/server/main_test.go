package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/eventcast/internal/api"
	"github.com/bbernstein/eventcast/internal/app"
	"github.com/bbernstein/eventcast/internal/config"
)

func newTestServer(t *testing.T, cacheCfg *config.CacheConfig) *app.App {
	t.Helper()
	pipeline, err := app.New(context.Background(), config.New(), cacheCfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pipeline.Close()
	})
	return pipeline
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestHealth(t *testing.T) {
	t.Run("lru store", func(t *testing.T) {
		server := newServer(newTestServer(t, config.DefaultCacheConfig()))

		resp, err := server.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		decodeBody(t, resp, &body)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, serviceName, body["service"])
		assert.Contains(t, body, "forecastStats")
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cacheCfg := config.DefaultCacheConfig()
		cacheCfg.Backend = config.BackendRedis
		cacheCfg.RedisAddr = mr.Addr()
		server := newServer(newTestServer(t, cacheCfg))

		resp, err := server.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		mr.Close()

		resp, err = server.Test(httptest.NewRequest(http.MethodGet, "/health", nil), 5000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body map[string]interface{}
		decodeBody(t, resp, &body)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "unreachable", body["cache"])
		assert.NotContains(t, fmt.Sprint(body), cacheCfg.RedisAddr, "store errors are logged, not returned")
	})

	t.Run("tiered store reports stats", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cacheCfg := config.DefaultCacheConfig()
		cacheCfg.Backend = config.BackendTiered
		cacheCfg.RemoteBackend = config.BackendRedis
		cacheCfg.RedisAddr = mr.Addr()
		server := newServer(newTestServer(t, cacheCfg))

		resp, err := server.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		decodeBody(t, resp, &body)
		assert.Contains(t, body, "cacheStats")
	})
}

func TestErrorHandler(t *testing.T) {
	server := newServer(newTestServer(t, config.DefaultCacheConfig()))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/v1/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "invalid event id",
			method:     http.MethodGet,
			path:       "/api/v1/forecast/not-a-uuid",
			wantStatus: http.StatusBadRequest,
			wantCode:   api.CodeInvalidEventID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := server.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body api.ForecastResponse
			decodeBody(t, resp, &body)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.ErrorCode)
		})
	}
}
