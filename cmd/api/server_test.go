package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/bizpulse/pkg/config"
)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:     []string{"http://localhost:5173"},
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
		},
		Database:  config.DatabaseConfig{Driver: "memory"},
		Auth:      config.AuthConfig{JWTSecret: "test-secret"},
		Import:    config.ImportConfig{ChunkSize: 50, PreviewSize: 20, BatchTTL: time.Hour},
		Cache:     config.CacheConfig{TTL: time.Minute},
		Storage:   config.StorageConfig{Type: "memory"},
		Scheduler: config.SchedulerConfig{PurgeSpec: "@every 1h"},
	}
	deps, err := InitDependencies(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return deps
}

func TestRouter_HealthAndAuth(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_DemoFeedsDashboard(t *testing.T) {
	deps := newTestDeps(t)
	router := NewRouter(deps)
	token, err := deps.Authenticator.IssueToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	do := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Warm the snapshot cache so the seed has to invalidate it
	rec := do(http.MethodGet, "/api/dashboard/sales")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deal_count":0`)

	rec = do(http.MethodPost, "/api/demo")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodGet, "/api/dashboard/sales")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deal_count":100`)
}
