package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

func checkerErr(err error) HealthChecker {
	return HealthCheckerFunc(func(context.Context) error { return err })
}

func TestHealthHandler(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		manager := NewHealthManager("0.4.0")
		manager.RegisterChecker("sources", checkerErr(nil))

		rec := httptest.NewRecorder()
		manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "0.4.0", resp.Version)
		assert.Equal(t, "healthy", resp.Checks["sources"])
	})

	t.Run("failing check returns envelope", func(t *testing.T) {
		manager := NewHealthManager("0.4.0")
		manager.RegisterChecker("sources", checkerErr(errors.New("no adapters")))

		rec := httptest.NewRecorder()
		manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp struct {
			Error struct {
				Code    string         `json:"code"`
				Details map[string]any `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
		checks, ok := resp.Error.Details["checks"].(map[string]any)
		require.True(t, ok, "details should carry per-check status")
		assert.Equal(t, "unhealthy", checks["sources"])
	})
}

func TestRegistryChecker(t *testing.T) {
	registry, err := core.NewRegistry([]core.SourceDescriptor{
		{ID: "pubmed", Timeout: time.Second, Retries: 1},
		{ID: "chembl", Timeout: time.Second, Retries: 1},
	})
	require.NoError(t, err)

	cases := []struct {
		name       string
		registry   *core.Registry
		hasAdapter func(string) bool
		wantErr    bool
	}{
		{name: "every source wired", registry: registry, hasAdapter: func(string) bool { return true }},
		{name: "adapter missing", registry: registry, hasAdapter: func(id string) bool { return id == "pubmed" }, wantErr: true},
		{name: "no registry", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RegistryChecker(tc.registry, tc.hasAdapter).CheckHealth(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReadinessUsesGlobalManager(t *testing.T) {
	globalHealthManager = nil
	t.Cleanup(func() { globalHealthManager = nil })

	rec := httptest.NewRecorder()
	ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	InitHealthManager("dev").RegisterChecker("sources", checkerErr(nil))

	rec = httptest.NewRecorder()
	ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProbeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthStatusClassification(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("sources", checkerErr(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "timeout", manager.runHealthChecks(ctx)["sources"])

	assert.Equal(t, "healthy", manager.determineOverallStatus(map[string]string{"sources": "healthy"}))
	assert.Equal(t, "degraded", manager.determineOverallStatus(map[string]string{"sources": "timeout"}))
	assert.Equal(t, "unhealthy", manager.determineOverallStatus(map[string]string{"sources": "unhealthy", "telemetry": "healthy"}))
}
