package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

func withFakeTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	previous := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = previous })
	return collector
}

func statusHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	})
}

func TestRequestMetrics(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		wantErrors bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "partial content", status: http.StatusPartialContent},
		{name: "bad request", status: http.StatusBadRequest, wantErrors: true},
		{name: "all sources down", status: http.StatusServiceUnavailable, wantErrors: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			collector := withFakeTelemetry(t)

			rec := httptest.NewRecorder()
			RequestMetrics(statusHandler(tc.status, `{"success":true}`)).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/combined-search?query=x", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, `{"success":true}`, rec.Body.String())
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestsTotal), 0)
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestDurationMS), 0)
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPResponseSizeBytes), 0)
			if tc.wantErrors {
				assert.Greater(t, collector.CountMetricsByName(metrics.HTTPErrorsTotal), 0)
			} else {
				assert.Zero(t, collector.CountMetricsByName(metrics.HTTPErrorsTotal))
			}
		})
	}
}

func TestRequestMetricsPassThroughWithoutTelemetry(t *testing.T) {
	previous := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = previous })

	rec := httptest.NewRecorder()
	RequestMetrics(statusHandler(http.StatusNoContent, "")).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEndpointPattern(t *testing.T) {
	cases := map[string]string{
		"/":                    "/",
		"/health":              "/health/*",
		"/health/live":         "/health/*",
		"/health/ready":        "/health/*",
		"/health/startup":      "/health/*",
		"/version":             "/version",
		"/metrics":             "/metrics",
		"/api/combined-search": "/api/combined-search",
		"/api/sources":         "/api/sources",
		"/api/trials/NCT0001":  "/unknown",
	}

	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		assert.Equal(t, want, EndpointPattern(req), path)
	}
}

func TestRequestIDPropagatesThroughMetrics(t *testing.T) {
	collector := withFakeTelemetry(t)

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	RequestID(RequestMetrics(inner)).ServeHTTP(rec, req)

	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))
	assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestsTotal), 0)
}

func TestRequestIDReplacesUnprintableHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.NotEqual(t, "bad id with spaces", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}
