package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

// statusRecorder remembers the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

// knownEndpoints are the label values used when no chi route pattern is set.
var knownEndpoints = map[string]string{
	"/":                    "/",
	"/api/combined-search": "/api/combined-search",
	"/api/sources":         "/api/sources",
	"/version":             "/version",
	"/metrics":             "/metrics",
	"/health":              "/health/*",
	"/health/live":         "/health/*",
	"/health/ready":        "/health/*",
	"/health/startup":      "/health/*",
}

// EndpointPattern returns a low-cardinality label for the request route.
func EndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	if endpoint, ok := knownEndpoints[r.URL.Path]; ok {
		return endpoint
	}
	return "/unknown"
}

// RequestMetrics records count, latency and size for every request and logs
// its completion. Probe endpoints log at debug level.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if observability.TelemetrySystem == nil {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		endpoint := EndpointPattern(r)
		metrics.RecordHTTPRequest(metrics.HTTPRequest{
			Method:        r.Method,
			Endpoint:      endpoint,
			Status:        rec.status,
			Duration:      elapsed,
			ResponseBytes: rec.bytes,
		})

		logger := observability.ServerLogger
		if logger == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
			zap.Int64("response_size", rec.bytes),
			zap.String("requestID", GetRequestID(r.Context())),
		}
		if isProbe(endpoint) {
			logger.Debug("HTTP request completed", fields...)
			return
		}
		logger.Info("HTTP request completed", fields...)
	})
}

func isProbe(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/health") || endpoint == "/metrics"
}
