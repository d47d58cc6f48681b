package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// stubExporter installs a fake exporter and routes the proxy client through rt.
func stubExporter(t *testing.T, rt roundTripFunc) {
	t.Helper()
	previousClient, previousExporter := metricsProxyClient, observability.PrometheusExporter
	metricsProxyClient = &http.Client{Transport: rt}
	observability.PrometheusExporter = exporters.NewPrometheusExporter("pharmaintel_test", ":0")
	t.Cleanup(func() {
		metricsProxyClient = previousClient
		observability.PrometheusExporter = previousExporter
	})
}

func scrape(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestMetricsHandlerRelaysExporterOutput(t *testing.T) {
	var requested string
	stubExporter(t, func(req *http.Request) (*http.Response, error) {
		requested = req.URL.Path
		header := http.Header{}
		header.Set("Connection", "close")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader("source_outcomes_total{source=\"pubmed\"} 3\n")),
		}, nil
	})

	rec := scrape(t)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/metrics", requested)
	assert.Equal(t, prometheusContentType, rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "source_outcomes_total")
}

func TestMetricsHandlerExporterUnreachable(t *testing.T) {
	stubExporter(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rec := scrape(t)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, apperrors.CodeExternalService, errorCode(t, rec))
}

func TestMetricsHandlerWithoutExporter(t *testing.T) {
	previous := observability.PrometheusExporter
	observability.PrometheusExporter = nil
	t.Cleanup(func() { observability.PrometheusExporter = previous })

	rec := scrape(t)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.CodeServiceUnavailable, errorCode(t, rec))
}

func TestRelayHeadersDropsHopByHop(t *testing.T) {
	src := http.Header{}
	src.Set("Content-Type", "text/plain")
	src.Set("Transfer-Encoding", "chunked")
	src.Set("Keep-Alive", "timeout=5")
	dst := http.Header{}

	relayHeaders(dst, src)

	assert.Equal(t, "text/plain", dst.Get("Content-Type"))
	assert.Empty(t, dst.Get("Transfer-Encoding"))
	assert.Empty(t, dst.Get("Keep-Alive"))
}
