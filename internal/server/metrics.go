package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	apperrors "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

const (
	defaultExporterPort   = 9090
	prometheusContentType = "text/plain; version=0.0.4"
	metricsProxyTimeout   = 5 * time.Second
)

var metricsProxyClient = &http.Client{Timeout: metricsProxyTimeout}

// hopByHopHeaders are dropped when relaying the exporter response.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// exporterURL is the loopback scrape address of the Prometheus exporter.
func exporterURL() string {
	port := observability.GetMetricsPort()
	if port == 0 {
		port = viper.GetInt("metrics.port")
	}
	if port == 0 {
		port = defaultExporterPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
}

// MetricsHandler relays the exporter's scrape output so /metrics is served on
// the API port.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		apperrors.RespondWithError(w, r, apperrors.NewServiceUnavailableError("Metrics exporter not initialized"))
		return
	}

	target := exporterURL()
	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		respondProxyError(w, r, apperrors.NewInternalError("Unable to construct metrics request"), target, err)
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		upstream.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(upstream)
	if err != nil {
		respondProxyError(w, r, apperrors.NewExternalServiceError("Prometheus exporter unavailable"), target, err)
		return
	}
	defer closeQuietly(resp.Body)

	relayHeaders(w.Header(), resp.Header)
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", prometheusContentType)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logProxyWarning("Failed to write metrics response", err)
	}
}

func respondProxyError(w http.ResponseWriter, r *http.Request, envelope *gferrors.ErrorEnvelope, target string, cause error) {
	enriched, ctxErr := envelope.WithContext(map[string]interface{}{
		"metrics_url":    target,
		"original_error": cause.Error(),
	})
	if ctxErr != nil {
		enriched = envelope
	}
	apperrors.RespondWithError(w, r, enriched)
}

func relayHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopByHopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func closeQuietly(body io.Closer) {
	if err := body.Close(); err != nil {
		logProxyWarning("Failed to close metrics response body", err)
	}
}

func logProxyWarning(msg string, err error) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn(msg, zap.Error(err))
	}
}
