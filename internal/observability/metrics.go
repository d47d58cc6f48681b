package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// fallbackMetricsPort is reported when an ephemeral exporter port cannot be
// read back.
const fallbackMetricsPort = 9090

var (
	// TelemetrySystem receives every metric emitted by internal/metrics. Nil
	// disables emission.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the scrape endpoint that /metrics relays.
	PrometheusExporter *exporters.PrometheusExporter

	metricsPort int
)

// InitMetrics starts a Prometheus exporter on port (0 picks a free port) and
// routes telemetry through it. Metric names are prefixed with namespace when
// given, otherwise with serviceName.
func InitMetrics(serviceName string, port int, namespace ...string) error {
	if port < 0 {
		port = 0
	}
	prefix := serviceName
	if len(namespace) > 0 && namespace[0] != "" {
		prefix = namespace[0]
	}

	exporter := exporters.NewPrometheusExporter(prefix, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter: %w", err)
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("create telemetry system: %w", err)
	}

	PrometheusExporter = exporter
	TelemetrySystem = sys
	metricsPort = boundPort(exporter.GetAddr(), port)
	return nil
}

// ShutdownMetrics stops the exporter and disables telemetry.
func ShutdownMetrics() error {
	exporter := PrometheusExporter
	PrometheusExporter, TelemetrySystem, metricsPort = nil, nil, 0
	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// GetMetricsPort returns the port the exporter listens on, or 0.
func GetMetricsPort() int {
	return metricsPort
}

func boundPort(addr string, requested int) int {
	if port, err := resolvePort(addr); err == nil {
		return port
	}
	if requested == 0 {
		return fallbackMetricsPort
	}
	return requested
}

func resolvePort(addr string) (int, error) {
	_, raw, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}
