// Package metrics emits pharmaintel telemetry through the global gofulmen
// telemetry system. Every function is a no-op until observability.InitMetrics
// has run.
package metrics

import (
	"time"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

// Labels is a metric label set.
type Labels = map[string]string

func counter(name string, labels Labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, 1, labels)
	}
}

func histogram(name string, d time.Duration, labels Labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, labels)
	}
}

func gauge(name string, value float64, labels Labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, labels)
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
