package metrics

import "time"

// Application-level metric names
const (
	OperationsTotal     = "app_operations_total"
	SourcesEnabled      = "app_sources_enabled"
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
	ServerStartTime     = "app_server_start_time_seconds"
)

// RecordOperation records a CLI or server operation with its status.
func RecordOperation(operation string, success bool) {
	counter(OperationsTotal, Labels{"operation": operation, "status": statusLabel(success)})
}

// SetSourcesEnabled reports how many sources the registry holds.
func SetSourcesEnabled(count int) {
	gauge(SourcesEnabled, float64(count), nil)
}

// RecordHealthCheck records one health checker run.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	counter(HealthCheckTotal, Labels{"check": checkName, "status": status})
	histogram(HealthCheckDuration, duration, Labels{"check": checkName})
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	gauge(ServerStartTime, float64(timestamp), nil)
}
