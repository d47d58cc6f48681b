package metrics

import (
	"strconv"
	"time"
)

// HTTP and error metric names
const (
	HTTPRequestsTotal     = "http_requests_total"
	HTTPRequestDurationMS = "http_request_duration_ms"
	HTTPResponseSizeBytes = "http_response_size_bytes"
	HTTPErrorsTotal       = "http_errors_total"
	ErrorsTotalName       = "errors_total"
	ErrorsByEndpointName  = "errors_by_endpoint"
	PanicsTotalName       = "panics_total"
)

// HTTPRequest describes one served request. Endpoint must be a route
// pattern, never a raw path.
type HTTPRequest struct {
	Method        string
	Endpoint      string
	Status        int
	Duration      time.Duration
	ResponseBytes int64
}

// RecordHTTPRequest records request count, latency and response size, plus
// an error counter for 4xx/5xx statuses.
func RecordHTTPRequest(req HTTPRequest) {
	status := strconv.Itoa(req.Status)
	labels := Labels{"method": req.Method, "endpoint": req.Endpoint, "status": status}
	counter(HTTPRequestsTotal, labels)
	histogram(HTTPRequestDurationMS, req.Duration, labels)
	gauge(HTTPResponseSizeBytes, float64(req.ResponseBytes), Labels{"method": req.Method, "endpoint": req.Endpoint})

	if req.Status < 400 {
		return
	}
	errorType := "client_error"
	if req.Status >= 500 {
		errorType = "server_error"
	}
	counter(HTTPErrorsTotal, Labels{
		"method":     req.Method,
		"endpoint":   req.Endpoint,
		"status":     status,
		"error_type": errorType,
	})
}

// RecordError records an error envelope written to a client.
func RecordError(errorCode string, httpStatus int) {
	counter(ErrorsTotalName, Labels{"error_code": errorCode, "http_status": strconv.Itoa(httpStatus)})
}

// RecordErrorByEndpoint records an error envelope against its route.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	counter(ErrorsByEndpointName, Labels{"endpoint": endpoint, "error_code": errorCode})
}

// RecordPanic records a recovered handler panic.
func RecordPanic() {
	counter(PanicsTotalName, nil)
}
