package errors

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/middleware"
)

// GenericInternalMessage replaces 500 messages outside development mode.
const GenericInternalMessage = "An unexpected internal error occurred"

var developmentMode atomic.Bool

// SetDevelopmentMode controls whether 500 responses carry the envelope
// message and details.
func SetDevelopmentMode(enabled bool) {
	developmentMode.Store(enabled)
}

// HTTPErrorDetail is the body of an error response.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse is the JSON error envelope written to clients.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError writes err as a JSON error envelope, logs it and records
// error metrics.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}

	envelope := EnsureEnvelope(err)
	if envelope.CorrelationID == "" {
		id := ""
		if r != nil {
			id = middleware.GetRequestID(r.Context())
		}
		if id == "" {
			id = "fallback-" + errors.GenerateCorrelationID()
		}
		envelope = envelope.WithCorrelationID(id)
	}

	status := HTTPStatusFromCode(envelope.Code)
	body := HTTPErrorResponse{Error: HTTPErrorDetail{
		Code:      envelope.Code,
		Message:   envelope.Message,
		Details:   publicDetails(envelope),
		RequestID: envelope.CorrelationID,
	}}
	if status == http.StatusInternalServerError && !developmentMode.Load() {
		body.Error.Message = GenericInternalMessage
		body.Error.Details = nil
	}

	logEnvelope(envelope, status)
	metrics.RecordError(envelope.Code, status)
	if r != nil {
		metrics.RecordErrorByEndpoint(middleware.EndpointPattern(r), envelope.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// publicDetails merges envelope details with context; details win on
// conflicting keys.
func publicDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	if len(envelope.Details) == 0 && len(envelope.Context) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(envelope.Details)+len(envelope.Context))
	for k, v := range envelope.Context {
		merged[k] = v
	}
	for k, v := range envelope.Details {
		merged[k] = v
	}
	return merged
}

func logEnvelope(envelope *errors.ErrorEnvelope, status int) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(envelope.Context)+4)
	fields = append(fields,
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", status),
		zap.String("request_id", envelope.CorrelationID),
	)
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for k, v := range envelope.Context {
		fields = append(fields, zap.Any(k, v))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		logger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		logger.Warn(envelope.Message, fields...)
	default:
		logger.Info(envelope.Message, fields...)
	}
}
