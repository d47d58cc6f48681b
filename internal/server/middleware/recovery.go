package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/observability"
)

const panicMessage = "An unexpected internal error occurred"

var exposeStack atomic.Bool

// ExposeStackTraces controls whether panic responses carry the panic value
// and stack trace. Logs always carry both.
func ExposeStackTraces(enabled bool) {
	exposeStack.Store(enabled)
}

// ErrorResponse is the JSON body written for a recovered panic. It mirrors
// the envelope written by internal/errors, which imports this package.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Recovery converts a handler panic into a 500 INTERNAL_ERROR envelope.
// http.ErrAbortHandler is re-raised.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				handlePanic(w, r, v, debug.Stack())
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func handlePanic(w http.ResponseWriter, r *http.Request, value any, stack []byte) {
	requestID := GetRequestID(r.Context())
	metrics.RecordPanic()

	if logger := observability.ServerLogger; logger != nil {
		logger.Error("Recovered from handler panic",
			zap.Any("panic", value),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.ByteString("stack_trace", stack))
	}

	envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", panicMessage).WithCorrelationID(requestID)
	body := ErrorResponse{Error: ErrorDetail{
		Code:      envelope.Code,
		Message:   envelope.Message,
		RequestID: envelope.CorrelationID,
	}}
	if exposeStack.Load() {
		body.Error.Message = fmt.Sprintf("panic: %v", value)
		body.Error.Details = map[string]interface{}{"stack_trace": string(stack)}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(body)
}
