// Package errors builds gofulmen error envelopes for pharmaintel and maps
// their codes onto HTTP statuses.
package errors

import (
	"context"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/middleware"
)

// Error codes used across the HTTP surface and the CLI.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeConfigInvalid      = "CONFIG_INVALID"
)

var statusByCode = map[string]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeValidationFailed:   http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeExternalService:    http.StatusBadGateway,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

// HTTPStatusFromCode returns the HTTP status for an error code. Unknown codes
// are internal errors.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeServiceUnavailable, message)
}

func NewExternalServiceError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeExternalService, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

// Wrap builds an envelope around err. The request id in ctx, or a fresh
// uuid, becomes both correlation and trace id.
func Wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	id := requestIDOr(ctx, uuid.NewString)
	envelope := errors.NewErrorEnvelope(code, message).
		WithCorrelationID(id).
		WithTraceID(id)
	return withContextValue(envelope, "wrapped_error", err)
}

func WrapValidationError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeValidationFailed, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeConfigInvalid, err, message)
}

// WrapInternal is Wrap with CodeInternal and high severity.
func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return highSeverity(Wrap(ctx, CodeInternal, err, message))
}

// EnsureEnvelope returns err as an envelope, converting plain errors into
// high-severity internal errors.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		envelope, sevErr := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error").WithSeverity(errors.SeverityCritical)
		if sevErr != nil {
			return errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		}
		return envelope
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}
	envelope := withContextValue(errors.NewErrorEnvelope(CodeInternal, "unexpected error"), "wrapped_error", err)
	return highSeverity(envelope)
}

func requestIDOr(ctx context.Context, fallback func() string) string {
	if ctx != nil {
		if id := middleware.GetRequestID(ctx); id != "" {
			return id
		}
	}
	return fallback()
}

func withContextValue(envelope *errors.ErrorEnvelope, key string, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}
	if updated, updateErr := envelope.WithContext(map[string]interface{}{key: err.Error()}); updateErr == nil {
		return updated
	}
	return envelope
}

func highSeverity(envelope *errors.ErrorEnvelope) *errors.ErrorEnvelope {
	if updated, err := envelope.WithSeverity(errors.SeverityHigh); err == nil {
		return updated
	}
	return envelope
}
