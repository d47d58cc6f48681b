package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeInvalidInput:       http.StatusBadRequest,
		CodeValidationFailed:   http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeExternalService:    http.StatusBadGateway,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeInternal:           http.StatusInternalServerError,
		CodeConfigInvalid:      http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
}

func TestWrapUsesRequestID(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "req-7")

	envelope := WrapValidationError(ctx, fmt.Errorf("limit out of range"), "invalid limit")

	assert.Equal(t, CodeValidationFailed, envelope.Code)
	assert.Equal(t, "invalid limit", envelope.Message)
	assert.Equal(t, "req-7", envelope.CorrelationID)
	assert.Equal(t, "limit out of range", envelope.Context["wrapped_error"])
}

func TestWrapGeneratesCorrelationIDWithoutRequest(t *testing.T) {
	envelope := WrapConfigInvalid(context.Background(), fmt.Errorf("bad port"), "config invalid")

	assert.Equal(t, CodeConfigInvalid, envelope.Code)
	assert.NotEmpty(t, envelope.CorrelationID)
}

func TestEnsureEnvelope(t *testing.T) {
	original := NewNotFoundError("missing")
	assert.Same(t, original, EnsureEnvelope(original))

	plain := EnsureEnvelope(fmt.Errorf("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Context["wrapped_error"])

	assert.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) HTTPErrorResponse {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithErrorWritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/combined-search", nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-405"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewMethodNotAllowedError("Method POST is not allowed"))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeErrorBody(t, rec)
	assert.Equal(t, CodeMethodNotAllowed, body.Error.Code)
	assert.Equal(t, "Method POST is not allowed", body.Error.Message)
	assert.Equal(t, "req-405", body.Error.RequestID)
}

func TestRespondWithErrorHidesInternalDetail(t *testing.T) {
	t.Cleanup(func() { SetDevelopmentMode(false) })

	respond := func() HTTPErrorResponse {
		rec := httptest.NewRecorder()
		RespondWithError(rec, httptest.NewRequest(http.MethodGet, "/api/combined-search", nil),
			WrapInternal(context.Background(), fmt.Errorf("nil adapter"), "combined search failed"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		return decodeErrorBody(t, rec)
	}

	SetDevelopmentMode(false)
	hidden := respond()
	assert.Equal(t, GenericInternalMessage, hidden.Error.Message)
	assert.Nil(t, hidden.Error.Details)

	SetDevelopmentMode(true)
	shown := respond()
	assert.Equal(t, "combined search failed", shown.Error.Message)
	assert.Equal(t, "nil adapter", shown.Error.Details["wrapped_error"])
}

func TestRespondWithErrorAssignsFallbackRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, nil, NewServiceUnavailableError("search is not configured"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeErrorBody(t, rec).Error.RequestID, "fallback-")
}
