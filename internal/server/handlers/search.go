package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
	apperrors "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/server/middleware"
)

// Searcher runs one combined search.
type Searcher interface {
	Search(ctx context.Context, req aggregate.Request) (*aggregate.Response, error)
}

// CombinedSearchHandler serves GET /api/combined-search.
type CombinedSearchHandler struct {
	Searcher Searcher
}

// NewCombinedSearchHandler wraps a Searcher.
func NewCombinedSearchHandler(searcher Searcher) *CombinedSearchHandler {
	return &CombinedSearchHandler{Searcher: searcher}
}

func (h *CombinedSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Searcher == nil {
		apperrors.RespondWithError(w, r, apperrors.NewServiceUnavailableError("search is not configured"))
		return
	}

	params := r.URL.Query()
	limit, err := parseLimit(params.Get("limit"))
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "limit must be a whole number"))
		return
	}

	req := aggregate.Request{
		Query:     params.Get("query"),
		Database:  params.Get("database"),
		Limit:     limit,
		RequestID: middleware.GetRequestID(r.Context()),
	}

	// A client disconnect must not cancel source calls already in flight.
	resp, err := h.Searcher.Search(context.WithoutCancel(r.Context()), req)
	if err != nil {
		var validation *aggregate.ValidationError
		if errors.As(err, &validation) {
			envelope := apperrors.WrapValidationError(r.Context(), err, validation.Error())
			envelope = envelope.WithDetails(map[string]interface{}{"field": validation.Field})
			apperrors.RespondWithError(w, r, envelope)
			return
		}
		apperrors.RespondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "combined search failed"))
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// parseLimit accepts an empty value (use the default) or a base-10 integer.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}
