package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	apperrors "github.com/prathikkv/pharma-intelligence-sub001/internal/errors"
)

// SourceInfo is the public view of one registered source.
type SourceInfo struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	TimeoutMS  int64           `json:"timeout_ms"`
	Retries    int             `json:"retries"`
	Confidence core.Confidence `json:"confidence"`
	HighValue  bool            `json:"high_value"`
	ResultType string          `json:"result_type"`
	Homepage   string          `json:"homepage"`
}

// SourcesResponse lists the registry in registration order.
type SourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
	Count   int          `json:"count"`
}

// SourcesHandler serves GET /api/sources.
func SourcesHandler(registry *core.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			apperrors.RespondWithError(w, r, apperrors.NewServiceUnavailableError("source registry is not configured"))
			return
		}

		resp := SourcesResponse{Sources: DescribeSources(registry)}
		resp.Count = len(resp.Sources)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// DescribeSources converts registry descriptors into SourceInfo values.
func DescribeSources(registry *core.Registry) []SourceInfo {
	descriptors := registry.Descriptors()
	out := make([]SourceInfo, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, SourceInfo{
			ID:         d.ID,
			Name:       d.Name,
			TimeoutMS:  d.Timeout.Milliseconds(),
			Retries:    d.Retries,
			Confidence: d.Confidence,
			HighValue:  d.HighValue,
			ResultType: d.ResultType,
			Homepage:   d.Homepage,
		})
	}
	return out
}
