package aggregate

import (
	"math"
	"time"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// Response is the combined-search payload.
type Response struct {
	Success             bool                `json:"success"`
	Query               string              `json:"query"`
	Database            string              `json:"database"`
	Status              int                 `json:"status"`
	Results             []core.ScoredResult `json:"results"`
	TotalResults        int                 `json:"total_results"`
	UniqueResults       int                 `json:"unique_results"`
	FilteredResults     int                 `json:"filtered_results"`
	DuplicatesRemoved   int                 `json:"duplicates_removed"`
	SuccessfulDatabases []SourceSuccess     `json:"successful_databases"`
	FailedDatabases     []SourceFailure     `json:"failed_databases"`
	Performance         Performance         `json:"performance"`
	Summary             Summary             `json:"summary"`
	SystemHealth        SystemHealth        `json:"system_health"`
	RequestID           string              `json:"request_id,omitempty"`
	Timestamp           time.Time           `json:"timestamp"`
}

// SourceSuccess describes a source that answered.
type SourceSuccess struct {
	Database       string `json:"database"`
	Name           string `json:"name"`
	Count          int    `json:"count"`
	Total          int    `json:"total"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Attempts       int    `json:"attempts"`
}

// SourceFailure describes a source that exhausted its retry budget.
type SourceFailure struct {
	Database       string `json:"database"`
	Name           string `json:"name"`
	Error          string `json:"error"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Attempts       int    `json:"attempts"`
}

// Performance carries timing metadata.
type Performance struct {
	SearchTimeMS          int64              `json:"search_time_ms"`
	FastestSource         *core.SourceTiming `json:"fastest_source"`
	SlowestSource         *core.SourceTiming `json:"slowest_source"`
	AverageResponseTimeMS int64              `json:"average_response_time_ms"`
	SuccessRate           int                `json:"success_rate"`
}

// QualityCounts counts results per quality tier.
type QualityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Summary describes the returned result set.
type Summary struct {
	Quality             QualityCounts `json:"quality"`
	AverageCompleteness int           `json:"average_completeness"`
}

// SystemHealth is the request-level health block.
type SystemHealth struct {
	OverallStatus    core.HealthStatus `json:"overall_status"`
	DatabasesOnline  int               `json:"databases_online"`
	DatabasesOffline int               `json:"databases_offline"`
	SystemLoad       core.LoadLevel    `json:"system_load"`
}

// ResponseMeta carries request-level values that are not derived from
// outcomes or results.
type ResponseMeta struct {
	Query             string
	Database          string
	RequestID         string
	Timestamp         time.Time
	TotalResults      int
	UniqueResults     int
	DuplicatesRemoved int
}

// BuildResponse assembles the payload from the report, outcomes and the
// final ranked results.
func BuildResponse(report core.AggregateReport, outcomes []core.SourceOutcome, results []core.ScoredResult, meta ResponseMeta) *Response {
	if results == nil {
		results = []core.ScoredResult{}
	}

	resp := &Response{
		Success:             report.Succeeded > 0,
		Query:               meta.Query,
		Database:            meta.Database,
		Status:              report.HTTPStatus,
		Results:             results,
		TotalResults:        meta.TotalResults,
		UniqueResults:       meta.UniqueResults,
		FilteredResults:     len(results),
		DuplicatesRemoved:   meta.DuplicatesRemoved,
		SuccessfulDatabases: []SourceSuccess{},
		FailedDatabases:     []SourceFailure{},
		Performance: Performance{
			SearchTimeMS:          report.WallClock.Milliseconds(),
			FastestSource:         report.Fastest,
			SlowestSource:         report.Slowest,
			AverageResponseTimeMS: report.AverageResponseMS,
			SuccessRate:           report.SuccessRate,
		},
		SystemHealth: SystemHealth{
			OverallStatus:    report.Health,
			DatabasesOnline:  report.Succeeded,
			DatabasesOffline: report.Failed,
			SystemLoad:       report.Load,
		},
		RequestID: meta.RequestID,
		Timestamp: meta.Timestamp,
	}

	for _, o := range outcomes {
		if o.Success {
			resp.SuccessfulDatabases = append(resp.SuccessfulDatabases, SourceSuccess{
				Database:       o.SourceID,
				Name:           o.SourceName,
				Count:          len(o.Results),
				Total:          o.Total,
				ResponseTimeMS: o.Elapsed.Milliseconds(),
				Attempts:       o.Attempts,
			})
			continue
		}
		resp.FailedDatabases = append(resp.FailedDatabases, SourceFailure{
			Database:       o.SourceID,
			Name:           o.SourceName,
			Error:          o.Err,
			ResponseTimeMS: o.Elapsed.Milliseconds(),
			Attempts:       o.Attempts,
		})
	}

	completeness := 0
	for _, r := range results {
		switch r.Quality {
		case core.QualityHigh:
			resp.Summary.Quality.High++
		case core.QualityMedium:
			resp.Summary.Quality.Medium++
		default:
			resp.Summary.Quality.Low++
		}
		completeness += r.Completeness
	}
	if len(results) > 0 {
		resp.Summary.AverageCompleteness = int(math.Round(float64(completeness) / float64(len(results))))
	}

	return resp
}
