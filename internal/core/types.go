package core

import "time"

// RawResult is a single record as returned by a source adapter. Keys are
// source specific; only title/id/link/year naming is loosely expected.
type RawResult map[string]any

// SearchPage is what an adapter returns for one query.
type SearchPage struct {
	Results []RawResult `json:"results"`
	Total   int         `json:"total"`
}

// QualityTier is the coarse usability bucket of a result.
type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
)

// Rank orders tiers for sorting (higher is better).
func (q QualityTier) Rank() int {
	switch q {
	case QualityHigh:
		return 3
	case QualityMedium:
		return 2
	case QualityLow:
		return 1
	default:
		return 0
	}
}

// Confidence expresses how much a source is trusted.
type Confidence string

const (
	ConfidenceVeryHigh Confidence = "very-high"
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
)

// HealthStatus is the request-level source health classification.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthCritical HealthStatus = "critical"
)

// LoadLevel classifies total wall-clock search time.
type LoadLevel string

const (
	LoadLow      LoadLevel = "low"
	LoadMedium   LoadLevel = "medium"
	LoadHigh     LoadLevel = "high"
	LoadCritical LoadLevel = "critical"
)

// AttemptRecord captures one adapter invocation inside the retry loop.
type AttemptRecord struct {
	Number  int           `json:"attempt"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// SourceOutcome is the settled result of dispatching one source.
type SourceOutcome struct {
	SourceID   string          `json:"source_id"`
	SourceName string          `json:"source_name"`
	Success    bool            `json:"success"`
	Results    []RawResult     `json:"-"`
	Total      int             `json:"total"`
	Err        string          `json:"error,omitempty"`
	Elapsed    time.Duration   `json:"elapsed"`
	Attempts   int             `json:"attempts"`
	AttemptLog []AttemptRecord `json:"attempt_log,omitempty"`
}

// NormalizedResult is the canonical record every source result is mapped to.
type NormalizedResult struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id"`
	Source     string         `json:"source"`
	Title      string         `json:"title"`
	Detail     string         `json:"detail"`
	Status     string         `json:"status"`
	Phase      string         `json:"phase"`
	Sponsor    string         `json:"sponsor"`
	Enrollment string         `json:"enrollment"`
	Type       string         `json:"type"`
	Year       int            `json:"year"`
	Link       string         `json:"link"`
	LinkValid  bool           `json:"link_valid"`
	Defaulted  []string       `json:"defaulted_fields,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// IsDefaulted reports whether the named field was filled with a fallback.
func (r NormalizedResult) IsDefaulted(field string) bool {
	for _, name := range r.Defaulted {
		if name == field {
			return true
		}
	}
	return false
}

// ScoredResult adds per-request derived scores to a NormalizedResult.
type ScoredResult struct {
	NormalizedResult
	Quality       QualityTier   `json:"quality"`
	QualityPoints int           `json:"quality_points"`
	Relevance     int           `json:"relevance_score"`
	Completeness  int           `json:"completeness"`
	Confidence    Confidence    `json:"source_confidence"`
	SourceLatency time.Duration `json:"-"`
}

// SourceTiming names a source with its response time.
type SourceTiming struct {
	SourceID       string `json:"database"`
	Name           string `json:"name"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

// AggregateReport summarizes all outcomes of one request.
type AggregateReport struct {
	Requested         int           `json:"requested"`
	Succeeded         int           `json:"succeeded"`
	Failed            int           `json:"failed"`
	SuccessRate       int           `json:"success_rate"`
	Fastest           *SourceTiming `json:"fastest_source"`
	Slowest           *SourceTiming `json:"slowest_source"`
	AverageResponseMS int64         `json:"average_response_time_ms"`
	WallClock         time.Duration `json:"-"`
	Load              LoadLevel     `json:"system_load"`
	Health            HealthStatus  `json:"overall_status"`
	HTTPStatus        int           `json:"-"`
}
