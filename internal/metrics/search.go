package metrics

import (
	"strconv"
	"time"
)

// Search pipeline metric names
const (
	SourceAttemptsTotal     = "source_attempts_total"
	SourceAttemptDurationMS = "source_attempt_duration_ms"
	SourceOutcomesTotal     = "source_outcomes_total"
	SearchRequestsTotal     = "search_requests_total"
	SearchDurationMS        = "search_duration_ms"
)

// RecordSourceAttempt records a single adapter invocation. attempt is
// 1-based and bounded by the source retry budget, so it is safe as a label.
func RecordSourceAttempt(source string, attempt int, success bool, duration time.Duration) {
	counter(SourceAttemptsTotal, Labels{
		"source":  source,
		"attempt": strconv.Itoa(attempt),
		"status":  statusLabel(success),
	})
	histogram(SourceAttemptDurationMS, duration, Labels{"source": source})
}

// RecordSourceOutcome records the settled outcome of one source.
func RecordSourceOutcome(source string, success bool) {
	counter(SourceOutcomesTotal, Labels{"source": source, "status": statusLabel(success)})
}

// RecordSearch records a completed combined search.
func RecordSearch(database string, httpStatus int, duration time.Duration) {
	counter(SearchRequestsTotal, Labels{"database": database, "http_status": strconv.Itoa(httpStatus)})
	histogram(SearchDurationMS, duration, Labels{"database": database})
}
