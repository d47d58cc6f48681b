package aggregate

import (
	"math"
	"net/http"
	"time"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// System load thresholds on total wall-clock search time.
const (
	loadMediumAfter   = 5 * time.Second
	loadHighAfter     = 15 * time.Second
	loadCriticalAfter = 30 * time.Second
)

// BuildReport summarizes the outcomes of one dispatch.
func BuildReport(outcomes []core.SourceOutcome, wall time.Duration) core.AggregateReport {
	report := core.AggregateReport{
		Requested: len(outcomes),
		WallClock: wall,
		Load:      ClassifyLoad(wall),
	}

	var sum time.Duration
	for _, o := range outcomes {
		if !o.Success {
			report.Failed++
			continue
		}
		report.Succeeded++
		sum += o.Elapsed

		timing := &core.SourceTiming{SourceID: o.SourceID, Name: o.SourceName, ResponseTimeMS: o.Elapsed.Milliseconds()}
		if report.Fastest == nil || o.Elapsed.Milliseconds() < report.Fastest.ResponseTimeMS {
			report.Fastest = timing
		}
		if report.Slowest == nil || o.Elapsed.Milliseconds() > report.Slowest.ResponseTimeMS {
			report.Slowest = timing
		}
	}

	if report.Requested > 0 {
		report.SuccessRate = int(math.Round(100 * float64(report.Succeeded) / float64(report.Requested)))
	}
	if report.Succeeded > 0 {
		report.AverageResponseMS = (sum / time.Duration(report.Succeeded)).Milliseconds()
	}

	switch {
	case report.Failed == 0:
		report.Health = core.HealthHealthy
		report.HTTPStatus = http.StatusOK
	case report.Succeeded == 0:
		report.Health = core.HealthCritical
		report.HTTPStatus = http.StatusServiceUnavailable
	default:
		report.Health = core.HealthDegraded
		report.HTTPStatus = http.StatusPartialContent
	}
	return report
}

// ClassifyLoad maps total search time onto a load level.
func ClassifyLoad(wall time.Duration) core.LoadLevel {
	switch {
	case wall < loadMediumAfter:
		return core.LoadLow
	case wall < loadHighAfter:
		return core.LoadMedium
	case wall < loadCriticalAfter:
		return core.LoadHigh
	default:
		return core.LoadCritical
	}
}
