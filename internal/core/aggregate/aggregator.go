package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
)

// Result limits applied when the aggregator is not configured.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Dispatcher fans a query out to sources and settles every one of them.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string, ids []string, limit int) []core.SourceOutcome
}

// Request is one combined search.
type Request struct {
	Query     string
	Database  string
	Limit     int
	RequestID string
}

// ValidationError rejects a request before any source is contacted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Aggregator runs the full search pipeline.
type Aggregator struct {
	Dispatcher Dispatcher
	Registry   *core.Registry
	Clock      func() time.Time
	Logger     *logging.Logger

	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
}

// Search validates the request, dispatches it and builds the response.
// Source failures are reported inside the response; only validation
// failures return an error.
func (a *Aggregator) Search(ctx context.Context, req Request) (*Response, error) {
	query, err := core.ValidateQuery(req.Query, a.MaxQueryLength)
	if err != nil {
		return nil, &ValidationError{Field: "query", Err: err}
	}

	database := strings.ToLower(strings.TrimSpace(req.Database))
	if database == "" {
		database = core.AllSources
	}
	ids, err := a.Registry.Resolve(database)
	if err != nil {
		return nil, &ValidationError{Field: "database", Err: err}
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "database", Err: errors.New("no sources are enabled")}
	}
	limit := a.limit(req.Limit)

	start := a.now()
	outcomes := a.Dispatcher.Dispatch(ctx, query, ids, limit)
	wall := a.now().Sub(start)

	normalized := make([]core.NormalizedResult, 0)
	latencies := make(map[string]time.Duration, len(outcomes))
	total := 0
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		latencies[o.SourceID] = o.Elapsed
		desc, ok := a.Registry.Lookup(o.SourceID)
		if !ok {
			desc = core.SourceDescriptor{ID: o.SourceID, Name: o.SourceName}
		}
		for _, raw := range o.Results {
			normalized = append(normalized, NormalizeAt(raw, desc, start))
		}
		total += len(o.Results)
	}
	EnsureUniqueIDs(normalized, start)

	unique, removed := Dedupe(normalized)

	scorer := &Scorer{Registry: a.Registry, Clock: a.Clock}
	scored := scorer.ScoreAll(unique, query, latencies)
	Rank(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	report := BuildReport(outcomes, wall)
	resp := BuildResponse(report, outcomes, scored, ResponseMeta{
		Query:             query,
		Database:          database,
		RequestID:         req.RequestID,
		Timestamp:         a.now().UTC(),
		TotalResults:      total,
		UniqueResults:     len(unique),
		DuplicatesRemoved: removed,
	})

	metrics.RecordSearch(database, report.HTTPStatus, wall)
	if a.Logger != nil {
		a.Logger.Info("Combined search completed",
			zap.String("database", database),
			zap.Int("sources", report.Requested),
			zap.Int("failed", report.Failed),
			zap.Int("results", len(scored)),
			zap.Int("duplicates_removed", removed),
			zap.Duration("elapsed", wall),
			zap.String("health", string(report.Health)))
	}

	return resp, nil
}

func (a *Aggregator) limit(requested int) int {
	def := a.DefaultLimit
	if def <= 0 {
		def = DefaultLimit
	}
	ceiling := a.MaxLimit
	if ceiling <= 0 {
		ceiling = MaxLimit
	}
	if requested <= 0 {
		requested = def
	}
	if requested > ceiling {
		requested = ceiling
	}
	return requested
}

func (a *Aggregator) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}
