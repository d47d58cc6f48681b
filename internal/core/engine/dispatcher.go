// Package engine fans a query out to source adapters and settles every
// source into a core.SourceOutcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/adapter"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/metrics"
)

// DefaultBackoffUnit is the base unit of the exponential retry backoff.
const DefaultBackoffUnit = time.Second

// ErrAdapterPanic marks an attempt that ended in an adapter panic. Panics are
// not retried.
var ErrAdapterPanic = errors.New("adapter panicked")

// TimeoutError reports an attempt that exceeded the source timeout.
type TimeoutError struct {
	Source  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Source, e.Timeout)
}

// Dispatcher runs adapters concurrently with per-source timeout and retry.
type Dispatcher struct {
	Registry    *core.Registry
	Adapters    map[string]adapter.Adapter
	Limiter     *RateLimiter
	BackoffUnit time.Duration
	Logger      *logging.Logger
	Clock       func() time.Time
}

// Dispatch queries every source in ids and returns one outcome per id, in
// the same order. It waits for all sources to settle; a failing source never
// cancels its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, ids []string, limit int) []core.SourceOutcome {
	if ctx == nil {
		ctx = context.Background()
	}

	outcomes := make([]core.SourceOutcome, len(ids))
	var wg conc.WaitGroup
	for i, id := range ids {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				outcomes[i] = d.runSource(ctx, id, query, limit)
			})
			if r := pc.Recovered(); r != nil {
				outcomes[i] = core.SourceOutcome{
					SourceID:   id,
					SourceName: d.sourceName(id),
					Err:        fmt.Sprintf("internal error: %v", r.Value),
				}
				d.logError("Source dispatch panicked", zap.String("source", id), zap.Any("panic", r.Value))
			}
		})
	}
	wg.Wait()

	return outcomes
}

// runSource is the retry state machine for one source.
func (d *Dispatcher) runSource(ctx context.Context, id, query string, limit int) core.SourceOutcome {
	outcome := core.SourceOutcome{SourceID: id, SourceName: d.sourceName(id)}

	desc, ok := d.Registry.Lookup(id)
	if !ok {
		outcome.Err = fmt.Sprintf("unknown source: %s", id)
		metrics.RecordSourceOutcome(id, false)
		return outcome
	}
	a := d.Adapters[desc.ID]
	if a == nil {
		outcome.Err = fmt.Sprintf("no adapter configured for %s", desc.Name)
		metrics.RecordSourceOutcome(desc.ID, false)
		return outcome
	}

	start := d.now()
	var lastErr error
	for attempt := 1; attempt <= desc.Retries; attempt++ {
		outcome.Attempts = attempt

		attemptStart := d.now()
		page, err := d.attempt(ctx, desc, a, query, limit)
		elapsed := d.now().Sub(attemptStart)

		record := core.AttemptRecord{Number: attempt, Elapsed: elapsed}
		if err != nil {
			record.Error = err.Error()
		}
		outcome.AttemptLog = append(outcome.AttemptLog, record)
		metrics.RecordSourceAttempt(desc.ID, attempt, err == nil, elapsed)

		if err == nil {
			outcome.Success = true
			outcome.Results = page.Results
			outcome.Total = page.Total
			if outcome.Total < len(page.Results) {
				outcome.Total = len(page.Results)
			}
			lastErr = nil
			break
		}

		lastErr = err
		d.logDebug("Source attempt failed",
			zap.String("source", desc.ID),
			zap.Int("attempt", attempt),
			zap.Int("budget", desc.Retries),
			zap.Error(err))

		var statusErr *adapter.StatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
			d.Limiter.Record429(desc.ID, statusErr.RetryAfter)
		}

		if errors.Is(err, ErrAdapterPanic) || attempt == desc.Retries {
			break
		}
		if err := d.backoff(ctx, attempt); err != nil {
			lastErr = fmt.Errorf("%w (backoff interrupted: %v)", lastErr, err)
			break
		}
	}

	outcome.Elapsed = d.now().Sub(start)
	if lastErr != nil {
		outcome.Err = lastErr.Error()
		if strings.TrimSpace(outcome.Err) == "" {
			outcome.Err = desc.Name + " request failed"
		}
		d.logWarn("Source failed",
			zap.String("source", desc.ID),
			zap.Int("attempts", outcome.Attempts),
			zap.Duration("elapsed", outcome.Elapsed),
			zap.Error(lastErr))
	}
	metrics.RecordSourceOutcome(desc.ID, outcome.Success)

	return outcome
}

type attemptResult struct {
	page *core.SearchPage
	err  error
}

// attempt invokes the adapter once under the source timeout. The adapter
// runs in its own goroutine so an adapter that ignores ctx is abandoned at
// the deadline.
func (d *Dispatcher) attempt(parent context.Context, desc core.SourceDescriptor, a adapter.Adapter, query string, limit int) (*core.SearchPage, error) {
	ctx, cancel := context.WithTimeout(parent, desc.Timeout)
	defer cancel()

	if err := d.Limiter.Wait(ctx, desc.ID); err != nil {
		return nil, d.deadlineError(parent, ctx, desc, fmt.Errorf("rate limit wait: %w", err))
	}

	done := make(chan attemptResult, 1)
	go func() {
		var res attemptResult
		var pc panics.Catcher
		pc.Try(func() {
			res.page, res.err = a.Search(ctx, query, limit)
		})
		if r := pc.Recovered(); r != nil {
			res = attemptResult{err: fmt.Errorf("%w: %v", ErrAdapterPanic, r.Value)}
		}
		done <- res
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, d.deadlineError(parent, ctx, desc, res.err)
		}
		if res.page == nil {
			res.page = &core.SearchPage{}
		}
		return res.page, nil
	case <-ctx.Done():
		return nil, d.deadlineError(parent, ctx, desc, ctx.Err())
	}
}

// deadlineError rewrites errors caused by the attempt deadline into a
// TimeoutError. Cancellation of the parent context is passed through.
func (d *Dispatcher) deadlineError(parent, attemptCtx context.Context, desc core.SourceDescriptor, err error) error {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Source: desc.Name, Timeout: desc.Timeout}
	}
	return err
}

// backoffDelay is the wait after failed attempt n: 2^n backoff units. A
// non-positive unit means DefaultBackoffUnit.
func backoffDelay(unit time.Duration, attempt int) time.Duration {
	if unit <= 0 {
		unit = DefaultBackoffUnit
	}
	return unit * time.Duration(1<<attempt)
}

// WorstCaseDuration is the longest one source can take to settle: every
// attempt runs to its timeout and every retry waits its full backoff.
func WorstCaseDuration(desc core.SourceDescriptor, backoffUnit time.Duration) time.Duration {
	total := time.Duration(desc.Retries) * desc.Timeout
	for attempt := 1; attempt < desc.Retries; attempt++ {
		total += backoffDelay(backoffUnit, attempt)
	}
	return total
}

// SlowestSource returns the source with the largest WorstCaseDuration.
func SlowestSource(registry *core.Registry, backoffUnit time.Duration) (core.SourceDescriptor, time.Duration) {
	var slowest core.SourceDescriptor
	var worst time.Duration
	for _, desc := range registry.Descriptors() {
		if d := WorstCaseDuration(desc, backoffUnit); d > worst {
			slowest, worst = desc, d
		}
	}
	return slowest, worst
}

// backoff sleeps backoffDelay for attempt.
func (d *Dispatcher) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(backoffDelay(d.BackoffUnit, attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Dispatcher) sourceName(id string) string {
	if desc, ok := d.Registry.Lookup(id); ok {
		return desc.Name
	}
	return id
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Dispatcher) logDebug(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Debug(msg, fields...)
	}
}

func (d *Dispatcher) logWarn(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Warn(msg, fields...)
	}
}

func (d *Dispatcher) logError(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Error(msg, fields...)
	}
}
