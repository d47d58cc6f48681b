package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces per-source request rates with token buckets.
type RateLimiter struct {
	Limits map[string]RateLimit
	Clock  func() time.Time
	Margin float64

	mu           sync.Mutex
	buckets      map[string]*rate.Limiter
	backoffUntil map[string]time.Time
}

// RateLimit is a token bucket configuration.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultLimits provides conservative defaults per source. Sources without
// an entry are not limited.
var DefaultLimits = map[string]RateLimit{
	"clinicaltrials": {RequestsPerSecond: 10, Burst: 10},
	"chembl":         {RequestsPerSecond: 5, Burst: 5},
	"pubmed":         {RequestsPerSecond: 3, Burst: 3},
	"opentargets":    {RequestsPerSecond: 10, Burst: 5},
}

// Wait blocks until the source may issue a request or ctx is done. A
// request Allow admits returns without blocking.
func (r *RateLimiter) Wait(ctx context.Context, source string) error {
	if r == nil || r.Allow(source) {
		return nil
	}

	if until, ok := r.backoff(source); ok {
		wait := until.Sub(r.now())
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	bucket := r.bucket(source)
	if bucket == nil {
		return nil
	}
	return bucket.Wait(ctx)
}

// Allow reports whether a request may be issued now and, if so, takes its
// token. A rejected call consumes nothing.
func (r *RateLimiter) Allow(source string) bool {
	if r == nil {
		return true
	}
	if until, ok := r.backoff(source); ok && r.now().Before(until) {
		return false
	}
	bucket := r.bucket(source)
	if bucket == nil {
		return true
	}
	return bucket.Allow()
}

// Record429 pauses a source until retryAfter has elapsed.
func (r *RateLimiter) Record429(source string, retryAfter time.Duration) {
	if r == nil || retryAfter <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backoffUntil == nil {
		r.backoffUntil = make(map[string]time.Time)
	}
	r.backoffUntil[normalizeKey(source)] = r.now().Add(retryAfter)
}

// ApplyOverrides merges per-source limits. Non-positive rates are ignored.
func (r *RateLimiter) ApplyOverrides(overrides map[string]RateLimit) {
	if r == nil || len(overrides) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Limits == nil {
		r.Limits = make(map[string]RateLimit, len(DefaultLimits))
		for key, limit := range DefaultLimits {
			r.Limits[key] = limit
		}
	}

	for source, limit := range overrides {
		source = normalizeKey(source)
		if source == "" || limit.RequestsPerSecond <= 0 {
			continue
		}
		if limit.Burst < 1 {
			limit.Burst = 1
		}
		r.Limits[source] = limit
		delete(r.buckets, source)
	}
}

// ApplySafetyMargin scales the effective request rates by a ratio (0-1].
func (r *RateLimiter) ApplySafetyMargin(margin float64) {
	if r == nil {
		return
	}
	if margin <= 0 || margin > 1 {
		return
	}
	r.mu.Lock()
	r.Margin = margin
	r.buckets = nil
	r.mu.Unlock()
}

// Effective returns the limit applied to source after overrides and the
// safety margin. ok is false for unlimited sources.
func (r *RateLimiter) Effective(source string) (limit RateLimit, ok bool) {
	if r == nil {
		return RateLimit{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLimit(normalizeKey(source))
}

func (r *RateLimiter) bucket(source string) *rate.Limiter {
	key := normalizeKey(source)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[key]; ok {
		return b
	}
	limit, ok := r.getLimit(key)
	if !ok {
		return nil
	}
	if r.buckets == nil {
		r.buckets = make(map[string]*rate.Limiter)
	}
	b := rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), limit.Burst)
	r.buckets[key] = b
	return b
}

func (r *RateLimiter) backoff(source string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.backoffUntil[normalizeKey(source)]
	return until, ok
}

// getLimit must be called with r.mu held.
func (r *RateLimiter) getLimit(source string) (RateLimit, bool) {
	limits := r.Limits
	if limits == nil {
		limits = DefaultLimits
	}
	limit, ok := limits[source]
	if !ok {
		return RateLimit{}, false
	}
	return r.applyMargin(limit), true
}

func (r *RateLimiter) applyMargin(limit RateLimit) RateLimit {
	if r.Margin <= 0 || r.Margin > 1 {
		return limit
	}
	limit.RequestsPerSecond *= r.Margin
	limit.Burst = int(math.Max(1, math.Floor(float64(limit.Burst)*r.Margin)))
	return limit
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
