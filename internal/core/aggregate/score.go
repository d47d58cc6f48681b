package aggregate

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// Quality tier thresholds on the point sum.
const (
	highQualityPoints   = 8
	mediumQualityPoints = 5
	maxRelevance        = 10
)

var (
	trialCountKeys  = []string{"trial_count", "trials", "num_trials"}
	marketValueKeys = []string{"market_value", "sales", "revenue"}
)

// Field weights for completeness: critical fields count double.
var completenessFields = []struct {
	name   string
	weight int
}{
	{"title", 2},
	{"detail", 2},
	{"status", 2},
	{"link", 2},
	{"year", 2},
	{"phase", 1},
	{"sponsor", 1},
	{"enrollment", 1},
	{"type", 1},
}

// Scorer derives per-request scores. Registry supplies the high-value flag
// and confidence tier of each source.
type Scorer struct {
	Registry *core.Registry
	Clock    func() time.Time
}

// Score computes quality, relevance, completeness and confidence for one
// result. latency is the response time of the source call that produced it.
func (s *Scorer) Score(r core.NormalizedResult, query string, latency time.Duration) core.ScoredResult {
	points := QualityPoints(r)
	desc, known := s.Registry.Lookup(r.SourceID)

	return core.ScoredResult{
		NormalizedResult: r,
		Quality:          QualityTierFor(points),
		QualityPoints:    points,
		Relevance:        Relevance(r, core.QueryTerms(query), known && desc.HighValue, s.now()),
		Completeness:     Completeness(r),
		Confidence:       s.Confidence(r.SourceID),
		SourceLatency:    latency,
	}
}

// ScoreAll scores every result; latencies is keyed by source id.
func (s *Scorer) ScoreAll(results []core.NormalizedResult, query string, latencies map[string]time.Duration) []core.ScoredResult {
	out := make([]core.ScoredResult, 0, len(results))
	for _, r := range results {
		out = append(out, s.Score(r, query, latencies[r.SourceID]))
	}
	return out
}

// Confidence looks up the source's confidence tier; unknown sources are low.
func (s *Scorer) Confidence(sourceID string) core.Confidence {
	desc, ok := s.Registry.Lookup(sourceID)
	if !ok || desc.Confidence == "" {
		return core.ConfidenceLow
	}
	return desc.Confidence
}

func (s *Scorer) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// QualityPoints sums field presence points and source-specific bonuses.
func QualityPoints(r core.NormalizedResult) int {
	points := 0
	if !r.IsDefaulted("title") && utf8.RuneCountInString(r.Title) > 5 {
		points += 2
	}
	if !r.IsDefaulted("detail") && utf8.RuneCountInString(r.Detail) > 10 {
		points += 2
	}
	if r.LinkValid {
		points++
	}
	for _, field := range []string{"status", "phase", "year", "sponsor"} {
		if !r.IsDefaulted(field) {
			points++
		}
	}

	if hasExtra(r, trialCountKeys) {
		points++
	}
	if hasExtra(r, marketValueKeys) {
		points++
	}
	if hasExtra(r, identifierKeys) {
		points++
	}
	return points
}

// QualityTierFor buckets a point sum.
func QualityTierFor(points int) core.QualityTier {
	switch {
	case points >= highQualityPoints:
		return core.QualityHigh
	case points >= mediumQualityPoints:
		return core.QualityMedium
	default:
		return core.QualityLow
	}
}

// Relevance scores how well a result matches the query terms, capped at 10.
func Relevance(r core.NormalizedResult, terms []string, highValue bool, now time.Time) int {
	score := 0
	if containsAny(r.Title, terms) {
		score += 3
	}
	if containsAny(r.Detail, terms) {
		score += 2
	}
	if containsAny(r.Sponsor, terms) {
		score++
	}
	if containsAny(r.Type, terms) {
		score++
	}
	if highValue {
		score += 2
	}
	if !r.IsDefaulted("year") && abs(r.Year-now.Year()) <= 2 {
		score++
	}
	if score > maxRelevance {
		score = maxRelevance
	}
	return score
}

// Completeness is the weighted share of non-defaulted fields, 0-100.
func Completeness(r core.NormalizedResult) int {
	present, total := 0, 0
	for _, f := range completenessFields {
		total += f.weight
		if !r.IsDefaulted(f.name) {
			present += f.weight
		}
	}
	return int(math.Round(100 * float64(present) / float64(total)))
}

// Rank orders results by quality tier, then originating source latency,
// then marketed products first, then relevance. The sort is stable.
func Rank(results []core.ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if ra, rb := a.Quality.Rank(), b.Quality.Rank(); ra != rb {
			return ra > rb
		}
		if a.SourceLatency != b.SourceLatency {
			return a.SourceLatency < b.SourceLatency
		}
		if ma, mb := isMarketed(a.NormalizedResult), isMarketed(b.NormalizedResult); ma != mb {
			return ma
		}
		return a.Relevance > b.Relevance
	})
}

func isMarketed(r core.NormalizedResult) bool {
	return strings.EqualFold(r.Status, "marketed") || strings.EqualFold(r.Phase, "marketed")
}

func hasExtra(r core.NormalizedResult, keys []string) bool {
	for _, key := range keys {
		if v, ok := r.Extra[key]; ok && !IsPlaceholder(v) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
