// Package aggregate turns settled source outcomes into one ranked,
// deduplicated response.
package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// Fallback values for missing or placeholder fields.
const (
	DefaultStatus     = "Available"
	DefaultPhase      = "N/A"
	DefaultSponsor    = "Not specified"
	DefaultEnrollment = "Not specified"
)

// Field aliases, in priority order.
var (
	idKeys         = []string{"id", "identifier"}
	titleKeys      = []string{"title", "name", "brief_title", "pref_name", "drug_name"}
	detailKeys     = []string{"detail", "description", "summary", "abstract", "brief_summary"}
	statusKeys     = []string{"status", "overall_status", "development_status", "stage"}
	phaseKeys      = []string{"phase", "development_phase", "max_phase"}
	sponsorKeys    = []string{"sponsor", "lead_sponsor", "company", "organization"}
	enrollmentKeys = []string{"enrollment", "enrollment_count", "participants"}
	typeKeys       = []string{"type", "result_type", "category"}
	yearKeys       = []string{"year", "publication_year", "start_year"}
	linkKeys       = []string{"link", "url", "href"}
)

// identifierKeys stay in Extra even when used as the result id.
var identifierKeys = []string{"nct_id", "chembl_id", "pmid", "target_id", "identifier", "drug_id", "report_id"}

// canonicalKeys are alias keys absorbed into named fields and left out of
// Extra.
var canonicalKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, group := range [][]string{idKeys, titleKeys, detailKeys, statusKeys, phaseKeys,
		sponsorKeys, enrollmentKeys, typeKeys, yearKeys, linkKeys} {
		for _, key := range group {
			keys[key] = struct{}{}
		}
	}
	for _, key := range identifierKeys {
		delete(keys, key)
	}
	return keys
}()

// Normalize maps a raw adapter record onto the canonical schema.
func Normalize(raw core.RawResult, desc core.SourceDescriptor) core.NormalizedResult {
	return NormalizeAt(raw, desc, time.Now())
}

// NormalizeAt is Normalize with an explicit clock for year validation and
// id generation.
func NormalizeAt(raw core.RawResult, desc core.SourceDescriptor, now time.Time) core.NormalizedResult {
	name := desc.Name
	if name == "" {
		name = desc.ID
	}

	r := core.NormalizedResult{
		SourceID: desc.ID,
		Source:   name,
	}
	var defaulted []string
	pick := func(field string, keys []string, fallback string) string {
		if value, ok := firstValue(raw, keys); ok {
			return value
		}
		defaulted = append(defaulted, field)
		return fallback
	}

	if id, ok := firstValue(raw, idKeys); ok {
		r.ID = id
	} else {
		r.ID = GenerateID(desc.ID, now)
	}
	r.Title = pick("title", titleKeys, name+" research entry")
	r.Detail = pick("detail", detailKeys, "Research data from "+name)
	r.Status = pick("status", statusKeys, DefaultStatus)
	r.Phase = pick("phase", phaseKeys, DefaultPhase)
	r.Sponsor = pick("sponsor", sponsorKeys, DefaultSponsor)
	r.Enrollment = pick("enrollment", enrollmentKeys, DefaultEnrollment)
	r.Type = pick("type", typeKeys, desc.ResultType)

	if year, ok := validYear(raw, now); ok {
		r.Year = year
	} else {
		r.Year = now.Year()
		defaulted = append(defaulted, "year")
	}

	if link, ok := firstValue(raw, linkKeys); ok && strings.Contains(strings.ToLower(link), "http") {
		r.Link = link
		r.LinkValid = true
	} else {
		r.Link = desc.Homepage
		defaulted = append(defaulted, "link")
	}

	r.Defaulted = defaulted

	for key, value := range raw {
		if _, canonical := canonicalKeys[key]; canonical {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[key] = value
	}

	return r
}

// GenerateID builds <sourceID>_<unixnano>_<random8>.
func GenerateID(sourceID string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", sourceID, now.UnixNano(), suffix)
}

// EnsureUniqueIDs regenerates ids that collide with an earlier result.
func EnsureUniqueIDs(results []core.NormalizedResult, now time.Time) {
	seen := make(map[string]struct{}, len(results))
	for i := range results {
		id := results[i].ID
		for {
			if _, dup := seen[id]; !dup {
				break
			}
			id = GenerateID(results[i].SourceID, now)
		}
		results[i].ID = id
		seen[id] = struct{}{}
	}
}

// IsPlaceholder reports whether a raw value carries no information.
func IsPlaceholder(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "unknown") {
		return true
	}
	return strings.Trim(s, "#") == ""
}

func firstValue(raw core.RawResult, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || IsPlaceholder(v) {
			continue
		}
		if s := stringValue(v); s != "" && !IsPlaceholder(s) {
			return s, true
		}
	}
	return "", false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func validYear(raw core.RawResult, now time.Time) (int, bool) {
	for _, key := range yearKeys {
		v, ok := raw[key]
		if !ok || IsPlaceholder(v) {
			continue
		}
		year, ok := yearValue(v)
		if !ok {
			continue
		}
		if year < 1900 || year > now.Year()+10 {
			continue
		}
		return year, true
	}
	return 0, false
}

func yearValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), t == math.Trunc(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
