package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// fingerprintWords is how many title words take part in a fingerprint.
const fingerprintWords = 5

// Fingerprint returns the dedupe key of a result: the first five title words
// longer than two characters, sorted, plus source id and year.
//
// The key is deliberately narrow. Results from different sources never
// collapse, and titles that differ only after the fifth significant word or
// that carry different years are kept as distinct entries.
func Fingerprint(r core.NormalizedResult) string {
	return titleKey(r.Title) + "|" + r.SourceID + "|" + strconv.Itoa(r.Year)
}

// Dedupe keeps the first result for every fingerprint, preserving order.
func Dedupe(results []core.NormalizedResult) ([]core.NormalizedResult, int) {
	seen := make(map[string]struct{}, len(results))
	kept := make([]core.NormalizedResult, 0, len(results))
	for _, r := range results {
		key := Fingerprint(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept, len(results) - len(kept)
}

func titleKey(title string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, title)

	words := make([]string, 0, fingerprintWords)
	for _, w := range strings.Fields(stripped) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		words = append(words, w)
		if len(words) == fingerprintWords {
			break
		}
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}
