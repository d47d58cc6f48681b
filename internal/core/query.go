package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the default upper bound on a trimmed query.
const MaxQueryLength = 1000

var (
	// ErrEmptyQuery is returned for a missing or whitespace-only query.
	ErrEmptyQuery = errors.New("query is required")

	// ErrQueryTooLong is returned when a trimmed query exceeds the limit.
	ErrQueryTooLong = errors.New("query is too long")
)

// ValidateQuery trims the query and enforces 1..maxLen characters.
// A non-positive maxLen uses MaxQueryLength.
func ValidateQuery(raw string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = MaxQueryLength
	}

	query := strings.TrimSpace(raw)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(query); n > maxLen {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrQueryTooLong, n, maxLen)
	}
	return query, nil
}

// QueryTerms splits a query into lowercase search terms.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]{}`)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
