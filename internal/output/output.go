// Package output renders combined-search responses and the source registry
// for the CLI.
package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Extension is the file extension used when writing f to a file.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Formatter renders search responses and source listings.
type Formatter interface {
	FormatSearch(resp *aggregate.Response) (string, error)
	FormatSources(sources []core.SourceDescriptor) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// maxTitleWidth truncates long titles in tabular output.
const maxTitleWidth = 60

func truncate(value string, width int) string {
	if utf8.RuneCountInString(value) <= width {
		return value
	}
	runes := []rune(value)
	return string(runes[:width-1]) + "…"
}

func yearLabel(r core.ScoredResult) string {
	if r.IsDefaulted("year") {
		return "-"
	}
	return fmt.Sprintf("%d", r.Year)
}

func summaryLine(resp *aggregate.Response) string {
	return fmt.Sprintf("%d shown, %d unique of %d total, %d duplicates removed, %d/%d sources ok in %dms",
		resp.FilteredResults,
		resp.UniqueResults,
		resp.TotalResults,
		resp.DuplicatesRemoved,
		resp.SystemHealth.DatabasesOnline,
		resp.SystemHealth.DatabasesOnline+resp.SystemHealth.DatabasesOffline,
		resp.Performance.SearchTimeMS,
	)
}
