package output

import (
	"fmt"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatSearch renders ranked results with linked titles.
func (f *MarkdownFormatter) FormatSearch(resp *aggregate.Response) (string, error) {
	if resp == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Results for \"%s\"\n\n", escapeMarkdownCell(resp.Query)))
	sb.WriteString("| # | Title | Source | Status | Phase | Year | Quality |\n")
	sb.WriteString("|---|-------|--------|--------|-------|------|---------|\n")
	for i, r := range resp.Results {
		title := escapeMarkdownCell(truncate(r.Title, maxTitleWidth))
		if r.LinkValid {
			title = fmt.Sprintf("[%s](%s)", title, r.Link)
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			title,
			escapeMarkdownCell(r.Source),
			escapeMarkdownCell(r.Status),
			escapeMarkdownCell(r.Phase),
			yearLabel(r),
			r.Quality,
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", summaryLine(resp)))

	if len(resp.FailedDatabases) > 0 {
		sb.WriteString("\n**Failed sources**:\n\n")
		for _, s := range resp.FailedDatabases {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", s.Name, s.Error))
		}
	}
	return sb.String(), nil
}

// FormatSources renders the source registry as a markdown table.
func (f *MarkdownFormatter) FormatSources(sources []core.SourceDescriptor) (string, error) {
	var sb strings.Builder
	sb.WriteString("| ID | Name | Type | Timeout | Retries | Confidence |\n")
	sb.WriteString("|----|------|------|---------|---------|------------|\n")
	for _, d := range sources {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
			d.ID,
			escapeMarkdownCell(d.Name),
			escapeMarkdownCell(d.ResultType),
			d.Timeout,
			d.Retries,
			d.Confidence,
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
