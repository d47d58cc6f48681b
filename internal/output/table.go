package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

// FormatSearch renders ranked results followed by per-source status.
func (f *TableFormatter) FormatSearch(resp *aggregate.Response) (string, error) {
	if resp == nil {
		return "", nil
	}

	results := table.NewWriter()
	results.SetStyle(table.StyleRounded)
	results.SetTitle(fmt.Sprintf("%q in %s", resp.Query, resp.Database))
	results.AppendHeader(table.Row{"#", "Title", "Source", "Status", "Phase", "Year", "Quality", "Relevance"})
	for i, r := range resp.Results {
		results.AppendRow(table.Row{
			i + 1,
			truncate(r.Title, maxTitleWidth),
			r.Source,
			r.Status,
			r.Phase,
			yearLabel(r),
			string(r.Quality),
			r.Relevance,
		})
	}
	results.AppendFooter(table.Row{"", summaryLine(resp), "", "", "", "", "", ""})

	sources := table.NewWriter()
	sources.SetStyle(table.StyleRounded)
	sources.AppendHeader(table.Row{"Database", "Status", "Results", "Time (ms)", "Attempts", "Error"})
	for _, s := range resp.SuccessfulDatabases {
		sources.AppendRow(table.Row{s.Name, "ok", s.Count, s.ResponseTimeMS, s.Attempts, ""})
	}
	for _, s := range resp.FailedDatabases {
		sources.AppendRow(table.Row{s.Name, "failed", 0, s.ResponseTimeMS, s.Attempts, s.Error})
	}
	sources.AppendFooter(table.Row{
		"",
		string(resp.SystemHealth.OverallStatus),
		"",
		"",
		"",
		fmt.Sprintf("load %s", resp.SystemHealth.SystemLoad),
	})

	var sb strings.Builder
	sb.WriteString(results.Render())
	sb.WriteString("\n")
	sb.WriteString(sources.Render())
	return sb.String(), nil
}

// FormatSources renders the source registry.
func (f *TableFormatter) FormatSources(sources []core.SourceDescriptor) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Timeout", "Retries", "Confidence", "High value"})
	for _, d := range sources {
		t.AppendRow(table.Row{
			d.ID,
			d.Name,
			d.ResultType,
			d.Timeout.String(),
			d.Retries,
			string(d.Confidence),
			d.HighValue,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d sources", len(sources)), "", "", "", "", ""})
	return t.Render(), nil
}
