package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("md")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func sampleResponse() *aggregate.Response {
	return &aggregate.Response{
		Success:  true,
		Query:    "pembrolizumab",
		Database: "all",
		Status:   206,
		Results: []core.ScoredResult{
			{
				NormalizedResult: core.NormalizedResult{
					ID:        "NCT01",
					SourceID:  "clinicaltrials",
					Source:    "ClinicalTrials.gov",
					Title:     "Pembrolizumab | nivolumab in melanoma",
					Status:    "Recruiting",
					Phase:     "Phase 3",
					Year:      2024,
					Link:      "https://clinicaltrials.gov/study/NCT01",
					LinkValid: true,
				},
				Quality:   core.QualityHigh,
				Relevance: 8,
			},
			{
				NormalizedResult: core.NormalizedResult{
					ID:        "chembl_1",
					SourceID:  "chembl",
					Source:    "ChEMBL",
					Title:     "PEMBROLIZUMAB",
					Status:    "Available",
					Phase:     "N/A",
					Year:      2026,
					Link:      "https://www.ebi.ac.uk/chembl",
					Defaulted: []string{"year", "link"},
				},
				Quality:   core.QualityMedium,
				Relevance: 5,
			},
		},
		TotalResults:      3,
		UniqueResults:     2,
		FilteredResults:   2,
		DuplicatesRemoved: 1,
		SuccessfulDatabases: []aggregate.SourceSuccess{
			{Database: "clinicaltrials", Name: "ClinicalTrials.gov", Count: 1, Total: 1, ResponseTimeMS: 120, Attempts: 1},
			{Database: "chembl", Name: "ChEMBL", Count: 2, Total: 2, ResponseTimeMS: 340, Attempts: 2},
		},
		FailedDatabases: []aggregate.SourceFailure{
			{Database: "pubmed", Name: "PubMed", Error: "upstream returned 503", ResponseTimeMS: 900, Attempts: 2},
		},
		Performance: aggregate.Performance{SearchTimeMS: 910, SuccessRate: 67},
		SystemHealth: aggregate.SystemHealth{
			OverallStatus:    core.HealthDegraded,
			DatabasesOnline:  2,
			DatabasesOffline: 1,
			SystemLoad:       core.LoadLow,
		},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTableFormatterSearch(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatSearch(sampleResponse())
	require.NoError(t, err)

	assert.Contains(t, rendered, "ClinicalTrials.gov")
	assert.Contains(t, rendered, "Recruiting")
	assert.Contains(t, rendered, "upstream returned 503")
	assert.Contains(t, rendered, "2 shown, 2 unique of 3 total, 1 duplicates removed, 2/3 sources ok in 910ms")
	assert.Contains(t, rendered, "degraded")
}

func TestJSONFormatterSearchMatchesAPIShape(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatSearch(sampleResponse())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	assert.Equal(t, "pembrolizumab", decoded["query"])
	assert.EqualValues(t, 206, decoded["status"])
	assert.Len(t, decoded["results"], 2)
	assert.Contains(t, decoded, "system_health")
}

func TestMarkdownFormatterSearch(t *testing.T) {
	rendered, err := NewFormatter(FormatMarkdown).FormatSearch(sampleResponse())
	require.NoError(t, err)

	assert.Contains(t, rendered, "## Results for \"pembrolizumab\"")
	assert.Contains(t, rendered, "[Pembrolizumab \\| nivolumab in melanoma](https://clinicaltrials.gov/study/NCT01)")
	assert.Contains(t, rendered, "| 2 | PEMBROLIZUMAB | ChEMBL | Available | N/A | - | medium |")
	assert.Contains(t, rendered, "- PubMed: upstream returned 503")
}

func TestFormatSearchNilResponse(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatMarkdown} {
		rendered, err := NewFormatter(format).FormatSearch(nil)
		require.NoError(t, err)
		assert.Empty(t, rendered)
	}
}

func TestFormatSources(t *testing.T) {
	sources := core.BuiltInSources[:2]

	rendered, err := NewFormatter(FormatTable).FormatSources(sources)
	require.NoError(t, err)
	assert.Contains(t, rendered, "clinicaltrials")
	assert.Contains(t, rendered, "2 sources")

	rendered, err = NewFormatter(FormatJSON).FormatSources(sources)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 15000, decoded[0]["timeout_ms"])
	assert.Equal(t, "very-high", decoded[0]["confidence"])

	rendered, err = NewFormatter(FormatMarkdown).FormatSources(sources)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(rendered, "\n"))
	assert.Contains(t, rendered, "| chembl | ChEMBL | Compound | 10s | 2 | high |")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestFormatExtension(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.Equal(t, "txt", FormatTable.Extension())
}
