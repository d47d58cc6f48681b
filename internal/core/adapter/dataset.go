package adapter

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

//go:embed datasets/*.yaml
var datasetFS embed.FS

// Dataset serves results from an embedded curated dataset. It stands in for
// commercial market-intelligence feeds that have no public API.
type Dataset struct {
	Source  string           `yaml:"source"`
	Name    string           `yaml:"name"`
	Records []map[string]any `yaml:"records"`
}

// LoadDataset returns the embedded dataset for a source id.
func LoadDataset(id string) (*Dataset, error) {
	data, err := datasetFS.ReadFile("datasets/" + id + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", id, err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes a dataset document.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	if strings.TrimSpace(ds.Source) == "" {
		return nil, fmt.Errorf("parsing dataset: source is required")
	}
	return &ds, nil
}

// Search implements Adapter. A record matches when any query term appears in
// one of its string values.
func (d *Dataset) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := core.QueryTerms(query)
	if len(terms) == 0 {
		return &core.SearchPage{}, nil
	}

	limit = clampLimit(limit, 100)
	page := &core.SearchPage{}
	for _, rec := range d.Records {
		if !recordMatches(rec, terms) {
			continue
		}
		page.Total++
		if len(page.Results) < limit {
			page.Results = append(page.Results, copyRecord(rec))
		}
	}
	return page, nil
}

func recordMatches(rec map[string]any, terms []string) bool {
	var sb strings.Builder
	for _, v := range rec {
		appendText(&sb, v)
	}
	haystack := strings.ToLower(sb.String())
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func appendText(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case string:
		sb.WriteString(t)
		sb.WriteByte(' ')
	case []any:
		for _, item := range t {
			appendText(sb, item)
		}
	}
}

func copyRecord(rec map[string]any) core.RawResult {
	out := make(core.RawResult, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
