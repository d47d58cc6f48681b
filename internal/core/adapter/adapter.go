// Package adapter holds the per-source search adapters. Each adapter wraps
// one upstream API or dataset and returns loosely shaped raw results; all
// shape differences are absorbed later by the normalizer.
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

// Adapter is the interface every source implements.
type Adapter interface {
	// Search runs the query against the source, returning at most limit
	// results and the source's own total hit count when known.
	Search(ctx context.Context, query string, limit int) (*core.SearchPage, error)
}

// Func adapts a plain function to the Adapter interface.
type Func func(ctx context.Context, query string, limit int) (*core.SearchPage, error)

// Search calls f.
func (f Func) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	return f(ctx, query, limit)
}

// Options configures the shipped adapters.
type Options struct {
	Client    *http.Client
	UserAgent string
	// BaseURLs overrides the upstream base URL per source id.
	BaseURLs map[string]string
}

// DefaultUserAgent identifies outbound requests.
const DefaultUserAgent = "pharmaintel/0.1 (+https://github.com/prathikkv/pharma-intelligence)"

// Build returns adapters for every id in the registry that has a shipped
// implementation.
func Build(reg *core.Registry, opts Options) (map[string]Adapter, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	base := func(id string) string {
		return strings.TrimRight(strings.TrimSpace(opts.BaseURLs[id]), "/")
	}
	h := httpJSON{Client: client, UserAgent: ua}

	adapters := make(map[string]Adapter, reg.Len())
	for _, id := range reg.IDs() {
		switch id {
		case "clinicaltrials":
			adapters[id] = &ClinicalTrials{http: h, BaseURL: base(id)}
		case "chembl":
			adapters[id] = &ChEMBL{http: h, BaseURL: base(id)}
		case "pubmed":
			adapters[id] = &PubMed{http: h, BaseURL: base(id)}
		case "opentargets":
			adapters[id] = &OpenTargets{http: h, BaseURL: base(id)}
		case "evaluatepharma", "pharmaprojects", "globaldata":
			ds, err := LoadDataset(id)
			if err != nil {
				return nil, err
			}
			adapters[id] = ds
		default:
			return nil, fmt.Errorf("no adapter available for source %q", id)
		}
	}
	return adapters, nil
}
