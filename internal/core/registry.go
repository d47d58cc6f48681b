package core

import (
	"fmt"
	"strings"
	"time"
)

// SourceDescriptor describes one registered data source.
type SourceDescriptor struct {
	ID         string        `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	Retries    int           `json:"retries" yaml:"retries"`
	Confidence Confidence    `json:"confidence" yaml:"confidence"`
	HighValue  bool          `json:"high_value" yaml:"high_value"`
	ResultType string        `json:"result_type" yaml:"result_type"`
	Homepage   string        `json:"homepage" yaml:"homepage"`
}

// SourceOverride adjusts a built-in descriptor. Zero values leave the
// descriptor untouched.
type SourceOverride struct {
	Disabled bool
	Timeout  time.Duration
	Retries  int
}

// BuiltInSources is the default adapter registry.
var BuiltInSources = []SourceDescriptor{
	{
		ID:         "clinicaltrials",
		Name:       "ClinicalTrials.gov",
		Timeout:    15 * time.Second,
		Retries:    3,
		Confidence: ConfidenceVeryHigh,
		HighValue:  true,
		ResultType: "Clinical Trial",
		Homepage:   "https://clinicaltrials.gov",
	},
	{
		ID:         "chembl",
		Name:       "ChEMBL",
		Timeout:    10 * time.Second,
		Retries:    2,
		Confidence: ConfidenceHigh,
		HighValue:  true,
		ResultType: "Compound",
		Homepage:   "https://www.ebi.ac.uk/chembl",
	},
	{
		ID:         "pubmed",
		Name:       "PubMed",
		Timeout:    10 * time.Second,
		Retries:    2,
		Confidence: ConfidenceVeryHigh,
		HighValue:  true,
		ResultType: "Publication",
		Homepage:   "https://pubmed.ncbi.nlm.nih.gov",
	},
	{
		ID:         "opentargets",
		Name:       "Open Targets",
		Timeout:    10 * time.Second,
		Retries:    2,
		Confidence: ConfidenceHigh,
		ResultType: "Target Association",
		Homepage:   "https://platform.opentargets.org",
	},
	{
		ID:         "evaluatepharma",
		Name:       "EvaluatePharma",
		Timeout:    5 * time.Second,
		Retries:    1,
		Confidence: ConfidenceHigh,
		HighValue:  true,
		ResultType: "Market Intelligence",
		Homepage:   "https://www.evaluate.com",
	},
	{
		ID:         "pharmaprojects",
		Name:       "Pharmaprojects",
		Timeout:    5 * time.Second,
		Retries:    1,
		Confidence: ConfidenceMedium,
		ResultType: "Pipeline Drug",
		Homepage:   "https://www.citeline.com",
	},
	{
		ID:         "globaldata",
		Name:       "GlobalData",
		Timeout:    5 * time.Second,
		Retries:    1,
		Confidence: ConfidenceMedium,
		ResultType: "Market Report",
		Homepage:   "https://www.globaldata.com",
	},
}

// AllSources is the database value that selects every registered source.
const AllSources = "all"

// Registry is an immutable, ordered table of source descriptors.
type Registry struct {
	order []string
	byID  map[string]SourceDescriptor
}

// NewRegistry builds a registry from descriptors. Ids are lowercased and
// must be unique; timeouts and retry budgets must be positive.
func NewRegistry(descriptors []SourceDescriptor) (*Registry, error) {
	reg := &Registry{byID: make(map[string]SourceDescriptor, len(descriptors))}
	for _, d := range descriptors {
		d.ID = normalizeSourceID(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("source id is required")
		}
		if _, exists := reg.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate source id: %s", d.ID)
		}
		if d.Timeout <= 0 {
			return nil, fmt.Errorf("source %s: timeout must be positive", d.ID)
		}
		if d.Retries < 1 {
			return nil, fmt.Errorf("source %s: retry budget must be at least 1", d.ID)
		}
		if strings.TrimSpace(d.Name) == "" {
			d.Name = d.ID
		}
		reg.order = append(reg.order, d.ID)
		reg.byID[d.ID] = d
	}
	return reg, nil
}

// DefaultRegistry returns the built-in registry with overrides applied.
func DefaultRegistry(overrides map[string]SourceOverride) (*Registry, error) {
	descriptors := make([]SourceDescriptor, 0, len(BuiltInSources))
	for _, d := range BuiltInSources {
		if o, ok := overrides[d.ID]; ok {
			if o.Disabled {
				continue
			}
			if o.Timeout > 0 {
				d.Timeout = o.Timeout
			}
			if o.Retries > 0 {
				d.Retries = o.Retries
			}
		}
		descriptors = append(descriptors, d)
	}
	return NewRegistry(descriptors)
}

// Lookup returns the descriptor for a source id.
func (r *Registry) Lookup(id string) (SourceDescriptor, bool) {
	if r == nil {
		return SourceDescriptor{}, false
	}
	d, ok := r.byID[normalizeSourceID(id)]
	return d, ok
}

// IDs returns all source ids in registration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []SourceDescriptor {
	if r == nil {
		return nil
	}
	out := make([]SourceDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Resolve turns a database selector into source ids. Empty or "all"
// selects every source.
func (r *Registry) Resolve(database string) ([]string, error) {
	key := normalizeSourceID(database)
	if key == "" || key == AllSources {
		return r.IDs(), nil
	}
	if _, ok := r.Lookup(key); !ok {
		return nil, fmt.Errorf("unknown database: %s", strings.TrimSpace(database))
	}
	return []string{key}, nil
}

func normalizeSourceID(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
