package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

const chemblDefaultBase = "https://www.ebi.ac.uk"

// ChEMBL queries the ChEMBL molecule search API.
type ChEMBL struct {
	http    httpJSON
	BaseURL string
}

type chemblResponse struct {
	Molecules []chemblMolecule `json:"molecules"`
	PageMeta  struct {
		TotalCount int `json:"total_count"`
	} `json:"page_meta"`
}

type chemblMolecule struct {
	ChEMBLID      string `json:"molecule_chembl_id"`
	PrefName      string `json:"pref_name"`
	MaxPhase      any    `json:"max_phase"`
	MoleculeType  string `json:"molecule_type"`
	FirstApproval any    `json:"first_approval"`
	Structure     *struct {
		CanonicalSmiles string `json:"canonical_smiles"`
	} `json:"molecule_structures"`
	Properties *struct {
		FullMWT string `json:"full_mwt"`
	} `json:"molecule_properties"`
}

// Search implements Adapter.
func (c *ChEMBL) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(clampLimit(limit, 100))},
	}
	reqURL := c.baseURL() + "/chembl/api/data/molecule/search.json?" + params.Encode()

	var payload chemblResponse
	if err := c.http.getJSON(ctx, "ChEMBL", reqURL, &payload); err != nil {
		return nil, err
	}

	page := &core.SearchPage{Total: payload.PageMeta.TotalCount}
	for _, m := range payload.Molecules {
		phase, hasPhase := numberValue(m.MaxPhase)
		raw := core.RawResult{
			"id":        m.ChEMBLID,
			"chembl_id": m.ChEMBLID,
			"title":     m.PrefName,
			"type":      m.MoleculeType,
			"detail":    chemblDetail(m, phase, hasPhase),
		}
		if hasPhase && phase > 0 {
			raw["phase"] = fmt.Sprintf("Phase %d", int(phase))
			if phase >= 4 {
				raw["status"] = "Approved"
			} else {
				raw["status"] = "Investigational"
			}
		}
		if year, ok := numberValue(m.FirstApproval); ok {
			raw["year"] = int(year)
		}
		if m.ChEMBLID != "" {
			raw["link"] = chemblDefaultBase + "/chembl/compound_report_card/" + m.ChEMBLID + "/"
		}
		if m.Structure != nil && m.Structure.CanonicalSmiles != "" {
			raw["smiles"] = m.Structure.CanonicalSmiles
		}
		page.Results = append(page.Results, raw)
	}
	if page.Total == 0 {
		page.Total = len(page.Results)
	}
	return page, nil
}

func (c *ChEMBL) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return chemblDefaultBase
}

func chemblDetail(m chemblMolecule, phase float64, hasPhase bool) string {
	parts := []string{}
	if m.MoleculeType != "" {
		parts = append(parts, m.MoleculeType)
	}
	if hasPhase {
		parts = append(parts, fmt.Sprintf("max development phase %g", phase))
	}
	if m.Properties != nil && m.Properties.FullMWT != "" {
		parts = append(parts, "molecular weight "+m.Properties.FullMWT)
	}
	return strings.Join(parts, ", ")
}

// numberValue reads a JSON number that may arrive as a number or a string.
func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
