package adapter

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

const clinicalTrialsDefaultBase = "https://clinicaltrials.gov"

// ClinicalTrials queries the ClinicalTrials.gov v2 studies API.
type ClinicalTrials struct {
	http    httpJSON
	BaseURL string
}

type ctResponse struct {
	Studies    []ctStudy `json:"studies"`
	TotalCount int       `json:"totalCount"`
}

type ctStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus   string `json:"overallStatus"`
			StartDateStruct struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
		} `json:"statusModule"`
		DescriptionModule struct {
			BriefSummary string `json:"briefSummary"`
		} `json:"descriptionModule"`
		DesignModule struct {
			Phases         []string `json:"phases"`
			EnrollmentInfo struct {
				Count int `json:"count"`
			} `json:"enrollmentInfo"`
		} `json:"designModule"`
		SponsorCollaboratorsModule struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
	} `json:"protocolSection"`
}

// Search implements Adapter.
func (c *ClinicalTrials) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	params := url.Values{
		"query.term": {query},
		"pageSize":   {strconv.Itoa(clampLimit(limit, 100))},
		"countTotal": {"true"},
		"format":     {"json"},
	}
	reqURL := c.baseURL() + "/api/v2/studies?" + params.Encode()

	var payload ctResponse
	if err := c.http.getJSON(ctx, "ClinicalTrials.gov", reqURL, &payload); err != nil {
		return nil, err
	}

	page := &core.SearchPage{Total: payload.TotalCount}
	for _, s := range payload.Studies {
		p := s.ProtocolSection
		nct := p.IdentificationModule.NCTID
		title := p.IdentificationModule.BriefTitle
		if title == "" {
			title = p.IdentificationModule.OfficialTitle
		}

		raw := core.RawResult{
			"id":         nct,
			"nct_id":     nct,
			"title":      title,
			"detail":     p.DescriptionModule.BriefSummary,
			"status":     humanizeEnum(p.StatusModule.OverallStatus),
			"phase":      ctPhase(p.DesignModule.Phases),
			"sponsor":    p.SponsorCollaboratorsModule.LeadSponsor.Name,
			"year":       leadingYear(p.StatusModule.StartDateStruct.Date),
			"conditions": p.ConditionsModule.Conditions,
		}
		if nct != "" {
			raw["link"] = clinicalTrialsDefaultBase + "/study/" + nct
		}
		if n := p.DesignModule.EnrollmentInfo.Count; n > 0 {
			raw["enrollment"] = strconv.Itoa(n)
		}
		page.Results = append(page.Results, raw)
	}
	if page.Total == 0 {
		page.Total = len(page.Results)
	}
	return page, nil
}

func (c *ClinicalTrials) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return clinicalTrialsDefaultBase
}

// ctPhase turns ["PHASE2","PHASE3"] into "Phase 2/Phase 3".
func ctPhase(phases []string) string {
	out := make([]string, 0, len(phases))
	for _, p := range phases {
		switch {
		case p == "NA":
			continue
		case strings.HasPrefix(p, "EARLY_PHASE"):
			out = append(out, "Early Phase "+strings.TrimPrefix(p, "EARLY_PHASE"))
		case strings.HasPrefix(p, "PHASE"):
			out = append(out, "Phase "+strings.TrimPrefix(p, "PHASE"))
		default:
			out = append(out, humanizeEnum(p))
		}
	}
	return strings.Join(out, "/")
}

// humanizeEnum turns "ACTIVE_NOT_RECRUITING" into "Active not recruiting".
func humanizeEnum(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(strings.ReplaceAll(value, "_", " "))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// leadingYear returns the first four characters of a date string, or "".
func leadingYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
