package adapter

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

const pubmedDefaultBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMed queries NCBI E-utilities: esearch for ids, esummary for records.
type PubMed struct {
	http    httpJSON
	BaseURL string
}

type pubmedSearch struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummary struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	UID             string `json:"uid"`
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	Source          string `json:"source"`
	FullJournalName string `json:"fulljournalname"`
	PubType         []string `json:"pubtype"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Search implements Adapter.
func (p *PubMed) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(clampLimit(limit, 100))},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	var search pubmedSearch
	if err := p.http.getJSON(ctx, "PubMed", p.baseURL()+"/esearch.fcgi?"+params.Encode(), &search); err != nil {
		return nil, err
	}

	total, _ := strconv.Atoi(search.Result.Count)
	page := &core.SearchPage{Total: total}
	if len(search.Result.IDList) == 0 {
		return page, nil
	}

	params = url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(search.Result.IDList, ",")},
		"retmode": {"json"},
	}
	var summary pubmedSummary
	if err := p.http.getJSON(ctx, "PubMed", p.baseURL()+"/esummary.fcgi?"+params.Encode(), &summary); err != nil {
		return nil, err
	}

	// esummary keys records by uid; keep esearch relevance order.
	for _, id := range search.Result.IDList {
		blob, ok := summary.Result[id]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(blob, &doc); err != nil {
			continue
		}
		raw := core.RawResult{
			"id":      doc.UID,
			"pmid":    doc.UID,
			"title":   strings.TrimSpace(doc.Title),
			"detail":  pubmedDetail(doc),
			"status":  "Published",
			"year":    leadingYear(doc.PubDate),
			"link":    "https://pubmed.ncbi.nlm.nih.gov/" + doc.UID + "/",
			"journal": doc.FullJournalName,
		}
		if len(doc.PubType) > 0 {
			raw["type"] = doc.PubType[0]
		}
		page.Results = append(page.Results, raw)
	}
	return page, nil
}

func (p *PubMed) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return pubmedDefaultBase
}

func pubmedDetail(doc pubmedDoc) string {
	names := make([]string, 0, 3)
	for i, a := range doc.Authors {
		if i == 3 {
			break
		}
		names = append(names, a.Name)
	}
	authors := strings.Join(names, ", ")
	if len(doc.Authors) > 3 {
		authors += " et al"
	}
	journal := doc.FullJournalName
	if journal == "" {
		journal = doc.Source
	}
	switch {
	case authors != "" && journal != "":
		return authors + ". " + journal + "."
	case authors != "":
		return authors + "."
	default:
		return journal
	}
}
