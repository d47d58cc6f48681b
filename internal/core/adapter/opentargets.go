package adapter

import (
	"context"
	"strings"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

const openTargetsDefaultBase = "https://api.platform.opentargets.org"

const openTargetsSearchQuery = `query search($q: String!, $size: Int!) {
  search(queryString: $q, entityNames: ["target", "drug", "disease"], page: {index: 0, size: $size}) {
    total
    hits { id name entity description }
  }
}`

// OpenTargets queries the Open Targets Platform GraphQL search.
type OpenTargets struct {
	http    httpJSON
	BaseURL string
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type openTargetsResponse struct {
	Data struct {
		Search struct {
			Total int `json:"total"`
			Hits  []struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Entity      string `json:"entity"`
				Description string `json:"description"`
			} `json:"hits"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search implements Adapter.
func (o *OpenTargets) Search(ctx context.Context, query string, limit int) (*core.SearchPage, error) {
	body := graphQLRequest{
		Query:     openTargetsSearchQuery,
		Variables: map[string]any{"q": query, "size": clampLimit(limit, 50)},
	}

	var payload openTargetsResponse
	if err := o.http.postJSON(ctx, "Open Targets", o.baseURL()+"/api/v4/graphql", body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		return nil, &GraphQLError{Source: "Open Targets", Message: payload.Errors[0].Message}
	}

	page := &core.SearchPage{Total: payload.Data.Search.Total}
	for _, hit := range payload.Data.Search.Hits {
		raw := core.RawResult{
			"id":        hit.ID,
			"target_id": hit.ID,
			"title":     hit.Name,
			"detail":    hit.Description,
			"type":      humanizeEnum(hit.Entity),
		}
		if hit.ID != "" && hit.Entity != "" {
			raw["link"] = "https://platform.opentargets.org/" + strings.ToLower(hit.Entity) + "/" + hit.ID
		}
		page.Results = append(page.Results, raw)
	}
	return page, nil
}

func (o *OpenTargets) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return openTargetsDefaultBase
}

// GraphQLError reports an error array in a GraphQL response.
type GraphQLError struct {
	Source  string
	Message string
}

func (e *GraphQLError) Error() string {
	return e.Source + " GraphQL error: " + e.Message
}
