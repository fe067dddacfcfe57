// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests can
// substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search"

// WebSearch queries Google through SerpAPI.
type WebSearch struct {
	base
	apiKey string
}

// NewWebSearch returns a web-search adapter. An empty apiKey turns every
// search into a no-op.
func NewWebSearch(apiKey string, d Deps) *WebSearch {
	return &WebSearch{base: newBase(ProviderSerpAPI, "Web Search", d), apiKey: apiKey}
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic_results"`
}

// Search returns organic results for query.
func (a *WebSearch) Search(ctx context.Context, query string, opts Options) []types.Result {
	if a.apiKey == "" {
		return a.skip(query)
	}
	label := a.labelFor(opts)
	limit := maxResults(opts)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	params := url.Values{
		"engine":  {"google"},
		"q":       {query},
		"num":     {strconv.Itoa(limit)},
		"api_key": {a.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return a.fail(label, query, err)
	}

	var sr serpResponse
	if err := a.doJSON(ctx, req, &sr); err != nil {
		return a.fail(label, query, err)
	}
	if sr.Error != "" && len(sr.OrganicResults) == 0 {
		return a.fail(label, query, errors.New(sr.Error))
	}

	items := make([]types.EvidenceItem, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		items = append(items, types.EvidenceItem{
			Source:        label,
			Title:         orDefault(r.Title, "Unnamed Report"),
			URL:           r.Link,
			Snippet:       r.Snippet,
			PublishedDate: parseDate(r.Date),
		})
	}
	return a.finish(items, limit)
}
