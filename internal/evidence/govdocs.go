// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// govInfoBase is the GovInfo search endpoint and govInfoDetails the public
// package page. Declared as vars so tests can substitute an httptest server.
var (
	govInfoBase    = "https://api.govinfo.gov/search"
	govInfoDetails = "https://www.govinfo.gov/app/details/"
)

// GovDocs searches federal government publications on GovInfo.
type GovDocs struct {
	base
	apiKey string
}

// NewGovDocs returns a government-document adapter. An empty apiKey turns
// every search into a no-op.
func NewGovDocs(apiKey string, d Deps) *GovDocs {
	return &GovDocs{base: newBase(ProviderGovInfo, "GovInfo", d), apiKey: apiKey}
}

type govInfoRequest struct {
	Query      string `json:"query"`
	PageSize   int    `json:"pageSize"`
	OffsetMark string `json:"offsetMark"`
}

type govInfoResponse struct {
	Results []struct {
		Title            string   `json:"title"`
		PackageID        string   `json:"packageId"`
		DateIssued       string   `json:"dateIssued"`
		ResultLink       string   `json:"resultLink"`
		CollectionCode   string   `json:"collectionCode"`
		GovernmentAuthor []string `json:"governmentAuthor"`
	} `json:"results"`
}

// Search returns government documents matching query.
func (a *GovDocs) Search(ctx context.Context, query string, opts Options) []types.Result {
	if a.apiKey == "" {
		return a.skip(query)
	}
	label := a.labelFor(opts)
	limit := maxResults(opts)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(govInfoRequest{Query: query, PageSize: limit, OffsetMark: "*"})
	if err != nil {
		return a.fail(label, query, err)
	}
	reqURL := govInfoBase + "?" + url.Values{"api_key": {a.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return a.fail(label, query, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var gr govInfoResponse
	if err := a.doJSON(ctx, req, &gr); err != nil {
		return a.fail(label, query, err)
	}

	items := make([]types.EvidenceItem, 0, len(gr.Results))
	for _, r := range gr.Results {
		link := govInfoDetails + r.PackageID
		if r.PackageID == "" {
			link = r.ResultLink
		}
		snippet := fmt.Sprintf("%s collection, issued %s", orDefault(r.CollectionCode, "GovInfo"), orDefault(r.DateIssued, "undated"))
		if len(r.GovernmentAuthor) > 0 {
			snippet += " by " + r.GovernmentAuthor[0]
		}
		items = append(items, types.EvidenceItem{
			Source:        label,
			Title:         orDefault(r.Title, "Untitled Government Document"),
			URL:           link,
			Snippet:       snippet,
			PublishedDate: parseDate(r.DateIssued),
		})
	}
	return a.finish(items, limit)
}
