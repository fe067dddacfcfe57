// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// courtListenerBase is the CourtListener v4 search endpoint and
// courtListenerSite resolves the relative case URLs it returns. Declared as
// vars so tests can substitute an httptest server.
var (
	courtListenerBase = "https://www.courtlistener.com/api/rest/v4/search/"
	courtListenerSite = "https://www.courtlistener.com"
)

// CaseLaw searches court opinions on CourtListener. The API is public; a
// token only raises rate limits.
type CaseLaw struct {
	base
	token string
}

// NewCaseLaw returns a case-law adapter.
func NewCaseLaw(token string, d Deps) *CaseLaw {
	return &CaseLaw{base: newBase(ProviderCourtListener, "CourtListener", d), token: token}
}

type courtListenerResponse struct {
	Results []struct {
		CaseName    string `json:"caseName"`
		AbsoluteURL string `json:"absolute_url"`
		DateFiled   string `json:"dateFiled"`
		Court       string `json:"court"`
		Opinions    []struct {
			Snippet string `json:"snippet"`
		} `json:"opinions"`
	} `json:"results"`
}

// Search returns opinions matching query. Params "court" filters by court
// identifier and "order" overrides the sort (default relevance).
func (a *CaseLaw) Search(ctx context.Context, query string, opts Options) []types.Result {
	label := a.labelFor(opts)
	limit := maxResults(opts)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	order := opts.Params["order"]
	if order == "" {
		order = "score desc"
	}
	params := url.Values{
		"q":        {query},
		"type":     {"o"},
		"order_by": {order},
	}
	if court := opts.Params["court"]; court != "" {
		params.Set("court", court)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, courtListenerBase+"?"+params.Encode(), nil)
	if err != nil {
		return a.fail(label, query, err)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Token "+a.token)
	}

	var cr courtListenerResponse
	if err := a.doJSON(ctx, req, &cr); err != nil {
		return a.fail(label, query, err)
	}

	items := make([]types.EvidenceItem, 0, len(cr.Results))
	for _, r := range cr.Results {
		snippet := ""
		if len(r.Opinions) > 0 {
			snippet = stripHighlight(r.Opinions[0].Snippet)
		}
		if snippet == "" && r.Court != "" {
			snippet = r.Court + " case"
			if r.DateFiled != "" {
				snippet += " filed " + r.DateFiled
			}
		}
		items = append(items, types.EvidenceItem{
			Source:        label,
			Title:         orDefault(r.CaseName, "Unnamed Case"),
			URL:           resolveCaseURL(r.AbsoluteURL),
			Snippet:       snippet,
			PublishedDate: parseDate(r.DateFiled),
		})
	}
	return a.finish(items, limit)
}

func resolveCaseURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimSuffix(courtListenerSite, "/") + "/" + strings.TrimPrefix(u, "/")
}

// stripHighlight removes the <mark> tags CourtListener puts around hits.
func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	s = strings.ReplaceAll(s, "</mark>", "")
	return strings.TrimSpace(s)
}
