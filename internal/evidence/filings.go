// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// tickerFetchTimeout bounds the shared ticker-table download when no
// per-call timeout is configured.
const tickerFetchTimeout = 30 * time.Second

// SEC EDGAR endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	edgarTickersURL      = "https://www.sec.gov/files/company_tickers.json"
	edgarSubmissionsBase = "https://data.sec.gov/submissions/"
	edgarArchivesBase    = "https://www.sec.gov/Archives/edgar/data/"
)

// Filings looks up a company's recent SEC filings in two steps: the ticker
// is resolved to a CIK, then the CIK's submission history is fetched.
// EDGAR needs no key but rejects requests without a contact User-Agent.
type Filings struct {
	base

	mu      sync.Mutex
	tickers map[string]company
	fetch   singleflight.Group
}

// NewFilings returns a company-filing adapter.
func NewFilings(d Deps) *Filings {
	return &Filings{base: newBase(ProviderEDGAR, "SEC EDGAR", d)}
}

type company struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type edgarSubmissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber       []string `json:"accessionNumber"`
			FilingDate            []string `json:"filingDate"`
			Form                  []string `json:"form"`
			PrimaryDocument       []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// Search returns recent filings for the ticker in Params["ticker"], or in
// query when no ticker parameter is set. Params "forms" restricts results to
// a comma-separated list of form types.
func (a *Filings) Search(ctx context.Context, query string, opts Options) []types.Result {
	if a.http.UserAgent == "" {
		return a.skip(query)
	}
	ticker := strings.ToUpper(strings.TrimSpace(opts.Params["ticker"]))
	if ticker == "" {
		ticker = strings.ToUpper(strings.TrimSpace(query))
	}
	if ticker == "" {
		return nil
	}
	label := a.labelFor(opts)
	limit := maxResults(opts)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	co, err := a.resolve(ctx, ticker)
	if err != nil {
		return a.fail(label, ticker, err)
	}

	reqURL := fmt.Sprintf("%sCIK%010d.json", edgarSubmissionsBase, co.CIK)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return a.fail(label, ticker, err)
	}
	var sub edgarSubmissions
	if err := a.doJSON(ctx, req, &sub); err != nil {
		return a.fail(label, ticker, err)
	}

	forms := formFilter(opts.Params["forms"])
	name := orDefault(sub.Name, co.Title)
	recent := sub.Filings.Recent

	var items []types.EvidenceItem
	for i := range recent.AccessionNumber {
		form := at(recent.Form, i)
		if len(forms) > 0 && !forms[strings.ToUpper(form)] {
			continue
		}
		date := at(recent.FilingDate, i)
		snippet := fmt.Sprintf("%s %s filed %s", name, form, date)
		if desc := at(recent.PrimaryDocDescription, i); desc != "" {
			snippet += ": " + desc
		}
		items = append(items, types.EvidenceItem{
			Source:        label,
			Title:         fmt.Sprintf("%s filing (%s)", orDefault(form, "Unknown form"), orDefault(date, "undated")),
			URL:           filingURL(co.CIK, recent.AccessionNumber[i], at(recent.PrimaryDocument, i)),
			Snippet:       snippet,
			PublishedDate: parseDate(date),
		})
		if len(items) == limit {
			break
		}
	}
	return a.finish(items, limit)
}

// resolve maps a ticker to its company record. The ticker table is fetched
// once per adapter and kept for later calls; a failed fetch is not cached.
// Concurrent callers share one download, each waiting no longer than its
// own context allows.
func (a *Filings) resolve(ctx context.Context, ticker string) (company, error) {
	a.mu.Lock()
	tickers := a.tickers
	a.mu.Unlock()

	if tickers == nil {
		ch := a.fetch.DoChan("tickers", func() (any, error) {
			return a.loadTickers(context.WithoutCancel(ctx))
		})
		select {
		case <-ctx.Done():
			return company{}, fmt.Errorf("loading ticker table: %w", ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				return company{}, res.Err
			}
			tickers = res.Val.(map[string]company)
		}
	}

	co, ok := tickers[ticker]
	if !ok {
		return company{}, fmt.Errorf("unknown ticker %s", ticker)
	}
	return co, nil
}

// loadTickers downloads the ticker table and caches it on success.
func (a *Filings) loadTickers(ctx context.Context) (map[string]company, error) {
	timeout := a.http.Timeout
	if timeout <= 0 {
		timeout = tickerFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, edgarTickersURL, nil)
	if err != nil {
		return nil, err
	}
	var table map[string]company
	if err := a.doJSON(ctx, req, &table); err != nil {
		return nil, fmt.Errorf("loading ticker table: %w", err)
	}
	tickers := make(map[string]company, len(table))
	for _, c := range table {
		tickers[strings.ToUpper(c.Ticker)] = c
	}

	a.mu.Lock()
	a.tickers = tickers
	a.mu.Unlock()
	return tickers, nil
}

func filingURL(cik int, accession, doc string) string {
	u := fmt.Sprintf("%s%d/%s/", edgarArchivesBase, cik, strings.ReplaceAll(accession, "-", ""))
	return u + doc
}

func formFilter(s string) map[string]bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	forms := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			forms[f] = true
		}
	}
	return forms
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
