// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

const tickerTable = `{"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."},"1":{"cik_str":789019,"ticker":"MSFT","title":"MICROSOFT CORP"}}`

const appleSubmissions = `{"name":"Apple Inc.","filings":{"recent":{
	"accessionNumber":["0000320193-24-000123","0000320193-24-000081","0000320193-24-000069"],
	"filingDate":["2024-11-01","2024-08-02","2024-05-03"],
	"form":["10-K","8-K","10-Q"],
	"primaryDocument":["aapl-20240928.htm","aapl-8k.htm","aapl-20240629.htm"],
	"primaryDocDescription":["10-K annual report","","10-Q"]}}}`

// edgarServer serves the ticker table and submissions, counting ticker
// table fetches.
func edgarServer(t *testing.T, tickerFetches *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tickerFetches, 1)
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, tickerTable)
	})
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, appleSubmissions)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	oldTickers, oldSubs, oldArchives := edgarTickersURL, edgarSubmissionsBase, edgarArchivesBase
	edgarTickersURL = ts.URL + "/files/company_tickers.json"
	edgarSubmissionsBase = ts.URL + "/submissions/"
	edgarArchivesBase = "https://sec.example/Archives/edgar/data/"
	t.Cleanup(func() { edgarTickersURL, edgarSubmissionsBase, edgarArchivesBase = oldTickers, oldSubs, oldArchives })
	return ts
}

func TestFilingsTwoStepLookup(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	a := NewFilings(testDeps(ts.Client()))
	got := a.Search(context.Background(), "aapl", Options{})
	require.Len(t, got, 3)

	first := got[0].Item
	require.NotNil(t, first)
	assert.Equal(t, "10-K filing (2024-11-01)", first.Title)
	assert.Equal(t, "https://sec.example/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm", first.URL)
	assert.Equal(t, "Apple Inc. 10-K filed 2024-11-01: 10-K annual report", first.Snippet)
	assert.Equal(t, "SEC EDGAR", first.Source)
	assert.Equal(t, ProviderEDGAR, first.Provider)

	assert.Equal(t, "Apple Inc. 8-K filed 2024-08-02", got[1].Item.Snippet)
}

func TestFilingsCachesTickerTable(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	a := NewFilings(testDeps(ts.Client()))
	a.Search(context.Background(), "AAPL", Options{})
	a.Search(context.Background(), "", Options{Params: map[string]string{"ticker": "AAPL"}})

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

// gatedEdgarServer holds ticker-table responses until release is closed.
func gatedEdgarServer(t *testing.T, tickerFetches *int32, release <-chan struct{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(tickerFetches, 1)
		<-release
		fmt.Fprint(w, tickerTable)
	})
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, appleSubmissions)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	oldTickers, oldSubs := edgarTickersURL, edgarSubmissionsBase
	edgarTickersURL = ts.URL + "/files/company_tickers.json"
	edgarSubmissionsBase = ts.URL + "/submissions/"
	t.Cleanup(func() { edgarTickersURL, edgarSubmissionsBase = oldTickers, oldSubs })
	return ts
}

func TestFilingsConcurrentCallsShareTickerFetch(t *testing.T) {
	var fetches int32
	release := make(chan struct{})
	ts := gatedEdgarServer(t, &fetches, release)
	a := NewFilings(testDeps(ts.Client()))

	const callers = 5
	results := make([][]types.Result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Search(context.Background(), "AAPL", Options{})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	for _, got := range results {
		require.Len(t, got, 3)
		assert.False(t, got[0].IsError())
	}
}

func TestFilingsWaiterKeepsItsOwnDeadline(t *testing.T) {
	var fetches int32
	release := make(chan struct{})
	ts := gatedEdgarServer(t, &fetches, release)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	d := testDeps(ts.Client())
	d.HTTP.Timeout = 50 * time.Millisecond
	a := NewFilings(d)

	start := time.Now()
	got := a.Search(context.Background(), "AAPL", Options{})
	require.Len(t, got, 1)
	require.True(t, got[0].IsError())
	assert.Contains(t, got[0].Err.Message, "deadline exceeded")
	assert.Less(t, time.Since(start), 2*time.Second, "a caller must not wait past its own timeout")
}

func TestFilingsFormFilter(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	a := NewFilings(testDeps(ts.Client()))
	got := a.Search(context.Background(), "AAPL", Options{Params: map[string]string{"forms": "10-k, 10-q"}})
	require.Len(t, got, 2)
	assert.Equal(t, "10-K filing (2024-11-01)", got[0].Item.Title)
	assert.Equal(t, "10-Q filing (2024-05-03)", got[1].Item.Title)
}

func TestFilingsUnknownTickerIsErrorItem(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	a := NewFilings(testDeps(ts.Client()))
	got := a.Search(context.Background(), "ZZZZ", Options{})
	require.Len(t, got, 1)
	require.True(t, got[0].IsError())
	assert.Contains(t, got[0].Err.Message, "unknown ticker ZZZZ")
}

func TestFilingsEmptyTickerReturnsNothing(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	a := NewFilings(testDeps(ts.Client()))
	assert.Empty(t, a.Search(context.Background(), "  ", Options{}))
	assert.Zero(t, atomic.LoadInt32(&fetches))
}

func TestFilingsWithoutUserAgentIsNoop(t *testing.T) {
	var fetches int32
	ts := edgarServer(t, &fetches)

	d := testDeps(ts.Client())
	d.HTTP.UserAgent = ""
	a := NewFilings(d)
	assert.Empty(t, a.Search(context.Background(), "AAPL", Options{}))
	assert.Zero(t, atomic.LoadInt32(&fetches))
}
