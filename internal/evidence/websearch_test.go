// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

func testDeps(client *http.Client) Deps {
	return Deps{
		Client: client,
		Scorer: score.New(score.MarketIndicators(), 2025),
		HTTP: types.HTTPConfig{
			UserAgent:    "brief-analyst-test (test@example.com)",
			MaxRetries:   1,
			RateLimitRPS: 1000,
		},
	}
}

func withSerpAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	old := serpAPIBase
	serpAPIBase = ts.URL
	t.Cleanup(func() { serpAPIBase = old })
	return ts
}

// --- Request construction ---

func TestWebSearchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := withSerpAPI(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"organic_results":[]}`)
	})

	a := NewWebSearch("serp-key", testDeps(ts.Client()))
	got := a.Search(context.Background(), "site:statista.com market size pet food", Options{MaxResults: 5})
	assert.Empty(t, got)

	require.NotNil(t, captured)
	q := captured.URL.Query()
	assert.Equal(t, "google", q.Get("engine"))
	assert.Equal(t, "site:statista.com market size pet food", q.Get("q"))
	assert.Equal(t, "5", q.Get("num"))
	assert.Equal(t, "serp-key", q.Get("api_key"))
	assert.Contains(t, captured.Header.Get("User-Agent"), "brief-analyst-test")
}

// --- Response normalization ---

func TestWebSearchNormalizesResults(t *testing.T) {
	ts := withSerpAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"organic_results":[
			{"title":"Pet Food Market Size 2025","link":"https://statista.com/a","snippet":"The market size reached $120 billion, CAGR 5%","date":"Mar 3, 2025"},
			{"link":"https://example.com/b","snippet":"a report"}
		]}`)
	})

	a := NewWebSearch("serp-key", testDeps(ts.Client()))
	got := a.Search(context.Background(), "pet food", Options{Label: "Statista"})
	require.Len(t, got, 2)

	first := got[0].Item
	require.NotNil(t, first)
	assert.Equal(t, "Statista", first.Source)
	assert.Equal(t, ProviderSerpAPI, first.Provider)
	assert.Equal(t, "Pet Food Market Size 2025", first.Title)
	assert.Equal(t, "https://statista.com/a", first.URL)
	require.NotNil(t, first.PublishedDate)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), *first.PublishedDate)
	assert.Greater(t, first.RelevanceScore, 10)
	assert.Equal(t, types.TierHigh, first.QualityTier)

	second := got[1].Item
	require.NotNil(t, second)
	assert.Equal(t, "Unnamed Report", second.Title)
	assert.Nil(t, second.PublishedDate)
}

func TestWebSearchTruncatesToMaxResults(t *testing.T) {
	ts := withSerpAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"organic_results":[{"title":"a"},{"title":"b"},{"title":"c"}]}`)
	})

	a := NewWebSearch("serp-key", testDeps(ts.Client()))
	got := a.Search(context.Background(), "q", Options{MaxResults: 2})
	assert.Len(t, got, 2)
}

// --- Credential and failure handling ---

func TestWebSearchMissingKeyIsNoop(t *testing.T) {
	var calls int32
	ts := withSerpAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	a := NewWebSearch("", testDeps(ts.Client()))
	got := a.Search(context.Background(), "anything", Options{})

	assert.Empty(t, got)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestWebSearchFailuresBecomeSingleErrorItem(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantMsg: "HTTP 500",
		},
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			wantMsg: "HTTP 401",
		},
		{
			name:    "malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{"organic_results": [`) },
			wantMsg: "parsing response",
		},
		{
			name:    "provider error field",
			handler: func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{"error":"Invalid API key."}`) },
			wantMsg: "Invalid API key.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := withSerpAPI(t, tt.handler)

			a := NewWebSearch("serp-key", testDeps(ts.Client()))
			got := a.Search(context.Background(), "pet food", Options{Label: "IBISWorld"})

			require.Len(t, got, 1)
			require.True(t, got[0].IsError())
			assert.Equal(t, "IBISWorld", got[0].Err.Source)
			assert.Contains(t, got[0].Err.Message, tt.wantMsg)
			assert.Contains(t, got[0].Err.Message, "pet food")
		})
	}
}

func TestWebSearchTimeoutBecomesErrorItem(t *testing.T) {
	ts := withSerpAPI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	d := testDeps(ts.Client())
	d.HTTP.Timeout = 50 * time.Millisecond
	a := NewWebSearch("serp-key", d)

	got := a.Search(context.Background(), "slow", Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
}

func TestWebSearchTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()

	old := serpAPIBase
	serpAPIBase = ts.URL
	defer func() { serpAPIBase = old }()

	a := NewWebSearch("serp-key", testDeps(http.DefaultClient))
	got := a.Search(context.Background(), "offline", Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
	assert.Equal(t, "Web Search", got[0].Err.Source)
}
