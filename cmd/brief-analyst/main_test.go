// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/brief-analyst/internal/analyst"
	"github.com/pdiddy/brief-analyst/internal/evidence"
	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/metrics"
	"github.com/pdiddy/brief-analyst/internal/research"
	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/internal/secrets"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

type echoGenerator struct{}

func (echoGenerator) Complete(_ context.Context, _ string, opts generate.Options) (string, error) {
	if opts.MaxOutputTokens == 200 {
		return "meal kit market", nil
	}
	return "Section body.", nil
}

type oneResultAdapter struct{ name string }

func (a oneResultAdapter) Name() string { return a.name }

func (a oneResultAdapter) Search(_ context.Context, query string, _ evidence.Options) []types.Result {
	return []types.Result{{Item: &types.EvidenceItem{
		Source: "Statista", Provider: a.name, Title: query, URL: "https://example.com/" + strings.ReplaceAll(query, " ", "-"),
		RelevanceScore: 9, QualityTier: types.TierHigh,
	}}}
}

type adapterMap map[string]evidence.Adapter

func (m adapterMap) Get(name string) (evidence.Adapter, bool) {
	a, ok := m[name]
	return a, ok
}

func testAnalyst(reg prometheus.Registerer) *analyst.Analyst {
	adapters := adapterMap{}
	for _, n := range []string{evidence.ProviderSerpAPI, evidence.ProviderCourtListener, evidence.ProviderGovInfo, evidence.ProviderEDGAR} {
		adapters[n] = oneResultAdapter{name: n}
	}
	return &analyst.Analyst{
		Config:    types.DefaultAnalystConfig(),
		Generator: echoGenerator{},
		Adapters: func(*http.Client, *score.Scorer) research.AdapterSource {
			return adapters
		},
		Metrics: metrics.New(reg),
		Now:     func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestServeAnalyze(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(newServer(testAnalyst(reg), reg, &logger))
	defer srv.Close()

	body := `{"kind": "marketing", "brief": "A meal kit delivery service"}`
	resp, err := http.Post(srv.URL+"/v1/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got analyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.KindMarketing, got.Report.Kind)
	assert.True(t, strings.HasPrefix(got.Markdown, "# Marketing Analysis\n"))
	assert.Contains(t, got.Markdown, "## Sources & Methodology")
	assert.NotEmpty(t, got.Bundle.Topics)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(metricsResp.Body)
	assert.Contains(t, buf.String(), `brief_analyst_runs_total{kind="marketing",outcome="ok"} 1`)
}

func TestServeErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(newServer(testAnalyst(reg), reg, &logger))
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown kind", http.MethodPost, "/v1/analyze", `{"kind": "poetry", "brief": "x"}`, http.StatusBadRequest},
		{"empty brief", http.MethodPost, "/v1/analyze", `{"kind": "legal", "brief": ""}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/v1/analyze", `{"kind":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/analyze", `{"kind": "legal", "brief": "x", "extra": 1}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/v1/analyze", "", http.StatusMethodNotAllowed},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("BRIEF_ANALYST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("BRIEF_ANALYST_RESEARCH_TOPIC_CAP", "5")
	t.Setenv("BRIEF_ANALYST_RESEARCH_CALL_TIMEOUT", "12s")
	t.Setenv("BRIEF_ANALYST_PROVIDERS_SERPAPI_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "from-conventional-env")
	t.Setenv("GOVINFO_API_KEY", "")

	loadedSecrets = secrets.Secrets{
		secrets.SerpAPIKey: "from-secrets",
		secrets.GovInfoKey: "gov-secret",
	}
	t.Cleanup(func() { loadedSecrets = nil })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Research.TopicCap)
	assert.Equal(t, 12*time.Second, cfg.Research.CallTimeout)
	assert.Equal(t, 8, cfg.Research.MaxConcurrency)
	assert.Equal(t, "from-env", cfg.Providers.SerpAPIKey, "environment beats secrets files")
	assert.Equal(t, "gov-secret", cfg.Providers.GovInfoAPIKey)
	assert.Equal(t, "from-conventional-env", cfg.AI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
}

func newBriefCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetIn(strings.NewReader(""))
	addBriefFlags(cmd)
	cmd.Flags().String("bundle", "", "")
	cmd.Flags().StringSlice("question", nil, "")
	return cmd
}

func TestRequestFromFlagsWithBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.yaml")
	require.NoError(t, research.WriteBundleFile(path, research.BundleFile{
		Brief:  "Launching a fintech lending app",
		Kind:   types.KindLegal,
		Plan:   "legal",
		Ticker: "ACME",
		Bundle: types.EvidenceBundle{Topics: map[string][]types.EvidenceItem{"case_law": nil}},
	}))

	cmd := newBriefCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--bundle", path, "--question", "Which licenses?"}))

	req, err := requestFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.KindLegal, req.Kind, "bundle kind applies when --kind is unset")
	assert.Equal(t, "Launching a fintech lending app", req.Brief)
	assert.Equal(t, "ACME", req.Ticker)
	assert.Equal(t, []string{"Which licenses?"}, req.Questions)
	require.NotNil(t, req.Bundle)
	assert.Contains(t, req.Bundle.Topics, "case_law")
	assert.Equal(t, "legal", req.Plan)
}

func TestSavedBundleRecordsPlan(t *testing.T) {
	req := analyst.Request{Kind: types.KindMarketing, Brief: "A meal kit delivery service"}
	res := analyst.Result{
		Plan:   research.MarketingPlan().Name,
		Bundle: types.EvidenceBundle{Topics: map[string][]types.EvidenceItem{research.TopicMarketSizing: nil}},
	}

	path := filepath.Join(t.TempDir(), "evidence.yaml")
	require.NoError(t, research.WriteBundleFile(path, bundleFileFor(req, res)))

	got, err := research.ReadBundleFile(path)
	require.NoError(t, err)
	assert.Equal(t, research.MarketingPlan().Name, got.Plan)
	assert.Equal(t, types.KindMarketing, got.Kind)
	assert.Equal(t, "A meal kit delivery service", got.Brief)
	assert.Contains(t, got.Bundle.Topics, research.TopicMarketSizing)
}

func TestRequestFromFlags(t *testing.T) {
	cmd := newBriefCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--kind", "Legal", "--brief", "A drone delivery startup", "--ticker", "acme"}))

	req, err := requestFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.KindLegal, req.Kind)
	assert.Equal(t, "A drone delivery startup", req.Brief)
	assert.Equal(t, "ACME", req.Ticker)
	assert.Empty(t, req.Questions)
	assert.Nil(t, req.Bundle)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "brief-analyst dev\n", out.String())
}
