// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/brief-analyst/internal/evidence"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

func TestParseQueryList(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "comma separated",
			text: "drone regulation, FAA part 107 , drone privacy law",
			max:  5,
			want: []string{"drone regulation", "FAA part 107", "drone privacy law"},
		},
		{
			name: "numbered lines",
			text: "1. \"drone regulation\"\n2) FAA waiver\n\n- drone privacy, state law",
			max:  5,
			want: []string{"drone regulation", "FAA waiver", "drone privacy, state law"},
		},
		{
			name: "drops heading before numbered list",
			text: "Here are 3 search queries:\n1. meal kit market size\n2. meal kit competitors\n3. meal kit regulation",
			max:  3,
			want: []string{"meal kit market size", "meal kit competitors", "meal kit regulation"},
		},
		{
			name: "drops commentary around bullets",
			text: "Sure! Try these\n- GDPR fines 2024\n- data broker enforcement\nLet me know if you need more.",
			max:  5,
			want: []string{"GDPR fines 2024", "data broker enforcement"},
		},
		{
			name: "unmarked lines kept without a list",
			text: "Queries:\nmeal kit pricing\nmeal kit churn",
			max:  5,
			want: []string{"meal kit pricing", "meal kit churn"},
		},
		{
			name: "dedupes case-insensitively",
			text: "Alpha, alpha, ALPHA, beta",
			max:  5,
			want: []string{"Alpha", "beta"},
		},
		{
			name: "caps at max",
			text: "a, b, c, d, e, f, g",
			max:  3,
			want: []string{"a", "b", "c"},
		},
		{
			name: "empty",
			text: "  \n ",
			max:  3,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQueryList(tt.text, tt.max))
		})
	}
}

func TestProposeCapsAtMaximum(t *testing.T) {
	gen := &cannedGenerator{text: "a, b, c, d, e, f, g, h"}
	q := &QueryGenerator{Generator: gen}
	got := q.Propose(context.Background(), "brief", "market_sizing", 20)
	assert.Len(t, got, MaxGeneratedQueries)
}

func TestProposeNilGenerator(t *testing.T) {
	var q *QueryGenerator
	assert.Nil(t, q.Propose(context.Background(), "brief", "t", 3))
}

func TestShortenBrief(t *testing.T) {
	short := "a small idea"
	assert.Equal(t, short, shortenBrief(short))

	long := strings.Repeat("word ", 100)
	got := shortenBrief(long)
	assert.LessOrEqual(t, len([]rune(got)), queryBriefLimit)
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasSuffix(got, "word"))
}

func TestPresetsValidate(t *testing.T) {
	adapters := adapterMap{}
	for _, name := range []string{evidence.ProviderSerpAPI, evidence.ProviderCourtListener, evidence.ProviderGovInfo, evidence.ProviderEDGAR} {
		adapters[name] = &fakeAdapter{name: name}
	}

	require.NoError(t, MarketingPlan().Validate(adapters))
	require.NoError(t, LegalPlan("").Validate(adapters))
	require.NoError(t, LegalPlan("ACME").Validate(adapters))

	var names []string
	for _, topic := range LegalPlan("ACME").Topics {
		names = append(names, topic.Name)
	}
	assert.Contains(t, names, TopicCompanyFilings)
	for _, topic := range LegalPlan("").Topics {
		assert.NotEqual(t, TopicCompanyFilings, topic.Name)
	}
	assert.Len(t, MarketingPlan().Topics[0].Queries, 6)
}

func TestBundleFileRoundTrip(t *testing.T) {
	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := BundleFile{
		Brief:  "meal kit delivery",
		Kind:   types.KindMarketing,
		Plan:   "marketing",
		Bundle: types.EvidenceBundle{
			Topics: map[string][]types.EvidenceItem{
				"market_sizing": {{Source: "Statista", Provider: "serpapi", Title: "Meal kits", URL: "https://s/1",
					Snippet: "market size $20 billion", PublishedDate: &published, RelevanceScore: 9, QualityTier: types.TierMedium}},
				"macro_trends": {},
			},
			Failures:   map[string][]types.ErrorItem{"macro_trends": {{Source: "Web Search", Message: "boom"}}},
			CapturedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, WriteBundleFile(path, in))

	out, err := ReadBundleFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.Brief, out.Brief)
	assert.Equal(t, in.Kind, out.Kind)
	assert.True(t, in.Bundle.CapturedAt.Equal(out.Bundle.CapturedAt))
	require.Len(t, out.Bundle.Topics["market_sizing"], 1)
	got := out.Bundle.Topics["market_sizing"][0]
	assert.Equal(t, "Meal kits", got.Title)
	assert.Equal(t, 9, got.RelevanceScore)
	require.NotNil(t, got.PublishedDate)
	assert.True(t, published.Equal(*got.PublishedDate))
	assert.Equal(t, 1, out.Bundle.FailureCount())
}

func TestReadBundleFileMissing(t *testing.T) {
	_, err := ReadBundleFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(types.EvidenceBundle{
		Topics: map[string][]types.EvidenceItem{
			"case_law": {{Source: "CourtListener", Title: strings.Repeat("Long title ", 10), RelevanceScore: 11, QualityTier: types.TierHigh}},
		},
		Failures: map[string][]types.ErrorItem{"case_law": {{Source: "CourtListener", Message: "x"}}},
	}, &buf)

	out := buf.String()
	assert.Contains(t, out, "case_law (1)")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "1 failed lookups")
	assert.Contains(t, out, "1 sources across 1 topics")

	buf.Reset()
	FormatTable(types.EvidenceBundle{}, &buf)
	assert.Equal(t, "No evidence found.\n", buf.String())
}
