// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import "github.com/pdiddy/brief-analyst/internal/evidence"

// Topic names shared by plans and synthesis stages.
const (
	TopicCaseLaw          = "case_law"
	TopicRegulatory       = "regulatory"
	TopicLegalCommentary  = "legal_commentary"
	TopicCompanyFilings   = "company_filings"
	TopicMarketSizing     = "market_sizing"
	TopicCompetitive      = "competitive_intelligence"
	TopicMacroTrends      = "macro_trends"
	TopicCustomerAnalysis = "customer_analysis"
)

// LegalPlan researches case law, federal regulation, and legal commentary.
// A non-empty ticker adds the company's recent SEC filings.
func LegalPlan(ticker string) TopicPlan {
	p := TopicPlan{
		Name:   "legal",
		Ticker: ticker,
		Topics: []TopicSpec{
			{
				Name:     TopicCaseLaw,
				Adapters: []string{evidence.ProviderCourtListener},
				Queries:  []QuerySpec{{Template: "{{.Brief}}"}},
				Generate: 2,
			},
			{
				Name:     TopicRegulatory,
				Adapters: []string{evidence.ProviderGovInfo},
				Queries:  []QuerySpec{{Template: "{{.Brief}} regulation"}},
				Generate: 2,
			},
			{
				Name:     TopicLegalCommentary,
				Adapters: []string{evidence.ProviderSerpAPI},
				Queries: []QuerySpec{
					{Template: "{{.Brief}} legal requirements compliance", Label: "Legal Commentary"},
					{Template: "site:law.cornell.edu {{.Brief}}", Label: "Cornell LII"},
					{Template: "{{.Brief}} lawsuit liability risk {{.Year}}", Label: "Litigation News"},
				},
			},
		},
	}
	if ticker != "" {
		p.Topics = append(p.Topics, TopicSpec{
			Name:     TopicCompanyFilings,
			Adapters: []string{evidence.ProviderEDGAR},
			Queries: []QuerySpec{{
				Template: "{{.Ticker}}",
				Params:   map[string]string{"forms": "10-K,10-Q,8-K,S-1"},
			}},
		})
	}
	return p
}

// MarketingPlan researches market size, competitors, macro trends (STEEP),
// and customers through web search restricted to research publishers.
func MarketingPlan() TopicPlan {
	web := []string{evidence.ProviderSerpAPI}
	return TopicPlan{
		Name: "marketing",
		Topics: []TopicSpec{
			{
				Name:     TopicMarketSizing,
				Adapters: web,
				Queries: []QuerySpec{
					{Template: "site:statista.com market size {{.Brief}} {{.Year}} {{.NextYear}}", Label: "Statista"},
					{Template: "site:ibisworld.com industry report {{.Brief}}", Label: "IBISWorld"},
					{Template: "site:mckinsey.com {{.Brief}} market trends analysis", Label: "McKinsey"},
					{Template: "site:bcg.com {{.Brief}} industry analysis", Label: "BCG"},
					{Template: "site:bain.com {{.Brief}} market research", Label: "Bain"},
					{Template: "{{.Brief}} market size forecast analyst report Gartner Forrester", Label: "Analyst Reports"},
				},
			},
			{
				Name:     TopicCompetitive,
				Adapters: web,
				Queries: []QuerySpec{
					{Template: "{{.Brief}} competitors funding investment Series A B C", Label: "Investment Analysis"},
					{Template: "{{.Brief}} industry partnerships acquisitions strategic alliances", Label: "Strategic Intelligence"},
					{Template: "{{.Brief}} technology innovation patents R&D", Label: "Technology Intelligence"},
					{Template: "{{.Brief}} market share leaders competitive position", Label: "Market Share Analysis"},
				},
				Generate: 2,
			},
			{
				Name:     TopicMacroTrends,
				Adapters: web,
				Queries: []QuerySpec{
					{Template: "{{.Brief}} economic trends inflation interest rates consumer spending", Label: "Economic Analysis"},
					{Template: "{{.Brief}} technology trends AI automation digital transformation", Label: "Technology Trends"},
					{Template: "{{.Brief}} consumer behavior demographics generational trends", Label: "Social Trends"},
					{Template: "{{.Brief}} regulatory changes government policy industry regulations", Label: "Regulatory Trends"},
					{Template: "{{.Brief}} sustainability ESG environmental regulations", Label: "Sustainability Trends"},
				},
			},
			{
				Name:     TopicCustomerAnalysis,
				Adapters: web,
				Queries: []QuerySpec{
					{Template: "{{.Brief}} target customers demographics psychographics buyer personas", Label: "Customer Demographics"},
					{Template: "{{.Brief}} customer journey buying process decision factors", Label: "Customer Journey"},
					{Template: "{{.Brief}} consumer research survey customer satisfaction", Label: "Consumer Research"},
				},
			},
		},
	}
}
