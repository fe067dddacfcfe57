// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"github.com/pdiddy/brief-analyst/internal/research"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

const dependenciesBlock = `{{range .Dependencies}}
--- {{.Title}} ---
{{.Text}}
{{end}}`

const legalSystem = "You are a legal and compliance expert advising founders. Cite the evidence by source name where it supports a point and say plainly when evidence is missing."

// LegalStages builds a risk assessment, then a compliance roadmap from it,
// then an executive summary of both.
func LegalStages() []Stage {
	legalTopics := []string{research.TopicCaseLaw, research.TopicRegulatory, research.TopicLegalCommentary, research.TopicCompanyFilings}
	return []Stage{
		{
			Name:            "risk_assessment",
			Title:           "Legal Risk Assessment",
			System:          legalSystem,
			Topics:          legalTopics,
			Temperature:     0.4,
			MaxOutputTokens: 2500,
			Guideline:       "about 800 words",
			Template: `Based on the following business idea, give a structured legal risk assessment.

Brief: "{{.Brief}}"

Evidence gathered from case law, federal documents, commentary, and filings:
{{.Evidence}}

Return:
1. Applicable regulations or laws
2. A risk matrix: each legal concern with likelihood (Low/Medium/High), impact (Low/Medium/High), and the evidence behind it
3. Jurisdictions of concern
4. Relevant cases or rulings, with links from the evidence

Keep the assessment to {{.Guideline}}.
`,
		},
		{
			Name:            "compliance_roadmap",
			Title:           "Compliance Roadmap",
			System:          legalSystem,
			Topics:          []string{research.TopicRegulatory},
			DependsOn:       []string{"risk_assessment"},
			Temperature:     0.3,
			MaxOutputTokens: 2000,
			Guideline:       "about 600 words",
			Template: `Business idea: "{{.Brief}}"

The legal risk assessment for this idea:
` + dependenciesBlock + `
Regulatory evidence:
{{.Evidence}}

Write a phased compliance roadmap that addresses the risks above:
- Phase 1 (before launch): licenses, registrations, policies
- Phase 2 (first 12 months): monitoring, audits, training
- Phase 3 (scale): multi-jurisdiction expansion requirements
For each step give the owner, an indicative cost level, and the risk it mitigates.

Keep the roadmap to {{.Guideline}}.
`,
		},
		{
			Name:            "executive_summary",
			Title:           "Executive Summary",
			System:          legalSystem,
			DependsOn:       []string{"risk_assessment", "compliance_roadmap"},
			Temperature:     0.2,
			MaxOutputTokens: 1200,
			Guideline:       "about 300 words",
			Template: `Business idea: "{{.Brief}}"

Analysis so far:
` + dependenciesBlock + `
Write an executive summary for a founder: the overall legal risk level, the three most important concerns, the recommended next steps, and whether to consult counsel before launch. Keep it to {{.Guideline}}.
`,
		},
	}
}

const strategySystem = "You are a senior strategy consultant. Ground every figure in the evidence when possible and label estimates as assumptions."

// MarketingStages builds market, competitive, financial, and go-to-market
// analyses and closes with an executive summary.
func MarketingStages() []Stage {
	return []Stage{
		{
			Name:            "market_analysis",
			Title:           "Market Opportunity Assessment",
			System:          strategySystem,
			Topics:          []string{research.TopicMarketSizing, research.TopicMacroTrends, research.TopicCustomerAnalysis},
			Temperature:     0.2,
			MaxOutputTokens: 3000,
			Guideline:       "about 900 words",
			Template: `Create a market opportunity assessment for: "{{.Brief}}"

Market research:
{{.Evidence}}

Cover:
### Market Sizing
- TAM, SAM, and SOM with specific numbers and the assumptions behind them
- Growth rate projections and market maturity
### Macro Trends (STEEP)
- Social, technological, economic, environmental, and political factors and their implications
### Customer Segmentation
- Primary segments, personas, and the value proposition for each

Keep it to {{.Guideline}}.
`,
		},
		{
			Name:            "competitive_analysis",
			Title:           "Competitive Analysis",
			System:          strategySystem,
			Topics:          []string{research.TopicCompetitive, research.TopicMarketSizing},
			DependsOn:       []string{"market_analysis"},
			Temperature:     0.2,
			MaxOutputTokens: 3000,
			Guideline:       "about 900 words",
			Template: `Business brief: "{{.Brief}}"
` + dependenciesBlock + `
Competitive intelligence:
{{.Evidence}}

Conduct:
1. A Porter's Five Forces analysis (new entrants, suppliers, buyers, substitutes, rivalry), rating each force LOW, MODERATE, or HIGH with its strategic implication
2. A BCG growth-share view of the likely product portfolio (stars, cash cows, question marks, dogs) with resource-allocation advice
3. Key players, their positioning, and the gaps this business could exploit

Keep it to {{.Guideline}}.
`,
		},
		{
			Name:            "financial_projections",
			Title:           "Financial Projections",
			System:          strategySystem,
			Topics:          []string{research.TopicMarketSizing},
			DependsOn:       []string{"market_analysis"},
			Temperature:     0.2,
			MaxOutputTokens: 3000,
			Guideline:       "about 900 words",
			Template: `Create 5-year financial projections for: "{{.Brief}}"
` + dependenciesBlock + `
Market sizing research:
{{.Evidence}}

Cover:
### Revenue Model
- Primary revenue streams, pricing strategy, growth assumptions, seasonality
### Market Penetration
- Share of SOM captured per year for years 1-5 and the assumptions behind it
### Unit Economics
- CAC, CLV, gross margin, and contribution margin by segment
### Operating Leverage
- Fixed versus variable costs, scalability, break-even point, and sensitivity to the key assumptions
### Investment Requirements
- Initial capital, working capital, technology and infrastructure, and hiring
### Financial Ratios and Benchmarks
- Industry benchmark comparisons, profitability metrics, and return on investment

Present the 5-year projection as a table of revenue, gross margin, operating costs, and EBITDA per year. Keep it to {{.Guideline}}.
`,
		},
		{
			Name:            "go_to_market",
			Title:           "Go-to-Market Strategy",
			System:          strategySystem,
			Topics:          []string{research.TopicCustomerAnalysis},
			DependsOn:       []string{"market_analysis", "competitive_analysis"},
			Temperature:     0.2,
			MaxOutputTokens: 3000,
			Guideline:       "about 900 words",
			Template: `Develop a go-to-market strategy for: "{{.Brief}}"
` + dependenciesBlock + `
Customer research:
{{.Evidence}}

Cover market entry (beachhead and expansion sequence), customer acquisition channels, pricing model, distribution, brand positioning, operational requirements, and the leading and lagging KPIs to track. Include timelines, indicative budgets, and success metrics. Keep it to {{.Guideline}}.
`,
		},
		{
			Name:            "executive_summary",
			Title:           "Executive Summary",
			System:          strategySystem,
			DependsOn:       []string{"market_analysis", "competitive_analysis", "financial_projections", "go_to_market"},
			Temperature:     0.1,
			MaxOutputTokens: 1500,
			Guideline:       "about 400 words",
			Template: `Business brief: "{{.Brief}}"
` + dependenciesBlock + `
Write the executive summary of this strategic analysis: the strategic recommendation, key success factors, critical risks, the investment thesis, and a phased plan (launch 0-12 months, growth 12-36 months, scale 36+ months). State confidence levels for the key assumptions. Keep it to {{.Guideline}}.
`,
		},
	}
}

// ConsultationStages is a single consultation grounded in the knowledge
// cache rather than fresh research.
func ConsultationStages() []Stage {
	return []Stage{{
		Name:            "consultation",
		Title:           "Marketing Consultation",
		System:          "You are a world-class marketing consultant with deep expertise from leading marketing textbooks. Provide comprehensive, actionable advice.",
		Temperature:     0.4,
		MaxOutputTokens: 3000,
		Guideline:       "comprehensive but concise",
		Template: `You have access to the following marketing knowledge and frameworks.

{{if .Knowledge}}{{.Knowledge}}{{else}}(no reference books have been digested yet){{end}}

BUSINESS IDEA TO ANALYZE:
{{.Brief}}
{{if .Questions}}
Specific questions to address:
{{range .Questions}}- {{.}}
{{end}}{{end}}
Provide a marketing consultation that includes:
1. Market analysis and opportunity assessment
2. Positioning and branding strategy
3. Marketing strategy and tactics
4. Implementation roadmap with KPIs and milestones
5. Risk assessment and mitigation

Reference relevant frameworks and concepts from the knowledge above where applicable. Give specific, actionable advice, {{.Guideline}}.
`,
	}}
}

// StagesFor returns the preset stages for kind.
func StagesFor(kind types.ReportKind) []Stage {
	switch kind {
	case types.KindLegal:
		return LegalStages()
	case types.KindConsultation:
		return ConsultationStages()
	default:
		return MarketingStages()
	}
}
