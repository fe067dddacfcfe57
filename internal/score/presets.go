// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import "github.com/pdiddy/brief-analyst/pkg/types"

// MarketIndicators weights quantitative market-sizing language highest.
func MarketIndicators() Indicators {
	return Indicators{
		High:   []string{"market size", "billion", "million", "cagr", "revenue", "market share"},
		Medium: []string{"growth rate", "forecast", "projected", "trend", "outlook", "adoption"},
		Low:    []string{"report", "analysis", "industry", "research", "survey"},
	}
}

// LegalIndicators weights holdings, penalties, and statutory language highest.
func LegalIndicators() Indicators {
	return Indicators{
		High:   []string{"liability", "violation", "penalty", "injunction", "statute", "regulation", "held that", "10-k"},
		Medium: []string{"compliance", "enforcement", "appeal", "precedent", "court", "ruling", "10-q", "8-k"},
		Low:    []string{"law", "legal", "case", "rule", "policy", "filing"},
	}
}

// DefaultCredibility weights established consultancies, research houses,
// and official record keepers above unknown sources.
func DefaultCredibility() map[string]float64 {
	return map[string]float64{
		"courtlistener": 1.2,
		"govinfo":       1.2,
		"sec edgar":     1.2,
		"mckinsey":      1.5,
		"bcg":           1.5,
		"bain":          1.5,
		"statista":      1.3,
		"ibisworld":     1.3,
		"gartner":       1.3,
		"forrester":     1.3,
	}
}

// ForKind returns the scorer preset used for a report kind.
func ForKind(kind types.ReportKind, referenceYear, threshold int) *Scorer {
	ind := MarketIndicators()
	if kind == types.KindLegal {
		ind = LegalIndicators()
	}
	s := New(ind, referenceYear)
	if threshold > 0 {
		s.Threshold = threshold
	}
	return s
}
