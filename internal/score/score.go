// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score ranks evidence by counting domain indicators in a result's
// title and snippet. Scoring is a pure function of its inputs: the scorer
// holds only configuration and never consults the clock or any shared state,
// so identical inputs always produce identical scores.
package score

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Points awarded per indicator found in each tier.
const (
	highPoints   = 3
	mediumPoints = 2
	lowPoints    = 1
)

// Tier boundaries for QualityTier.
const (
	highTierMin   = 10
	mediumTierMin = 5
)

// DefaultThreshold is the inclusion threshold: items must score above it.
const DefaultThreshold = 3

// Indicators holds the three tiers of lexical indicators. Entries are
// matched case-insensitively as substrings.
type Indicators struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// Scorer computes relevance scores. The zero value scores with no
// indicators; use New or a preset for useful results.
type Scorer struct {
	Indicators Indicators

	// Credibility maps a lower-cased provider or source label to a weight ≥ 1.0.
	Credibility map[string]float64

	// ReferenceYear anchors the recency bonus; zero disables it.
	ReferenceYear int

	// RecencyBonus is added when a year token ≥ ReferenceYear-1 appears.
	RecencyBonus int

	// Threshold is the inclusion threshold used by Passes.
	Threshold int
}

// New returns a scorer with the given indicators, the default credibility
// table, a recency bonus of 2 anchored on referenceYear, and the default
// threshold.
func New(ind Indicators, referenceYear int) *Scorer {
	return &Scorer{
		Indicators:    ind,
		Credibility:   DefaultCredibility(),
		ReferenceYear: referenceYear,
		RecencyBonus:  2,
		Threshold:     DefaultThreshold,
	}
}

var yearToken = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Score returns the relevance of a result with the given snippet and title
// from provider. The result is never negative.
func (s *Scorer) Score(snippet, title, provider string) int {
	text := strings.ToLower(title + " " + snippet)

	points := highPoints*countPresent(text, s.Indicators.High) +
		mediumPoints*countPresent(text, s.Indicators.Medium) +
		lowPoints*countPresent(text, s.Indicators.Low)

	weight := 1.0
	if w, ok := s.Credibility[strings.ToLower(strings.TrimSpace(provider))]; ok && w > 1.0 {
		weight = w
	}
	score := int(math.Floor(float64(points) * weight))

	if s.ReferenceYear > 0 && s.RecencyBonus > 0 && mentionsRecentYear(text, s.ReferenceYear-1) {
		score += s.RecencyBonus
	}
	return score
}

// Tier buckets a score into a quality tier.
func (s *Scorer) Tier(score int) types.QualityTier {
	switch {
	case score >= highTierMin:
		return types.TierHigh
	case score >= mediumTierMin:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

// Passes reports whether score is above the inclusion threshold.
func (s *Scorer) Passes(score int) bool {
	return score > s.Threshold
}

// Apply fills the score and tier of item using its snippet, title, and source.
func (s *Scorer) Apply(item *types.EvidenceItem) {
	item.RelevanceScore = s.Score(item.Snippet, item.Title, item.Source)
	item.QualityTier = s.Tier(item.RelevanceScore)
}

func countPresent(text string, indicators []string) int {
	n := 0
	for _, ind := range indicators {
		if ind != "" && strings.Contains(text, strings.ToLower(ind)) {
			n++
		}
	}
	return n
}

func mentionsRecentYear(text string, minYear int) bool {
	for _, tok := range yearToken.FindAllString(text, -1) {
		if y, err := strconv.Atoi(tok); err == nil && y >= minYear {
			return true
		}
	}
	return false
}
