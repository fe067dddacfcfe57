// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the brief-analyst pipeline:
// evidence gathered from external providers, synthesis stage outputs, the
// assembled report, knowledge-cache records, and configuration.
package types

import (
	"sort"
	"time"
)

// QualityTier is a categorical bucket derived from an item's relevance score.
type QualityTier string

const (
	TierHigh   QualityTier = "High"
	TierMedium QualityTier = "Medium"
	TierLow    QualityTier = "Low"
)

// EvidenceItem is one normalized result returned by an evidence adapter.
// Items are never mutated after the adapter creates and scores them.
type EvidenceItem struct {
	// Source is the display name of the source (e.g. "Statista", "CourtListener").
	Source string `json:"source" yaml:"source"`

	// Provider is the adapter that produced the item (e.g. "serpapi", "courtlistener").
	Provider string `json:"provider" yaml:"provider"`

	// Title is the result title, defaulted by the adapter when the provider omits it.
	Title string `json:"title" yaml:"title"`

	// URL links to the underlying document.
	URL string `json:"url" yaml:"url"`

	// Snippet is a short excerpt or description of the document.
	Snippet string `json:"snippet" yaml:"snippet"`

	// PublishedDate is the publication, filing, or decision date if known.
	PublishedDate *time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// RelevanceScore is a non-negative score computed by the relevance scorer.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// QualityTier is derived from RelevanceScore.
	QualityTier QualityTier `json:"quality_tier" yaml:"quality_tier"`
}

// ErrorItem records a failed adapter call. It replaces the evidence the call
// would have produced so consumers can tell failures apart by type.
type ErrorItem struct {
	// Source is the adapter or display source that failed.
	Source string `json:"source" yaml:"source"`

	// Message is a human-readable description of the failure.
	Message string `json:"message" yaml:"message"`
}

// Result is the outcome of a single adapter call element: exactly one of Item
// or Err is set.
type Result struct {
	Item *EvidenceItem
	Err  *ErrorItem
}

// IsError reports whether the result carries a failure.
func (r Result) IsError() bool { return r.Err != nil }

// ItemResult wraps an evidence item as a Result.
func ItemResult(item EvidenceItem) Result { return Result{Item: &item} }

// ErrorResult wraps a failure as a Result.
func ErrorResult(source, message string) Result {
	return Result{Err: &ErrorItem{Source: source, Message: message}}
}

// Items returns the evidence items of results in order, skipping failures.
func Items(results []Result) []EvidenceItem {
	var items []EvidenceItem
	for _, r := range results {
		if r.Item != nil {
			items = append(items, *r.Item)
		}
	}
	return items
}

// Errors returns the failures of results in order.
func Errors(results []Result) []ErrorItem {
	var errs []ErrorItem
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, *r.Err)
		}
	}
	return errs
}

// EvidenceBundle maps research topic names to ranked evidence. It is owned by
// one analysis run and frozen before synthesis.
type EvidenceBundle struct {
	// Topics holds each topic's evidence, highest relevance first.
	Topics map[string][]EvidenceItem `json:"topics" yaml:"topics"`

	// Failures holds the adapter failures recorded for each topic.
	Failures map[string][]ErrorItem `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Queries records the queries issued for each topic.
	Queries map[string][]string `json:"queries,omitempty" yaml:"queries,omitempty"`

	// CapturedAt is when the bundle was frozen.
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
}

// TopicNames returns the bundle's topic names in sorted order.
func (b EvidenceBundle) TopicNames() []string {
	names := make([]string, 0, len(b.Topics))
	for name := range b.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of evidence items for topic.
func (b EvidenceBundle) Count(topic string) int {
	return len(b.Topics[topic])
}

// Total returns the number of evidence items across all topics.
func (b EvidenceBundle) Total() int {
	total := 0
	for _, items := range b.Topics {
		total += len(items)
	}
	return total
}

// FailureCount returns the number of failed lookups across all topics.
func (b EvidenceBundle) FailureCount() int {
	total := 0
	for _, errs := range b.Failures {
		total += len(errs)
	}
	return total
}
