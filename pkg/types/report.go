// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportKind selects the topic plan and synthesis stages of a run.
type ReportKind string

const (
	KindLegal        ReportKind = "legal"
	KindMarketing    ReportKind = "marketing"
	KindConsultation ReportKind = "consultation"
)

// Valid reports whether k is a known report kind.
func (k ReportKind) Valid() bool {
	switch k {
	case KindLegal, KindMarketing, KindConsultation:
		return true
	}
	return false
}

// StageOutput is the text produced by one synthesis stage.
type StageOutput struct {
	// Name is the stage identifier (e.g. "risk_assessment").
	Name string `json:"name" yaml:"name"`

	// Title is the section heading used when the output is rendered.
	Title string `json:"title" yaml:"title"`

	// Text is the generated text, or a placeholder when the stage failed.
	Text string `json:"text" yaml:"text"`

	// Placeholder is true when Text is a substitute for a failed generation.
	Placeholder bool `json:"placeholder" yaml:"placeholder"`
}

// RunMetadata describes one analysis run.
type RunMetadata struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id" yaml:"run_id"`

	// Kind is the report kind.
	Kind ReportKind `json:"kind" yaml:"kind"`

	// Timestamp is the run's reference time. It is the only time value
	// embedded in a rendered report.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// TopicCounts is the number of ranked sources per topic.
	TopicCounts map[string]int `json:"topic_counts" yaml:"topic_counts"`

	// TotalSources is the sum of TopicCounts.
	TotalSources int `json:"total_sources" yaml:"total_sources"`

	// FailedLookups is the number of failed adapter calls per topic.
	FailedLookups map[string]int `json:"failed_lookups,omitempty" yaml:"failed_lookups,omitempty"`

	// DegradedStages lists the synthesis stages that fell back to placeholders.
	DegradedStages []string `json:"degraded_stages,omitempty" yaml:"degraded_stages,omitempty"`
}

// Report is the terminal artifact of an analysis run.
type Report struct {
	Kind      ReportKind  `json:"kind" yaml:"kind"`
	Narrative string      `json:"narrative" yaml:"narrative"`
	Citations string      `json:"citations" yaml:"citations"`
	Metadata  RunMetadata `json:"metadata" yaml:"metadata"`
}

// Text returns the full report document: narrative followed by citations.
func (r Report) Text() string {
	return r.Narrative + r.Citations
}
