// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the prometheus collectors recorded during analysis
// runs. A nil *Metrics is valid and records nothing, so library code can be
// exercised without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "placeholder"
)

// Metrics groups the collectors for adapters, synthesis stages, and runs.
type Metrics struct {
	adapterRequests  *prometheus.CounterVec
	adapterDuration  *prometheus.HistogramVec
	stageGenerations *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		adapterRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "brief_analyst_adapter_requests_total",
			Help: "Evidence adapter calls by adapter and outcome",
		}, []string{"adapter", "outcome"}),
		adapterDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brief_analyst_adapter_request_duration_seconds",
			Help:    "Latency of evidence adapter calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"adapter"}),
		stageGenerations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "brief_analyst_stage_generations_total",
			Help: "Synthesis stage generations by stage and outcome",
		}, []string{"stage", "outcome"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "brief_analyst_runs_total",
			Help: "Analysis runs by report kind and outcome",
		}, []string{"kind", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brief_analyst_run_duration_seconds",
			Help:    "Wall time of analysis runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
	}
}

// ObserveAdapter records one adapter call.
func (m *Metrics) ObserveAdapter(adapter, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.adapterRequests.WithLabelValues(adapter, outcome).Inc()
	m.adapterDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

// ObserveStage records one synthesis stage.
func (m *Metrics) ObserveStage(stage, outcome string) {
	if m == nil {
		return
	}
	m.stageGenerations.WithLabelValues(stage, outcome).Inc()
}

// ObserveRun records one completed analysis run.
func (m *Metrics) ObserveRun(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
	m.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}
