// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research fans a brief out to evidence adapters by topic and
// freezes the ranked results into an evidence bundle.
package research

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/brief-analyst/internal/evidence"
	"github.com/pdiddy/brief-analyst/internal/metrics"
	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Progress receives coarse milestones as a message and a fraction in [0,1].
type Progress func(message string, fraction float64)

const (
	defaultConcurrency = 8
	defaultCallTimeout = 30 * time.Second
	defaultTopicCap    = 8
)

// Orchestrator runs a topic plan against a set of adapters.
type Orchestrator struct {
	Adapters AdapterSource
	Scorer   *score.Scorer
	Queries  *QueryGenerator
	Config   types.ResearchConfig
	Metrics  *metrics.Metrics
	Logger   *zerolog.Logger

	// Now stamps CapturedAt. Defaults to time.Now.
	Now func() time.Time

	// Progress is optional.
	Progress Progress
}

// call is one (topic, query, adapter) triple and the slot its results land in.
type call struct {
	topic   int
	query   string
	label   string
	params  map[string]string
	adapter evidence.Adapter
	results []types.Result
}

// Gather issues every query of plan against the topic's adapters and returns
// the frozen bundle. Adapter failures are recorded under Failures and never
// abort the run; only a malformed plan is an error. Every topic of the plan
// is present in the bundle, possibly with no items.
func (o *Orchestrator) Gather(ctx context.Context, brief string, plan TopicPlan) (types.EvidenceBundle, error) {
	if o.Adapters == nil {
		return types.EvidenceBundle{}, fmt.Errorf("%w: no adapters configured", ErrMalformedPlan)
	}
	if err := plan.Validate(o.Adapters); err != nil {
		return types.EvidenceBundle{}, err
	}
	logger := o.logger()
	start := time.Now()
	o.notify("Research started", 0)

	calls, queries, err := o.expand(ctx, brief, plan)
	if err != nil {
		return types.EvidenceBundle{}, err
	}
	logger.Info().Str("plan", plan.Name).Int("topics", len(plan.Topics)).
		Int("calls", len(calls)).Msg("gathering evidence")

	o.run(ctx, calls)

	bundle := types.EvidenceBundle{
		Topics:     make(map[string][]types.EvidenceItem, len(plan.Topics)),
		Failures:   make(map[string][]types.ErrorItem),
		Queries:    queries,
		CapturedAt: o.now(),
	}
	for i, t := range plan.Topics {
		var found []types.EvidenceItem
		var failed []types.ErrorItem
		for _, c := range calls {
			if c.topic != i {
				continue
			}
			found = append(found, types.Items(c.results)...)
			failed = append(failed, types.Errors(c.results)...)
		}
		bundle.Topics[t.Name] = o.rank(found)
		if len(failed) > 0 {
			bundle.Failures[t.Name] = failed
		}
		logger.Debug().Str("topic", t.Name).Int("found", len(found)).
			Int("kept", len(bundle.Topics[t.Name])).Int("failed", len(failed)).Msg("topic ranked")
	}

	logger.Info().Int("sources", bundle.Total()).Int("failed_lookups", bundle.FailureCount()).
		Dur("elapsed", time.Since(start)).Msg("research complete")
	o.notify(fmt.Sprintf("Research complete: %d sources", bundle.Total()), 1)
	return bundle, nil
}

// expand renders templated queries, asks for generated ones, and lists the
// resulting calls in plan order.
func (o *Orchestrator) expand(ctx context.Context, brief string, plan TopicPlan) ([]*call, map[string][]string, error) {
	year := o.now().Year()
	vars := queryVars{Brief: shortenBrief(brief), Ticker: plan.Ticker, Year: year, NextYear: year + 1}

	var calls []*call
	queries := make(map[string][]string, len(plan.Topics))
	for i, t := range plan.Topics {
		specs := make([]QuerySpec, 0, len(t.Queries)+t.Generate)
		for _, q := range t.Queries {
			text, err := renderQuery(q.Template, vars)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: topic %q: %v", ErrMalformedPlan, t.Name, err)
			}
			if text == "" {
				continue
			}
			specs = append(specs, QuerySpec{Template: text, Label: q.Label, Params: q.Params})
		}
		if t.Generate > 0 {
			n := t.Generate
			if o.Config.GeneratedQueries > 0 && o.Config.GeneratedQueries < n {
				n = o.Config.GeneratedQueries
			}
			for _, q := range o.Queries.Propose(ctx, brief, t.Name, n) {
				specs = append(specs, QuerySpec{Template: q})
			}
		}
		if len(specs) == 0 {
			specs = append(specs, QuerySpec{Template: vars.Brief})
		}

		for _, q := range specs {
			queries[t.Name] = append(queries[t.Name], q.Template)
			for _, name := range t.Adapters {
				a, _ := o.Adapters.Get(name)
				calls = append(calls, &call{topic: i, query: q.Template, label: q.Label, params: q.Params, adapter: a})
			}
		}
	}
	return calls, queries, nil
}

// run executes calls with bounded concurrency. Each call has its own timeout
// and writes only its own slot; a failing call never cancels its siblings.
func (o *Orchestrator) run(ctx context.Context, calls []*call) {
	limit := o.Config.MaxConcurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	timeout := o.Config.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, c := range calls {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			began := time.Now()
			c.results = c.adapter.Search(callCtx, c.query, evidence.Options{
				MaxResults: o.Config.MaxResults,
				Label:      c.label,
				Params:     c.params,
			})
			o.Metrics.ObserveAdapter(c.adapter.Name(), outcome(c.results), time.Since(began))
			return nil
		})
	}
	_ = g.Wait()
}

// rank filters items below the threshold, drops repeated URLs in discovery
// order, and sorts by score descending with discovery order breaking ties.
func (o *Orchestrator) rank(items []types.EvidenceItem) []types.EvidenceItem {
	limit := o.Config.TopicCap
	if limit <= 0 {
		limit = defaultTopicCap
	}

	seen := make(map[string]bool, len(items))
	kept := make([]types.EvidenceItem, 0, len(items))
	for _, item := range items {
		if !o.passes(item.RelevanceScore) {
			continue
		}
		key := dedupKey(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, item)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func (o *Orchestrator) passes(s int) bool {
	if o.Scorer != nil {
		return o.Scorer.Passes(s)
	}
	return s > score.DefaultThreshold
}

func dedupKey(item types.EvidenceItem) string {
	if item.URL != "" {
		return "url:" + item.URL
	}
	return "title:" + item.Source + "|" + item.Title
}

func outcome(results []types.Result) string {
	if len(results) == 0 {
		return metrics.OutcomeSkipped
	}
	for _, r := range results {
		if r.IsError() {
			return metrics.OutcomeError
		}
	}
	return metrics.OutcomeOK
}

func (o *Orchestrator) notify(msg string, fraction float64) {
	if o.Progress != nil {
		o.Progress(msg, fraction)
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
