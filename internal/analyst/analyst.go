// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyst composes one analysis run: research, synthesis, and report
// assembly over an HTTP session that lives exactly as long as the run.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/brief-analyst/internal/evidence"
	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/knowledge"
	"github.com/pdiddy/brief-analyst/internal/metrics"
	"github.com/pdiddy/brief-analyst/internal/report"
	"github.com/pdiddy/brief-analyst/internal/research"
	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/internal/synth"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// ErrInvalidRequest reports a request that cannot start a run.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Progress receives coarse milestones as a message and a fraction in [0,1].
type Progress func(message string, fraction float64)

// Progress fractions at run milestones. Synthesis stages share the span
// between researchDone and stagesDone.
const (
	fractionResearchStarted = 0.1
	fractionResearchDone    = 0.5
	fractionStagesDone      = 0.95
)

// Request is the input of one run.
type Request struct {
	Kind   types.ReportKind `json:"kind"`
	Brief  string           `json:"brief"`
	Ticker string           `json:"ticker,omitempty"`

	// Bundle, when set, replaces the research phase. Plan names the topic
	// plan it was gathered with, if known.
	Bundle *types.EvidenceBundle `json:"-"`
	Plan   string                `json:"-"`

	// Questions are passed to consultation reports.
	Questions []string `json:"questions,omitempty"`
}

// Result is a finished run: the report and the evidence behind it.
type Result struct {
	Report types.Report
	Bundle types.EvidenceBundle
	Stages []types.StageOutput

	// Plan names the topic plan behind Bundle; empty for consultations.
	Plan string
}

// AdapterFactory builds the adapters of one run on the run's HTTP client.
type AdapterFactory func(client *http.Client, scorer *score.Scorer) research.AdapterSource

// Analyst runs analyses. It is safe for concurrent use; each run builds its
// own HTTP session, adapters, orchestrator, and pipeline.
type Analyst struct {
	Config types.AnalystConfig

	// Generator is shared by runs when set. Otherwise each run builds one
	// from Config.AI on its own HTTP client.
	Generator generate.Generator

	// Knowledge is the read-only snapshot offered to marketing and
	// consultation prompts. Nil means no reference books.
	Knowledge *knowledge.Cache

	// Adapters defaults to the four provider adapters of evidence.NewRegistry.
	Adapters AdapterFactory

	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Run executes req and returns the assembled report. Provider and
// generation failures degrade the report; only an invalid request, an
// unusable generation configuration, or a malformed plan are errors.
func (a *Analyst) Run(ctx context.Context, req Request, progress Progress) (Result, error) {
	start := a.now()
	log := a.logger()
	notify := func(msg string, f float64) {
		if progress != nil {
			progress(msg, f)
		}
	}

	if err := validate(req); err != nil {
		return Result{}, err
	}

	transport := newTransport(a.Config.Research)
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport}

	res, err := a.run(ctx, req, client, notify, start)
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case len(res.Report.Metadata.DegradedStages) > 0:
		outcome = metrics.OutcomeFallback
	}
	a.Metrics.ObserveRun(string(req.Kind), outcome, a.now().Sub(start))

	if err != nil {
		log.Error().Err(err).Str("kind", string(req.Kind)).Msg("analysis failed")
		return Result{}, err
	}
	log.Info().
		Str("run_id", res.Report.Metadata.RunID).
		Str("kind", string(req.Kind)).
		Int("sources", res.Report.Metadata.TotalSources).
		Strs("degraded", res.Report.Metadata.DegradedStages).
		Dur("elapsed", a.now().Sub(start)).
		Msg("analysis complete")
	return res, nil
}

func (a *Analyst) run(ctx context.Context, req Request, client *http.Client, notify Progress, start time.Time) (Result, error) {
	notify("Analysis started", 0)

	gen := a.Generator
	if gen == nil {
		var err error
		if gen, err = generate.New(a.Config.AI, client, a.Logger); err != nil {
			return Result{}, err
		}
	}

	bundle, plan, err := a.evidence(ctx, req, client, gen, notify, start)
	if err != nil {
		return Result{}, err
	}

	pipeline := &synth.Pipeline{
		Stages:    synth.StagesFor(req.Kind),
		Generator: gen,
		Config:    a.Config.Synthesis,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	}
	in := synth.Input{Brief: req.Brief, Bundle: bundle, Questions: req.Questions}
	if req.Kind != types.KindLegal {
		in.Knowledge = a.Knowledge.Summary(knowledge.DefaultMaxConcepts, knowledge.DefaultMaxFrameworks)
	}
	span := fractionStagesDone - fractionResearchDone
	stages, err := pipeline.Run(ctx, in, func(msg string, f float64) {
		notify(msg, fractionResearchDone+span*f)
	})
	if err != nil {
		return Result{}, err
	}

	meta := types.RunMetadata{
		RunID:          uuid.NewString(),
		Kind:           req.Kind,
		Timestamp:      start.UTC(),
		DegradedStages: synth.Degraded(stages),
	}
	rep := report.Assemble(synth.Narrative(stages), bundle, meta, a.Config.Report)
	notify("Report assembled", 1)

	return Result{Report: rep, Bundle: bundle, Stages: stages, Plan: plan}, nil
}

// evidence returns the supplied bundle, an empty one for consultations, or
// gathers a fresh one, along with the name of the plan behind it.
func (a *Analyst) evidence(ctx context.Context, req Request, client *http.Client, gen generate.Generator, notify Progress, start time.Time) (types.EvidenceBundle, string, error) {
	switch {
	case req.Bundle != nil:
		notify("Using supplied evidence", fractionResearchDone)
		return *req.Bundle, req.Plan, nil
	case req.Kind == types.KindConsultation:
		notify("Knowledge base loaded", fractionResearchDone)
		return types.EvidenceBundle{Topics: map[string][]types.EvidenceItem{}, CapturedAt: start.UTC()}, "", nil
	}

	orch, plan := a.Research(req, client, gen, start)
	span := fractionResearchDone - fractionResearchStarted
	orch.Progress = func(msg string, f float64) {
		notify(msg, fractionResearchStarted+span*f)
	}
	bundle, err := orch.Gather(ctx, req.Brief, plan)
	return bundle, plan.Name, err
}

// Research builds the orchestrator and topic plan a run of req would use.
func (a *Analyst) Research(req Request, client *http.Client, gen generate.Generator, start time.Time) (*research.Orchestrator, research.TopicPlan) {
	year := a.Config.Research.ReferenceYear
	if year == 0 {
		year = start.Year()
	}
	cfg := a.Config.Research
	cfg.ReferenceYear = year
	scorer := score.ForKind(req.Kind, year, cfg.ScoreThreshold)

	factory := a.Adapters
	if factory == nil {
		factory = func(client *http.Client, scorer *score.Scorer) research.AdapterSource {
			return evidence.NewRegistry(a.Config.Providers, client, scorer, a.Logger)
		}
	}

	plan := research.MarketingPlan()
	if req.Kind == types.KindLegal {
		plan = research.LegalPlan(req.Ticker)
	}
	plan.Ticker = req.Ticker

	return &research.Orchestrator{
		Adapters: factory(client, scorer),
		Scorer:   scorer,
		Queries:  &research.QueryGenerator{Generator: gen, Logger: a.Logger},
		Config:   cfg,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
		Now:      func() time.Time { return start },
	}, plan
}

// Gather runs only the research phase of req and returns the bundle with
// the request that produced it, ready to be saved and synthesized later.
func (a *Analyst) Gather(ctx context.Context, req Request, progress Progress) (research.BundleFile, error) {
	if err := validate(req); err != nil {
		return research.BundleFile{}, err
	}
	if req.Kind == types.KindConsultation {
		return research.BundleFile{}, fmt.Errorf("%w: consultations draw on the knowledge cache, not research", ErrInvalidRequest)
	}

	transport := newTransport(a.Config.Research)
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport}

	gen := a.Generator
	if gen == nil {
		var err error
		if gen, err = generate.New(a.Config.AI, client, a.Logger); err != nil {
			return research.BundleFile{}, err
		}
	}

	start := a.now()
	orch, plan := a.Research(req, client, gen, start)
	orch.Progress = research.Progress(progress)
	bundle, err := orch.Gather(ctx, req.Brief, plan)
	if err != nil {
		return research.BundleFile{}, err
	}
	return research.BundleFile{
		Brief:  req.Brief,
		Kind:   req.Kind,
		Plan:   plan.Name,
		Ticker: req.Ticker,
		Bundle: bundle,
	}, nil
}

func validate(req Request) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("%w: unknown report kind %q", ErrInvalidRequest, req.Kind)
	}
	if strings.TrimSpace(req.Brief) == "" {
		return fmt.Errorf("%w: empty brief", ErrInvalidRequest)
	}
	return nil
}

// newTransport returns a connection pool sized to the research fan-out.
// The caller closes its idle connections when the run ends.
func newTransport(cfg types.ResearchConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	n := cfg.MaxConcurrency
	if n <= 0 {
		n = 8
	}
	t.MaxIdleConnsPerHost = n
	t.MaxConnsPerHost = n
	return t
}

func (a *Analyst) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Analyst) logger() *zerolog.Logger {
	if a.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return a.Logger
}
