// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns a brief and its evidence bundle into narrative text
// through an ordered list of generation stages. Each stage makes exactly one
// generation call and may read the text of earlier stages. A failed stage is
// replaced by a marked placeholder and the pipeline continues.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/metrics"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// ErrInvalidPipeline reports a stage list that cannot run.
var ErrInvalidPipeline = errors.New("invalid synthesis pipeline")

// Stage is one named generation step.
type Stage struct {
	Name  string
	Title string

	// System is sent as the system message, if set.
	System string

	// Template renders the prompt. It sees the fields of PromptData.
	Template string

	// Topics selects the bundle topics serialized into {{.Evidence}}.
	Topics []string

	// DependsOn names earlier stages whose text is interpolated.
	DependsOn []string

	// Temperature overrides the pipeline default when non-zero.
	Temperature float32

	MaxOutputTokens int

	// Guideline is the output-size guidance given to the model.
	Guideline string
}

// Input is what every stage of a run reads.
type Input struct {
	Brief     string
	Bundle    types.EvidenceBundle
	Knowledge string
	Questions []string
}

// Dependency is an earlier stage's output as seen by a prompt template.
type Dependency struct {
	Name  string
	Title string
	Text  string
}

// PromptData is the template data of a stage prompt.
type PromptData struct {
	Brief        string
	Evidence     string
	Knowledge    string
	Questions    []string
	Guideline    string
	Dependencies []Dependency
	Prior        map[string]string
}

// Progress receives a milestone message and a fraction in [0,1].
type Progress func(message string, fraction float64)

// Pipeline runs stages in order against one generator.
type Pipeline struct {
	Stages    []Stage
	Generator generate.Generator
	Config    types.SynthesisConfig
	Metrics   *metrics.Metrics
	Logger    *zerolog.Logger
}

// Validate checks that stage names are unique, that every dependency names
// an earlier stage, and that every template parses.
func (p *Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidPipeline)
	}
	seen := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidPipeline, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate stage %q", ErrInvalidPipeline, s.Name)
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("%w: stage %q depends on %q, which does not run before it", ErrInvalidPipeline, s.Name, dep)
			}
		}
		if _, err := template.New(s.Name).Parse(s.Template); err != nil {
			return fmt.Errorf("%w: stage %q template: %v", ErrInvalidPipeline, s.Name, err)
		}
		seen[s.Name] = true
	}
	return nil
}

// Run executes the stages strictly in order and returns one output per
// stage. It fails only when the pipeline itself is invalid.
func (p *Pipeline) Run(ctx context.Context, in Input, progress Progress) ([]types.StageOutput, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Generator == nil {
		return nil, fmt.Errorf("%w: no generator", ErrInvalidPipeline)
	}

	prior := make(map[string]types.StageOutput, len(p.Stages))
	outputs := make([]types.StageOutput, 0, len(p.Stages))
	for i, s := range p.Stages {
		out := p.RunStage(ctx, s, in, prior)
		prior[s.Name] = out
		outputs = append(outputs, out)

		if progress != nil {
			msg := s.Title + " complete"
			if out.Placeholder {
				msg = s.Title + " unavailable"
			}
			progress(msg, float64(i+1)/float64(len(p.Stages)))
		}
	}
	return outputs, nil
}

// RunStage makes exactly one generation call for s. Any generation failure
// yields the stage's placeholder instead of an error.
func (p *Pipeline) RunStage(ctx context.Context, s Stage, in Input, prior map[string]types.StageOutput) types.StageOutput {
	logger := p.logger()
	title := stageTitle(s)

	prompt, err := p.render(s, in, prior)
	if err != nil {
		logger.Error().Err(err).Str("stage", s.Name).Msg("rendering stage prompt")
		p.Metrics.ObserveStage(s.Name, metrics.OutcomeFallback)
		return placeholderOutput(s)
	}

	temp := s.Temperature
	if temp == 0 {
		temp = p.Config.Temperature
	}
	text, err := p.Generator.Complete(ctx, prompt, generate.Options{
		System:          s.System,
		Temperature:     temp,
		MaxOutputTokens: s.MaxOutputTokens,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = generate.ErrEmptyCompletion
	}
	if err != nil {
		logger.Warn().Err(err).Str("stage", s.Name).Msg("stage generation failed; substituting placeholder")
		p.Metrics.ObserveStage(s.Name, metrics.OutcomeFallback)
		return placeholderOutput(s)
	}

	logger.Debug().Str("stage", s.Name).Int("prompt_chars", len(prompt)).Int("output_chars", len(text)).Msg("stage generated")
	p.Metrics.ObserveStage(s.Name, metrics.OutcomeOK)
	return types.StageOutput{Name: s.Name, Title: title, Text: strings.TrimSpace(text)}
}

func (p *Pipeline) render(s Stage, in Input, prior map[string]types.StageOutput) (string, error) {
	tmpl, err := template.New(s.Name).Parse(s.Template)
	if err != nil {
		return "", err
	}

	data := PromptData{
		Brief:     strings.TrimSpace(in.Brief),
		Evidence:  Truncate(FormatEvidence(in.Bundle, s.Topics), budget(p.Config.EvidenceBudget, defaultEvidenceBudget)),
		Knowledge: Truncate(in.Knowledge, budget(p.Config.KnowledgeBudget, defaultKnowledgeBudget)),
		Questions: in.Questions,
		Guideline: s.Guideline,
		Prior:     make(map[string]string, len(s.DependsOn)),
	}
	for _, dep := range s.DependsOn {
		out, ok := prior[dep]
		if !ok {
			return "", fmt.Errorf("stage %q has not run", dep)
		}
		text := Truncate(out.Text, budget(p.Config.PriorBudget, defaultPriorBudget))
		data.Dependencies = append(data.Dependencies, Dependency{Name: dep, Title: out.Title, Text: text})
		data.Prior[dep] = text
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Placeholder is the marked text that replaces a failed stage.
func Placeholder(s Stage) string {
	return fmt.Sprintf("[%s unavailable: the generation service failed for this stage]", stageTitle(s))
}

func placeholderOutput(s Stage) types.StageOutput {
	return types.StageOutput{Name: s.Name, Title: stageTitle(s), Text: Placeholder(s), Placeholder: true}
}

// Narrative renders outputs as Markdown sections in order.
func Narrative(outputs []types.StageOutput) string {
	var b strings.Builder
	for i, o := range outputs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", o.Title, o.Text)
	}
	return b.String()
}

// Degraded returns the names of placeholder stages.
func Degraded(outputs []types.StageOutput) []string {
	var names []string
	for _, o := range outputs {
		if o.Placeholder {
			names = append(names, o.Name)
		}
	}
	return names
}

func stageTitle(s Stage) string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

func (p *Pipeline) logger() *zerolog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
