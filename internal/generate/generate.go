// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate wraps the text-generation service used to propose search
// queries, run synthesis stages, and digest reference documents.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Generator completes a prompt. Implementations are safe for concurrent use.
type Generator interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options tunes a single completion.
type Options struct {
	// System is an optional system instruction.
	System string

	// Temperature is the sampling temperature.
	Temperature float32

	// MaxOutputTokens caps the completion length (default 4000).
	MaxOutputTokens int
}

const (
	defaultMaxOutputTokens = 4000
	defaultAnthropicModel  = "claude-sonnet-4-5-20250929"
)

// Provider names accepted in AIConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrEmptyCompletion reports a response with no text.
	ErrEmptyCompletion = errors.New("generation service returned no text")

	// ErrMissingAPIKey reports that the generation service has no credential.
	ErrMissingAPIKey = errors.New("generation API key is not set")

	// ErrCircuitOpen reports that recent consecutive failures paused calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// GenerationError describes a failed completion.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s completion failed: %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// New returns the generator selected by cfg.Provider, wrapped with retries.
// The generation service is mandatory, so a missing key is an error.
func New(cfg types.AIConfig, client *http.Client, logger *zerolog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w (provider %s)", ErrMissingAPIKey, providerName(cfg))
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var g Generator
	switch providerName(cfg) {
	case ProviderOpenAI:
		g = NewOpenAI(cfg, client, logger)
	case ProviderAnthropic:
		model := cfg.Model
		if model == "" || strings.HasPrefix(model, "gpt-") {
			model = defaultAnthropicModel
		}
		g = &Anthropic{APIKey: cfg.APIKey, Model: model, Client: client, Timeout: cfg.Timeout, MaxRetries: cfg.MaxRetries, Logger: logger}
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	return WithRetry(g, cfg.MaxRetries), nil
}

func providerName(cfg types.AIConfig) string {
	if cfg.Provider == "" {
		return ProviderOpenAI
	}
	return cfg.Provider
}

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

type retrying struct {
	next       Generator
	maxRetries int
}

// WithRetry retries failed completions up to maxRetries times with
// exponential backoff. Context cancellation and an open circuit are not
// retried.
func WithRetry(g Generator, maxRetries int) Generator {
	if maxRetries <= 0 {
		return g
	}
	return &retrying{next: g, maxRetries: maxRetries}
}

func (r *retrying) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := r.next.Complete(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func maxTokens(opts Options) int {
	if opts.MaxOutputTokens <= 0 {
		return defaultMaxOutputTokens
	}
	return opts.MaxOutputTokens
}
