// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = time.Minute
	defaultModel            = "gpt-4o"
)

// OpenAI calls the chat-completions API. Calls are rate limited and a run of
// consecutive failures opens a circuit breaker for circuitBreakerTimeout.
type OpenAI struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	mu                  sync.Mutex
	consecutiveFailures int
	circuitOpenUntil    time.Time
}

// NewOpenAI returns an OpenAI generator. A non-empty cfg.BaseURL points the
// client at a compatible endpoint.
func NewOpenAI(cfg types.AIConfig, httpClient *http.Client, logger *zerolog.Logger) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		timeout:     cfg.Timeout,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Complete sends prompt as a single user message.
func (c *OpenAI) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", c.wrap(err)
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", c.wrap(fmt.Errorf("rate limiter: %w", err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var messages []openai.ChatCompletionMessage
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens(opts),
	})
	if err != nil {
		c.recordFailure()
		return "", c.wrap(err)
	}
	c.recordSuccess()

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", c.wrap(ErrEmptyCompletion)
	}

	c.logger.Debug().Str("model", c.model).Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).Msg("completion received")
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAI) wrap(err error) error {
	return &GenerationError{Provider: ProviderOpenAI, Model: c.model, Err: err}
}

func (c *OpenAI) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", ErrCircuitOpen, c.circuitOpenUntil.Format(time.RFC3339))
	}
	return nil
}

func (c *OpenAI) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *OpenAI) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("circuit breaker opened")
	}
}
