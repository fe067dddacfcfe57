// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-call timeout applied to every external request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. SEC EDGAR
	// rejects requests without a contact address in it.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RateLimitRPS is the per-adapter request rate (default 5).
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ProvidersConfig holds credentials for the evidence providers. An empty
// credential disables the provider that needs it.
type ProvidersConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	SerpAPIKey         string `json:"serpapi_key,omitempty" yaml:"serpapi_key,omitempty" mapstructure:"serpapi_key"`
	CourtListenerToken string `json:"courtlistener_token,omitempty" yaml:"courtlistener_token,omitempty" mapstructure:"courtlistener_token"`
	GovInfoAPIKey      string `json:"govinfo_api_key,omitempty" yaml:"govinfo_api_key,omitempty" mapstructure:"govinfo_api_key"`
}

// ResearchConfig holds settings for the research orchestrator.
type ResearchConfig struct {
	// MaxConcurrency bounds in-flight adapter calls across all topics (default 8).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// CallTimeout is the independent timeout of each adapter call (default 30s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`

	// TopicCap is the maximum number of items kept per topic (default 8).
	TopicCap int `json:"topic_cap" yaml:"topic_cap" mapstructure:"topic_cap"`

	// MaxResults is the per-call result count requested from providers (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// ScoreThreshold drops items whose score is not above it (default 3).
	ScoreThreshold int `json:"score_threshold" yaml:"score_threshold" mapstructure:"score_threshold"`

	// GeneratedQueries is the number of search terms requested per topic (default 3).
	GeneratedQueries int `json:"generated_queries" yaml:"generated_queries" mapstructure:"generated_queries"`

	// ReferenceYear anchors the scorer's recency bonus. Zero means the run's year.
	ReferenceYear int `json:"reference_year,omitempty" yaml:"reference_year,omitempty" mapstructure:"reference_year"`
}

// AIConfig holds settings for the generation service.
type AIConfig struct {
	// Provider selects the generation backend: "openai" (default) or "anthropic".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (default "gpt-4o").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RateLimitRPS is the request rate sent to the provider (default 2).
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`

	// Timeout bounds a single generation call (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SynthesisConfig holds settings for the synthesis pipeline.
type SynthesisConfig struct {
	// Temperature is the default sampling temperature (default 0.2).
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// EvidenceBudget caps the serialized evidence per stage in characters (default 6000).
	EvidenceBudget int `json:"evidence_budget" yaml:"evidence_budget" mapstructure:"evidence_budget"`

	// PriorBudget caps each interpolated prior stage output in characters (default 8000).
	PriorBudget int `json:"prior_budget" yaml:"prior_budget" mapstructure:"prior_budget"`

	// KnowledgeBudget caps the knowledge summary in characters (default 6000).
	KnowledgeBudget int `json:"knowledge_budget" yaml:"knowledge_budget" mapstructure:"knowledge_budget"`
}

// ReportConfig holds settings for the report assembler.
type ReportConfig struct {
	// CitationsPerTopic is the number of items listed per topic (default 8).
	CitationsPerTopic int `json:"citations_per_topic" yaml:"citations_per_topic" mapstructure:"citations_per_topic"`

	// SnippetLength truncates cited snippets to this many characters (default 150).
	SnippetLength int `json:"snippet_length" yaml:"snippet_length" mapstructure:"snippet_length"`
}

// KnowledgeConfig holds settings for the persisted knowledge cache.
type KnowledgeConfig struct {
	// DBPath is the SQLite database file (default "knowledge/cache.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// BooksDir holds reference documents to digest (default "books").
	BooksDir string `json:"books_dir" yaml:"books_dir" mapstructure:"books_dir"`

	// ChunkSize is the maximum characters per digestion call (default 100000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// MinLength skips documents shorter than this many characters (default 500).
	MinLength int `json:"min_length" yaml:"min_length" mapstructure:"min_length"`

	// Concurrency bounds parallel digestion calls (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// ConverterImage is the container image that turns PDFs into Markdown
	// (default "markitdown:latest").
	ConverterImage string `json:"converter_image" yaml:"converter_image" mapstructure:"converter_image"`

	// ContainerRuntime pins "docker" or "podman"; empty tries both.
	ContainerRuntime string `json:"container_runtime" yaml:"container_runtime" mapstructure:"container_runtime"`
}

// AnalystConfig groups all component configurations for an analysis run.
type AnalystConfig struct {
	Providers ProvidersConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
	Research  ResearchConfig  `json:"research" yaml:"research" mapstructure:"research"`
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	Report    ReportConfig    `json:"report" yaml:"report" mapstructure:"report"`
	Knowledge KnowledgeConfig `json:"knowledge" yaml:"knowledge" mapstructure:"knowledge"`
}

// DefaultAnalystConfig returns the configuration used when no file, flag,
// or environment value overrides a setting.
func DefaultAnalystConfig() AnalystConfig {
	return AnalystConfig{
		Providers: ProvidersConfig{
			HTTPConfig: HTTPConfig{
				Timeout:      30 * time.Second,
				UserAgent:    "brief-analyst/0.1 (contact@example.com)",
				MaxRetries:   3,
				RateLimitRPS: 5,
			},
		},
		Research: ResearchConfig{
			MaxConcurrency:   8,
			CallTimeout:      30 * time.Second,
			TopicCap:         8,
			MaxResults:       10,
			ScoreThreshold:   3,
			GeneratedQueries: 3,
		},
		AI: AIConfig{
			Provider:     "openai",
			Model:        "gpt-4o",
			MaxRetries:   2,
			RateLimitRPS: 2,
			Timeout:      120 * time.Second,
		},
		Synthesis: SynthesisConfig{
			Temperature:     0.2,
			EvidenceBudget:  6000,
			PriorBudget:     8000,
			KnowledgeBudget: 6000,
		},
		Report: ReportConfig{
			CitationsPerTopic: 8,
			SnippetLength:     150,
		},
		Knowledge: KnowledgeConfig{
			DBPath:         "knowledge/cache.db",
			BooksDir:       "books",
			ChunkSize:      100000,
			MinLength:      500,
			Concurrency:    2,
			ConverterImage: "markitdown:latest",
		},
	}
}
