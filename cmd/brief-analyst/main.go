// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the brief-analyst CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/brief-analyst/internal/secrets"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	loadedSecrets secrets.Secrets
	logger        = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "brief-analyst",
	Short: "Research-backed business analysis from a short brief",
	Long: `brief-analyst turns a free-text business brief into a structured report.
It gathers evidence from web search, case law, government documents, and
company filings, ranks it, and runs a fixed sequence of generation stages
over it. Failed lookups and failed stages degrade the report instead of
aborting it.

Report kinds: legal, marketing, and consultation. Consultations draw on a
knowledge cache of digested reference books instead of fresh research.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(viper.GetString("app_env"), viper.GetString("log_level"))

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, &logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug().Strs("keys", s.Keys()).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./brief-analyst.yaml or ~/.config/brief-analyst/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("brief-analyst")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "brief-analyst"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("BRIEF_ANALYST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so that environment
// overrides reach viper.Unmarshal.
func setDefaults(v *viper.Viper) {
	d := types.DefaultAnalystConfig()
	defaults := map[string]any{
		"app_env":   "production",
		"log_level": "info",

		"providers.timeout":             d.Providers.Timeout,
		"providers.user_agent":          d.Providers.UserAgent,
		"providers.max_retries":         d.Providers.MaxRetries,
		"providers.rate_limit_rps":      d.Providers.RateLimitRPS,
		"providers.serpapi_key":         "",
		"providers.courtlistener_token": "",
		"providers.govinfo_api_key":     "",

		"research.max_concurrency":   d.Research.MaxConcurrency,
		"research.call_timeout":      d.Research.CallTimeout,
		"research.topic_cap":         d.Research.TopicCap,
		"research.max_results":       d.Research.MaxResults,
		"research.score_threshold":   d.Research.ScoreThreshold,
		"research.generated_queries": d.Research.GeneratedQueries,
		"research.reference_year":    d.Research.ReferenceYear,

		"ai.provider":       d.AI.Provider,
		"ai.model":          d.AI.Model,
		"ai.api_key":        "",
		"ai.base_url":       "",
		"ai.max_retries":    d.AI.MaxRetries,
		"ai.rate_limit_rps": d.AI.RateLimitRPS,
		"ai.timeout":        d.AI.Timeout,

		"synthesis.temperature":      d.Synthesis.Temperature,
		"synthesis.evidence_budget":  d.Synthesis.EvidenceBudget,
		"synthesis.prior_budget":     d.Synthesis.PriorBudget,
		"synthesis.knowledge_budget": d.Synthesis.KnowledgeBudget,

		"report.citations_per_topic": d.Report.CitationsPerTopic,
		"report.snippet_length":      d.Report.SnippetLength,

		"knowledge.db_path":           d.Knowledge.DBPath,
		"knowledge.books_dir":         d.Knowledge.BooksDir,
		"knowledge.chunk_size":        d.Knowledge.ChunkSize,
		"knowledge.min_length":        d.Knowledge.MinLength,
		"knowledge.concurrency":       d.Knowledge.Concurrency,
		"knowledge.converter_image":   d.Knowledge.ConverterImage,
		"knowledge.container_runtime": d.Knowledge.ContainerRuntime,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig resolves the analyst configuration. Precedence is flags, then
// environment, then config file, then .secrets/ files and conventional
// provider variables, then defaults.
func loadConfig() (types.AnalystConfig, error) {
	cfg := types.DefaultAnalystConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	aiKey := secrets.OpenAIKey
	if cfg.AI.Provider == "anthropic" {
		aiKey = secrets.AnthropicKey
	}
	cfg.AI.APIKey = loadedSecrets.Resolve(cfg.AI.APIKey, aiKey)
	cfg.Providers.SerpAPIKey = loadedSecrets.Resolve(cfg.Providers.SerpAPIKey, secrets.SerpAPIKey)
	cfg.Providers.CourtListenerToken = loadedSecrets.Resolve(cfg.Providers.CourtListenerToken, secrets.CourtListenerToken)
	cfg.Providers.GovInfoAPIKey = loadedSecrets.Resolve(cfg.Providers.GovInfoAPIKey, secrets.GovInfoKey)
	return cfg, nil
}

func newLogger(appEnv, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
