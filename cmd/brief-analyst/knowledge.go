// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/brief-analyst/internal/container"
	"github.com/pdiddy/brief-analyst/internal/convert"
	"github.com/pdiddy/brief-analyst/internal/digest"
	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/knowledge"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge cache of digested reference books",
	Long: `Knowledge manages a local SQLite cache of reference book digests: a
summary, key concepts, and frameworks per book. Marketing and consultation
reports read the cache; only these subcommands write it.`,
}

var knowledgeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Digest new books from the books directory",
	Long: `Build converts each PDF, Markdown, or text file in the books directory
that is not yet in the cache, analyzes it in chunks with the generation
service, and stores the digest. PDFs need docker or podman with the
markitdown image; without one, PDFs are counted as failures.`,
	RunE: runKnowledgeBuild,
}

func runKnowledgeBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := knowledgeConfig(cmd)
	if err != nil {
		return err
	}

	store, err := knowledge.Open(cfg.Knowledge)
	if err != nil {
		return err
	}
	defer store.Close()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	defer transport.CloseIdleConnections()
	gen, err := generate.New(cfg.AI, &http.Client{Transport: transport}, &logger)
	if err != nil {
		return err
	}

	converters := convert.Set{Text: convert.PlainTextConverter{}}
	if rt, err := container.DetectRuntime(ctx, cfg.Knowledge.ContainerRuntime); err != nil {
		logger.Warn().Err(err).Msg("PDF conversion disabled")
	} else if pdf, err := convert.NewMarkitdownConverter(ctx, rt, cfg.Knowledge.ConverterImage); err != nil {
		logger.Warn().Err(err).Msg("PDF conversion disabled")
	} else {
		converters.PDF = pdf
	}

	b := &digest.Builder{
		Store:     store,
		Converter: converters,
		Generator: gen,
		Config:    cfg.Knowledge,
		Logger:    &logger,
	}
	summary, err := b.BuildDir(ctx, cfg.Knowledge.BooksDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Batch summary: %d digested, %d skipped, %d failed (total: %d)\n",
		summary.Digested, summary.Skipped, summary.Failed, summary.Total())
	if summary.HasFailures() {
		return fmt.Errorf("%d book(s) failed digestion", summary.Failed)
	}
	return nil
}

var knowledgeImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import digests from a YAML export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := knowledgeConfig(cmd)
		if err != nil {
			return err
		}
		store, err := knowledge.Open(cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.ImportYAML(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s) into %s\n", n, cfg.Knowledge.DBPath)
		return nil
	},
}

var knowledgeExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export all digests to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := knowledgeConfig(cmd)
		if err != nil {
			return err
		}
		store, err := knowledge.Open(cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ExportYAML(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", args[0])
		return nil
	},
}

var knowledgeInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the knowledge cache holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := knowledgeConfig(cmd)
		if err != nil {
			return err
		}
		store, err := knowledge.Open(cfg.Knowledge)
		if err != nil {
			return err
		}
		defer store.Close()

		cache, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		info := cache.Info()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		w := cmd.OutOrStdout()
		if info.Records == 0 {
			fmt.Fprintln(w, "Knowledge cache is empty.")
			return nil
		}
		fmt.Fprintf(w, "Books:             %d\n", info.Records)
		fmt.Fprintf(w, "Unique concepts:   %d\n", info.Concepts)
		fmt.Fprintf(w, "Unique frameworks: %d\n", info.Frameworks)
		fmt.Fprintf(w, "Last processed:    %s\n", info.LastProcessed.Format(time.RFC3339))
		for _, title := range info.Titles {
			fmt.Fprintf(w, "  - %s\n", title)
		}
		return nil
	},
}

// knowledgeConfig loads the configuration with the knowledge flags applied.
func knowledgeConfig(cmd *cobra.Command) (types.AnalystConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Knowledge.DBPath = db
	}
	if dir, _ := cmd.Flags().GetString("books-dir"); dir != "" {
		cfg.Knowledge.BooksDir = dir
	}
	return cfg, nil
}

func init() {
	knowledgeCmd.PersistentFlags().String("db", "", "knowledge cache database (default from config: knowledge/cache.db)")
	knowledgeBuildCmd.Flags().String("books-dir", "", "directory of reference books (default from config: books)")
	knowledgeInfoCmd.Flags().Bool("json", false, "output as JSON")

	knowledgeCmd.AddCommand(knowledgeBuildCmd)
	knowledgeCmd.AddCommand(knowledgeImportCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)
	knowledgeCmd.AddCommand(knowledgeInfoCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
