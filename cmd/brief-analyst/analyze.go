// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/brief-analyst/internal/analyst"
	"github.com/pdiddy/brief-analyst/internal/knowledge"
	"github.com/pdiddy/brief-analyst/internal/report"
	"github.com/pdiddy/brief-analyst/internal/research"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Research a brief and write the analysis report",
	Long: `Analyze gathers evidence for the brief, runs the synthesis stages for the
report kind, and writes the report as Markdown (or JSON with --json).

The brief comes from --brief, --brief-file, or standard input. With
--bundle, evidence saved by "gather" or "analyze --save-bundle" is reused
and no provider is queried. Progress is printed to standard error.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	a := &analyst.Analyst{
		Config:    cfg,
		Knowledge: loadKnowledge(ctx, cfg.Knowledge),
		Logger:    &logger,
	}
	res, err := a.Run(ctx, req, printProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save-bundle"); path != "" {
		if err := research.WriteBundleFile(path, bundleFileFor(req, res)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Saved evidence to", path)
	}
	if path, _ := cmd.Flags().GetString("csl"); path != "" {
		if err := writeFile(path, func(w io.Writer) error { return report.FormatCSL(res.Bundle, w) }); err != nil {
			return err
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	out, _ := cmd.Flags().GetString("out")
	write := func(w io.Writer) error {
		if asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Report)
		}
		_, err := io.WriteString(w, report.Render(res.Report))
		return err
	}
	if out == "" {
		return write(cmd.OutOrStdout())
	}
	if err := writeFile(out, write); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Report written to", out)
	return nil
}

// requestFromFlags builds the run request. A --bundle file supplies the
// kind, brief, and ticker when the flags leave them unset.
func requestFromFlags(cmd *cobra.Command) (analyst.Request, error) {
	kind, _ := cmd.Flags().GetString("kind")
	ticker, _ := cmd.Flags().GetString("ticker")
	questions, _ := cmd.Flags().GetStringSlice("question")

	brief, err := readBrief(cmd)
	if err != nil {
		return analyst.Request{}, err
	}
	req := analyst.Request{
		Kind:      types.ReportKind(strings.ToLower(kind)),
		Brief:     brief,
		Ticker:    strings.ToUpper(ticker),
		Questions: questions,
	}

	if path, _ := cmd.Flags().GetString("bundle"); path != "" {
		bf, err := research.ReadBundleFile(path)
		if err != nil {
			return analyst.Request{}, err
		}
		req.Bundle = &bf.Bundle
		req.Plan = bf.Plan
		if !cmd.Flags().Changed("kind") && bf.Kind != "" {
			req.Kind = bf.Kind
		}
		if req.Brief == "" {
			req.Brief = bf.Brief
		}
		if req.Ticker == "" {
			req.Ticker = bf.Ticker
		}
	}
	return req, nil
}

// readBrief takes the brief from --brief, --brief-file, or piped stdin.
func readBrief(cmd *cobra.Command) (string, error) {
	if brief, _ := cmd.Flags().GetString("brief"); brief != "" {
		return brief, nil
	}
	if path, _ := cmd.Flags().GetString("brief-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading brief: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err != nil || fi.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading brief from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// loadKnowledge opens the knowledge cache read-only for this process. A
// missing or unreadable cache means no reference books.
func loadKnowledge(ctx context.Context, cfg types.KnowledgeConfig) *knowledge.Cache {
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return nil
	}
	store, err := knowledge.Open(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.DBPath).Msg("knowledge cache unavailable")
		return nil
	}
	defer store.Close()

	cache, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("knowledge cache unreadable")
		return nil
	}
	return cache
}

func printProgress(w io.Writer) analyst.Progress {
	return func(msg string, f float64) {
		fmt.Fprintf(w, "[%3.0f%%] %s\n", f*100, msg)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}

var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Gather and rank evidence without synthesizing a report",
	Long: `Gather runs only the research phase for the brief, prints the ranked
evidence per topic, and saves the bundle so "analyze --bundle" can
synthesize it later.`,
	RunE: runGather,
}

func runGather(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	a := &analyst.Analyst{Config: cfg, Logger: &logger}
	bf, err := a.Gather(cmd.Context(), req, printProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	research.FormatTable(bf.Bundle, cmd.OutOrStdout())
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := research.WriteBundleFile(out, bf); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Saved evidence to", out)
	}
	return nil
}

func addBriefFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", string(types.KindMarketing), "report kind: legal, marketing, or consultation")
	cmd.Flags().String("brief", "", "business brief text")
	cmd.Flags().String("brief-file", "", "file holding the business brief")
	cmd.Flags().String("ticker", "", "stock ticker for company filings (legal reports)")
}

func init() {
	addBriefFlags(analyzeCmd)
	analyzeCmd.Flags().String("bundle", "", "reuse evidence from a saved bundle file")
	analyzeCmd.Flags().StringSlice("question", nil, "question for a consultation (repeatable)")
	analyzeCmd.Flags().String("out", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().String("save-bundle", "", "save the gathered evidence to a bundle file")
	analyzeCmd.Flags().String("csl", "", "write cited evidence as CSL-YAML to a file")
	analyzeCmd.Flags().Bool("json", false, "output the report as JSON")

	addBriefFlags(gatherCmd)
	gatherCmd.Flags().String("out", "evidence.yaml", "bundle file to write (empty to skip)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(gatherCmd)
}

// bundleFileFor records the evidence of a finished run for --save-bundle.
func bundleFileFor(req analyst.Request, res analyst.Result) research.BundleFile {
	return research.BundleFile{
		Brief:  req.Brief,
		Kind:   req.Kind,
		Plan:   res.Plan,
		Ticker: req.Ticker,
		Bundle: res.Bundle,
	}
}
