// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/brief-analyst/internal/analyst"
	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/metrics"
	"github.com/pdiddy/brief-analyst/internal/report"
	"github.com/pdiddy/brief-analyst/internal/research"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

const (
	maxRequestBytes = 64 << 10
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analyses over HTTP",
	Long: `Serve exposes the same analysis as "analyze" over HTTP:

  POST /v1/analyze   {"kind": "legal", "brief": "...", "ticker": "ACME"}
  GET  /metrics      prometheus metrics
  GET  /healthz      liveness

The knowledge cache is loaded once at startup.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &analyst.Analyst{
		Config:    cfg,
		Knowledge: loadKnowledge(ctx, cfg.Knowledge),
		Metrics:   metrics.New(reg),
		Logger:    &logger,
	}

	addr, _ := cmd.Flags().GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(a, reg, &logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// analyzeRequest is the POST /v1/analyze body.
type analyzeRequest struct {
	Kind      types.ReportKind `json:"kind"`
	Brief     string           `json:"brief"`
	Ticker    string           `json:"ticker,omitempty"`
	Questions []string         `json:"questions,omitempty"`
}

type analyzeResponse struct {
	Report   types.Report         `json:"report"`
	Markdown string               `json:"markdown"`
	Bundle   types.EvidenceBundle `json:"bundle"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newServer(a *analyst.Analyst, reg prometheus.Gatherer, logger *zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		var body analyzeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}

		res, err := a.Run(r.Context(), analyst.Request{
			Kind:      body.Kind,
			Brief:     body.Brief,
			Ticker:    body.Ticker,
			Questions: body.Questions,
		}, nil)
		if err != nil {
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}
		logger.Info().Str("run_id", res.Report.Metadata.RunID).Str("remote", r.RemoteAddr).Msg("served analysis")
		writeJSON(w, http.StatusOK, analyzeResponse{
			Report:   res.Report,
			Markdown: report.Render(res.Report),
			Bundle:   res.Bundle,
		})
	})
	return mux
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analyst.ErrInvalidRequest), errors.Is(err, research.ErrMalformedPlan):
		return http.StatusBadRequest
	case errors.Is(err, generate.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
