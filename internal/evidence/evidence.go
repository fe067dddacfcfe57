// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence queries external providers (web search, case law,
// government documents, company filings) and normalizes their responses
// into scored evidence items.
//
// An adapter call never returns an error past its boundary. Transport
// failures, bad statuses, malformed payloads, and timeouts become a single
// types.ErrorItem; a missing credential makes the adapter return no results.
package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/brief-analyst/internal/httputil"
	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Adapter searches a single external provider. Each provider family
// implements this interface.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) []types.Result
}

// Options tunes a single adapter call.
type Options struct {
	// MaxResults caps the number of items returned (default 10).
	MaxResults int

	// Label is the display source recorded on each item (e.g. "Statista").
	// It defaults to the provider's own label and feeds credibility weighting.
	Label string

	// Params carries provider-specific parameters (e.g. "court", "ticker").
	Params map[string]string
}

// ErrNotConfigured reports that an adapter lacks a credential it requires.
var ErrNotConfigured = errors.New("adapter not configured")

// AdapterError describes a failed provider call. It is converted to a
// types.ErrorItem before leaving the adapter.
type AdapterError struct {
	Adapter string
	Query   string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s search for %q failed: %v", e.Adapter, e.Query, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Deps holds the collaborators shared by every adapter. The HTTP client is
// owned by the caller and must be safe for concurrent use.
type Deps struct {
	Client *http.Client
	Scorer *score.Scorer
	HTTP   types.HTTPConfig
	Logger *zerolog.Logger
}

const (
	defaultMaxResults = 10
	maxBodyBytes      = 8 << 20
)

// base implements the request, decode, failure, and scoring steps shared by
// all adapters.
type base struct {
	name    string
	label   string
	client  *http.Client
	scorer  *score.Scorer
	http    types.HTTPConfig
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func newBase(name, label string, d Deps) base {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	rps := d.HTTP.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return base{
		name:    name,
		label:   label,
		client:  client,
		scorer:  d.Scorer,
		http:    d.HTTP,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

func (b *base) Name() string { return b.name }

func (b *base) labelFor(opts Options) string {
	if opts.Label != "" {
		return opts.Label
	}
	return b.label
}

func maxResults(opts Options) int {
	if opts.MaxResults <= 0 {
		return defaultMaxResults
	}
	return opts.MaxResults
}

// withTimeout applies the configured per-call timeout, if any.
func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.http.Timeout > 0 {
		return context.WithTimeout(ctx, b.http.Timeout)
	}
	return context.WithCancel(ctx)
}

// skip logs a no-op for a missing credential and returns no results.
func (b *base) skip(query string) []types.Result {
	b.logger.Debug().Str("adapter", b.name).Str("query", query).
		Err(ErrNotConfigured).Msg("skipping provider without credential")
	return nil
}

// fail converts err into the single ErrorItem an adapter returns on failure.
func (b *base) fail(label, query string, err error) []types.Result {
	aerr := &AdapterError{Adapter: b.name, Query: query, Err: err}
	b.logger.Warn().Str("adapter", b.name).Str("source", label).Err(err).Msg("evidence lookup failed")
	return []types.Result{types.ErrorResult(label, aerr.Error())}
}

// doJSON sends req through the rate limiter and retry helper and decodes a
// JSON response body into dst.
func (b *base) doJSON(ctx context.Context, req *http.Request, dst any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if b.http.UserAgent != "" {
		req.Header.Set("User-Agent", b.http.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, b.client, req, b.http.MaxRetries, b.logger)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	b.logger.Debug().Str("adapter", b.name).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("provider response")

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// finish scores items and wraps them as results, truncating to limit.
func (b *base) finish(items []types.EvidenceItem, limit int) []types.Result {
	if len(items) > limit {
		items = items[:limit]
	}
	results := make([]types.Result, 0, len(items))
	for _, item := range items {
		item.Provider = b.name
		if b.scorer != nil {
			b.scorer.Apply(&item)
		}
		results = append(results, types.ItemResult(item))
	}
	return results
}

// parseDate interprets the assorted date formats providers emit. Unknown
// formats yield nil rather than an error.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
