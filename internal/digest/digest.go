// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest builds knowledge-cache records from reference books: each
// book is converted to text, split into chunks, analyzed chunk by chunk, and
// summarized once.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/brief-analyst/internal/convert"
	"github.com/pdiddy/brief-analyst/internal/generate"
	"github.com/pdiddy/brief-analyst/internal/knowledge"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// SummaryFailed is stored as the summary when the summary call fails.
const SummaryFailed = "Summary generation failed"

const (
	defaultChunkSize   = 100000
	defaultMinLength   = 500
	defaultConcurrency = 2

	chunkTemperature   = 0.3
	summaryTemperature = 0.3
	chunkMaxTokens     = 2000
	summaryMaxTokens   = 800
)

// Store is the subset of the knowledge store the builder writes to.
type Store interface {
	Has(ctx context.Context, filename, hash string) (bool, error)
	Put(ctx context.Context, rec types.KnowledgeRecord) error
}

// Analysis is the structured content extracted from one chunk, and the merged
// content of a whole book.
type Analysis struct {
	KeyConcepts []string `json:"key_concepts"`
	Frameworks  []string `json:"frameworks"`
	Strategies  []string `json:"strategies"`
	CaseStudies []string `json:"case_studies"`
	Insights    []string `json:"insights"`
}

// BatchSummary holds counts from a BuildDir run.
type BatchSummary struct {
	Digested int
	Skipped  int
	Failed   int
}

// Total returns the number of documents seen.
func (s BatchSummary) Total() int {
	return s.Digested + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Builder digests documents into a Store.
type Builder struct {
	Store     Store
	Converter convert.Converter
	Generator generate.Generator
	Config    types.KnowledgeConfig
	Logger    *zerolog.Logger
	Now       func() time.Time
}

func (b *Builder) logger() *zerolog.Logger {
	if b.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return b.Logger
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// BuildDir digests every supported document in dir that the store does not
// already hold. Per-document failures are counted, not returned.
func (b *Builder) BuildDir(ctx context.Context, dir string) (BatchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading books directory %s: %w", dir, err)
	}

	log := b.logger()
	var summary BatchSummary
	for _, entry := range entries {
		if entry.IsDir() || !convert.IsSupported(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := entry.Name()
		done, err := b.Store.Has(ctx, name, "")
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("knowledge lookup failed")
			summary.Failed++
			continue
		}
		if done {
			log.Debug().Str("file", name).Msg("already digested")
			summary.Skipped++
			continue
		}

		rec, err := b.Digest(ctx, filepath.Join(dir, name))
		switch {
		case err == nil:
		case errors.Is(err, errTooShort):
			summary.Skipped++
			continue
		default:
			log.Warn().Err(err).Str("file", name).Msg("digest failed")
			summary.Failed++
			continue
		}

		if err := b.Store.Put(ctx, rec); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("storing digest failed")
			summary.Failed++
			continue
		}
		log.Info().Str("file", name).Int("concepts", len(rec.KeyConcepts)).Int("frameworks", len(rec.Frameworks)).Msg("digested")
		summary.Digested++
	}
	return summary, nil
}

var errTooShort = errors.New("document too short to digest")

// Digest converts and analyzes one document. Documents whose text is
// shorter than the configured minimum are rejected.
func (b *Builder) Digest(ctx context.Context, path string) (types.KnowledgeRecord, error) {
	if b.Converter == nil || b.Generator == nil {
		return types.KnowledgeRecord{}, fmt.Errorf("digest builder needs a converter and a generator")
	}
	name := filepath.Base(path)
	text, err := b.Converter.Convert(ctx, path)
	if err != nil {
		return types.KnowledgeRecord{}, err
	}

	minLen := b.Config.MinLength
	if minLen <= 0 {
		minLen = defaultMinLength
	}
	if n := len([]rune(strings.TrimSpace(text))); n < minLen {
		b.logger().Warn().Str("file", name).Int("chars", n).Msg("very little text extracted, skipping")
		return types.KnowledgeRecord{}, errTooShort
	}

	size := b.Config.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	chunks := Chunk(text, size)
	analysis := b.analyzeChunks(ctx, name, chunks)
	summary := b.summarize(ctx, name, analysis)

	return types.KnowledgeRecord{
		ID:          knowledge.RecordID(name),
		Title:       knowledge.TitleFromFilename(name),
		Filename:    name,
		Summary:     summary,
		KeyConcepts: analysis.KeyConcepts,
		Frameworks:  analysis.Frameworks,
		ProcessedAt: b.now().UTC(),
		ContentHash: ContentHash(text),
	}, nil
}

// analyzeChunks runs one generation call per chunk. A failed or unparsable
// chunk contributes nothing.
func (b *Builder) analyzeChunks(ctx context.Context, filename string, chunks []string) Analysis {
	results := make([]Analysis, len(chunks))

	limit := b.Config.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, chunk := range chunks {
		g.Go(func() error {
			prompt, err := render(chunkPromptTmpl, chunkPromptData{
				Filename: filename, Index: i + 1, Count: len(chunks), Text: chunk,
			})
			if err != nil {
				return nil
			}
			text, err := b.Generator.Complete(ctx, prompt, generate.Options{
				System:          digestSystem,
				Temperature:     chunkTemperature,
				MaxOutputTokens: chunkMaxTokens,
			})
			if err != nil {
				b.logger().Warn().Err(err).Str("file", filename).Int("chunk", i+1).Msg("chunk analysis failed")
				return nil
			}
			results[i] = generate.DecodeJSON(text, Analysis{})
			return nil
		})
	}
	_ = g.Wait()

	return Merge(results)
}

func (b *Builder) summarize(ctx context.Context, filename string, a Analysis) string {
	prompt, err := render(summaryPromptTmpl, summaryPromptData{Filename: filename, Analysis: a})
	if err != nil {
		return SummaryFailed
	}
	text, err := b.Generator.Complete(ctx, prompt, generate.Options{
		System:          summarySystem,
		Temperature:     summaryTemperature,
		MaxOutputTokens: summaryMaxTokens,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		b.logger().Warn().Err(err).Str("file", filename).Msg("summary generation failed")
		return SummaryFailed
	}
	return strings.TrimSpace(text)
}

// Merge combines chunk analyses, dropping blanks and exact duplicates and
// sorting each list.
func Merge(parts []Analysis) Analysis {
	var out Analysis
	for _, p := range parts {
		out.KeyConcepts = append(out.KeyConcepts, p.KeyConcepts...)
		out.Frameworks = append(out.Frameworks, p.Frameworks...)
		out.Strategies = append(out.Strategies, p.Strategies...)
		out.CaseStudies = append(out.CaseStudies, p.CaseStudies...)
		out.Insights = append(out.Insights, p.Insights...)
	}
	out.KeyConcepts = uniqueSorted(out.KeyConcepts)
	out.Frameworks = uniqueSorted(out.Frameworks)
	out.Strategies = uniqueSorted(out.Strategies)
	out.CaseStudies = uniqueSorted(out.CaseStudies)
	out.Insights = uniqueSorted(out.Insights)
	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ContentHash returns the hex SHA-256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
