// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Default limits for Cache.Summary.
const (
	DefaultMaxConcepts   = 20
	DefaultMaxFrameworks = 15
)

// Cache is an immutable snapshot of the store, loaded once and shared
// read-only by analysis runs.
type Cache struct {
	records []types.KnowledgeRecord
}

// Info describes a cache snapshot.
type Info struct {
	Records       int       `json:"records"`
	Concepts      int       `json:"unique_concepts"`
	Frameworks    int       `json:"unique_frameworks"`
	Titles        []string  `json:"titles"`
	LastProcessed time.Time `json:"last_processed,omitempty"`
}

// Load reads every record into a snapshot.
func (s *Store) Load(ctx context.Context) (*Cache, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge cache: %w", err)
	}
	return NewCache(recs), nil
}

// NewCache builds a snapshot from recs. The slice is copied.
func NewCache(recs []types.KnowledgeRecord) *Cache {
	return &Cache{records: append([]types.KnowledgeRecord(nil), recs...)}
}

// Len returns the number of records. A nil cache is empty.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Records returns a copy of the snapshot's records.
func (c *Cache) Records() []types.KnowledgeRecord {
	if c == nil {
		return nil
	}
	return append([]types.KnowledgeRecord(nil), c.records...)
}

// Summary renders the prompt block listing up to maxConcepts concepts and
// maxFrameworks frameworks, in first-seen order, followed by each record's
// summary. An empty cache renders nothing.
func (c *Cache) Summary(maxConcepts, maxFrameworks int) string {
	if c.Len() == 0 {
		return ""
	}
	var concepts, frameworks []string
	for _, r := range c.records {
		concepts = append(concepts, r.KeyConcepts...)
		frameworks = append(frameworks, r.Frameworks...)
	}
	concepts = firstUnique(concepts, maxConcepts)
	frameworks = firstUnique(frameworks, maxFrameworks)

	var b strings.Builder
	b.WriteString("MARKETING KNOWLEDGE BASE SUMMARY\n\n")
	fmt.Fprintf(&b, "Books processed: %d\n\n", len(c.records))
	fmt.Fprintf(&b, "Key marketing concepts available:\n%s\n\n", strings.Join(concepts, ", "))
	fmt.Fprintf(&b, "Marketing frameworks available:\n%s\n\n", strings.Join(frameworks, ", "))
	b.WriteString("Book summaries:\n")
	for _, r := range c.records {
		fmt.Fprintf(&b, "**%s**: %s\n", r.Title, strings.TrimSpace(r.Summary))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Info reports counts for the snapshot.
func (c *Cache) Info() Info {
	var info Info
	if c.Len() == 0 {
		return info
	}
	var concepts, frameworks []string
	for _, r := range c.records {
		info.Titles = append(info.Titles, r.Title)
		concepts = append(concepts, r.KeyConcepts...)
		frameworks = append(frameworks, r.Frameworks...)
		if r.ProcessedAt.After(info.LastProcessed) {
			info.LastProcessed = r.ProcessedAt
		}
	}
	info.Records = len(c.records)
	info.Concepts = len(firstUnique(concepts, 0))
	info.Frameworks = len(firstUnique(frameworks, 0))
	return info
}

// firstUnique drops case-insensitive duplicates and blanks, keeping the first
// spelling seen, and caps the result at max when max > 0.
func firstUnique(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
