// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.KnowledgeConfig{DBPath: filepath.Join(t.TempDir(), "kb", "cache.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.KnowledgeRecord {
	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	return []types.KnowledgeRecord{
		{
			ID: RecordID("positioning.pdf"), Title: "Positioning", Filename: "positioning.pdf",
			Summary:     "Own a single word in the prospect's mind.",
			KeyConcepts: []string{"positioning", "brand ladder", "Category creation"},
			Frameworks:  []string{"Ladder of the mind"},
			ProcessedAt: at, ContentHash: "aaa",
		},
		{
			ID: RecordID("crossing.epub"), Title: "Crossing the Chasm", Filename: "crossing.epub",
			Summary:     "Early markets and mainstream markets need different strategies.",
			KeyConcepts: []string{"beachhead segment", "category creation", "whole product"},
			Frameworks:  []string{"Technology adoption life cycle", "Ladder of the mind"},
			ProcessedAt: at.Add(time.Hour), ContentHash: "bbb",
		},
	}
}

func TestStorePutGetList(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for _, r := range sampleRecords() {
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := s.Get(ctx, RecordID("positioning.pdf"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Positioning" || len(got.KeyConcepts) != 3 || got.ContentHash != "aaa" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.ProcessedAt.Equal(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("ProcessedAt = %v", got.ProcessedAt)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Crossing the Chasm" {
		t.Errorf("List should be ordered by title, got %d records starting with %q", len(list), list[0].Title)
	}
}

func TestStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	r := sampleRecords()[0]
	if err := s.Put(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Summary = "updated"
	r.KeyConcepts = nil
	if err := s.Put(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary != "updated" || len(got.KeyConcepts) != 0 {
		t.Errorf("record not replaced: %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRejectsRecordWithoutID(t *testing.T) {
	s := testStore(t)
	if err := s.Put(context.Background(), types.KnowledgeRecord{Filename: "x.pdf"}); err == nil {
		t.Error("expected an error for a record without an id")
	}
}

func TestStoreHas(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	if err := s.PutAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	tests := []struct {
		filename, hash string
		want           bool
	}{
		{"positioning.pdf", "", true},
		{"positioning.pdf", "aaa", true},
		{"positioning.pdf", "changed", false},
		{"unknown.pdf", "", false},
	}
	for _, tt := range tests {
		got, err := s.Has(ctx, tt.filename, tt.hash)
		if err != nil {
			t.Fatalf("Has(%q): %v", tt.filename, err)
		}
		if got != tt.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tt.filename, tt.hash, got, tt.want)
		}
	}
}

func TestCacheSummary(t *testing.T) {
	c := NewCache(sampleRecords())
	got := c.Summary(4, 15)

	for _, want := range []string{
		"MARKETING KNOWLEDGE BASE SUMMARY",
		"Books processed: 2",
		"positioning, brand ladder, Category creation, beachhead segment",
		"Ladder of the mind, Technology adoption life cycle",
		"**Positioning**: Own a single word",
		"**Crossing the Chasm**: Early markets",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "whole product") {
		t.Error("concepts beyond the limit should be omitted")
	}
	if strings.Count(got, "Ladder of the mind") != 1 {
		t.Error("frameworks should be deduplicated")
	}
}

func TestCacheEmpty(t *testing.T) {
	var nilCache *Cache
	if nilCache.Summary(DefaultMaxConcepts, DefaultMaxFrameworks) != "" {
		t.Error("nil cache should summarize to nothing")
	}
	if NewCache(nil).Summary(DefaultMaxConcepts, DefaultMaxFrameworks) != "" {
		t.Error("empty cache should summarize to nothing")
	}
	if info := NewCache(nil).Info(); info.Records != 0 {
		t.Errorf("Info.Records = %d, want 0", info.Records)
	}
}

func TestCacheIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	if err := s.PutAll(ctx, sampleRecords()[:1]); err != nil {
		t.Fatal(err)
	}
	c, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Put(ctx, sampleRecords()[1]); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("snapshot changed after a write: Len = %d", c.Len())
	}

	recs := c.Records()
	recs[0].Title = "mutated"
	if c.Records()[0].Title != "Positioning" {
		t.Error("Records should return a copy")
	}
}

func TestCacheInfo(t *testing.T) {
	info := NewCache(sampleRecords()).Info()
	if info.Records != 2 {
		t.Errorf("Records = %d, want 2", info.Records)
	}
	if info.Concepts != 5 {
		t.Errorf("Concepts = %d, want 5", info.Concepts)
	}
	if info.Frameworks != 2 {
		t.Errorf("Frameworks = %d, want 2", info.Frameworks)
	}
	if !info.LastProcessed.Equal(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("LastProcessed = %v", info.LastProcessed)
	}
}

func TestExportImportYAML(t *testing.T) {
	ctx := context.Background()
	src := testStore(t)
	if err := src.PutAll(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	if err := src.ExportYAML(ctx, path); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	dst := testStore(t)
	n, err := dst.ImportYAML(ctx, path)
	if err != nil {
		t.Fatalf("ImportYAML: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d records, want 2", n)
	}
	got, err := dst.Get(ctx, RecordID("crossing.epub"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Frameworks) != 2 || got.Summary == "" {
		t.Errorf("unexpected imported record: %+v", got)
	}
}

func TestImportYAMLFillsIdentity(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.yaml")
	data := "records:\n  - filename: books/influence.pdf\n    summary: Six principles.\n    key_concepts: [reciprocity]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s := testStore(t)
	if _, err := s.ImportYAML(ctx, path); err != nil {
		t.Fatalf("ImportYAML: %v", err)
	}
	got, err := s.Get(ctx, RecordID("influence.pdf"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "influence" {
		t.Errorf("Title = %q, want influence", got.Title)
	}
}
