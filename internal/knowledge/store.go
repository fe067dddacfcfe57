// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists digests of reference documents in SQLite and
// exposes a read-only snapshot of them to the analysis core.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

const defaultDBPath = "knowledge/cache.db"

// ErrNotFound reports a record that is not in the store.
var ErrNotFound = errors.New("knowledge record not found")

// Store manages the knowledge cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.DBPath and its schema.
func Open(cfg types.KnowledgeConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			filename TEXT NOT NULL UNIQUE,
			summary TEXT,
			key_concepts TEXT,
			frameworks TEXT,
			processed_at TEXT,
			content_hash TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_hash ON records(content_hash)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces rec, keyed by ID.
func (s *Store) Put(ctx context.Context, rec types.KnowledgeRecord) error {
	if rec.ID == "" || rec.Filename == "" {
		return fmt.Errorf("record needs an id and filename")
	}
	concepts, _ := json.Marshal(nonNil(rec.KeyConcepts))
	frameworks, _ := json.Marshal(nonNil(rec.Frameworks))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, title, filename, summary, key_concepts, frameworks, processed_at, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, filename=excluded.filename, summary=excluded.summary,
			key_concepts=excluded.key_concepts, frameworks=excluded.frameworks,
			processed_at=excluded.processed_at, content_hash=excluded.content_hash`,
		rec.ID, rec.Title, rec.Filename, rec.Summary, string(concepts), string(frameworks),
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano), rec.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("storing record %s: %w", rec.ID, err)
	}
	return nil
}

// PutAll stores recs in one transaction.
func (s *Store) PutAll(ctx context.Context, recs []types.KnowledgeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (id, title, filename, summary, key_concepts, frameworks, processed_at, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if rec.ID == "" || rec.Filename == "" {
			return fmt.Errorf("record %q needs an id and filename", rec.Title)
		}
		concepts, _ := json.Marshal(nonNil(rec.KeyConcepts))
		frameworks, _ := json.Marshal(nonNil(rec.Frameworks))
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, rec.Filename, rec.Summary, string(concepts), string(frameworks),
			rec.ProcessedAt.UTC().Format(time.RFC3339Nano), rec.ContentHash,
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

const selectRecord = `SELECT id, title, filename, summary, key_concepts, frameworks, processed_at, content_hash FROM records`

// Get returns the record with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.KnowledgeRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.KnowledgeRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns every record ordered by title.
func (s *Store) List(ctx context.Context) ([]types.KnowledgeRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []types.KnowledgeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Has reports whether a document with filename has been digested. When hash
// is non-empty the stored content hash must also match.
func (s *Store) Has(ctx context.Context, filename, hash string) (bool, error) {
	var stored sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM records WHERE filename = ?`, filename).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", filename, err)
	}
	return hash == "" || stored.String == hash, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.KnowledgeRecord, error) {
	var (
		rec        types.KnowledgeRecord
		summary    sql.NullString
		concepts   sql.NullString
		frameworks sql.NullString
		processed  sql.NullString
		hash       sql.NullString
	)
	if err := sc.Scan(&rec.ID, &rec.Title, &rec.Filename, &summary, &concepts, &frameworks, &processed, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning record: %w", err)
	}
	rec.Summary = summary.String
	rec.ContentHash = hash.String
	if concepts.Valid && concepts.String != "" {
		_ = json.Unmarshal([]byte(concepts.String), &rec.KeyConcepts)
	}
	if frameworks.Valid && frameworks.String != "" {
		_ = json.Unmarshal([]byte(frameworks.String), &rec.Frameworks)
	}
	if processed.Valid {
		if t, err := time.Parse(time.RFC3339Nano, processed.String); err == nil {
			rec.ProcessedAt = t
		}
	}
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
