// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// KnowledgeRecord is a precomputed digest of one reference document stored
// in the knowledge cache. The analysis core reads records; only the digest
// builder and importer write them.
type KnowledgeRecord struct {
	// ID is a stable identifier derived from the filename.
	ID string `json:"id" yaml:"id"`

	// Title is the document title (the filename stem by default).
	Title string `json:"title" yaml:"title"`

	// Filename is the source document's base name.
	Filename string `json:"filename" yaml:"filename"`

	// Summary is a short prose summary of the document's main insights.
	Summary string `json:"summary" yaml:"summary"`

	// KeyConcepts lists the concepts found in the document.
	KeyConcepts []string `json:"key_concepts" yaml:"key_concepts"`

	// Frameworks lists the named frameworks or models found in the document.
	Frameworks []string `json:"frameworks" yaml:"frameworks"`

	// ProcessedAt is when the digest was produced.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`

	// ContentHash is the hex SHA-256 of the converted document text.
	ContentHash string `json:"content_hash" yaml:"content_hash"`
}
