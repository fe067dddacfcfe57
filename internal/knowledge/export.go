// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// exportFile is the on-disk form used by ExportYAML and ImportYAML.
type exportFile struct {
	Records []types.KnowledgeRecord `yaml:"records"`
}

// ExportYAML writes every record to path.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(&exportFile{Records: recs})
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ImportYAML loads records produced elsewhere (for example by ExportYAML on
// another machine) and returns how many were stored. Records without an ID
// get one derived from their filename.
func (s *Store) ImportYAML(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	var f exportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range f.Records {
		r := &f.Records[i]
		if r.Filename == "" {
			r.Filename = r.Title
		}
		if r.ID == "" {
			r.ID = RecordID(r.Filename)
		}
		if r.Title == "" {
			r.Title = TitleFromFilename(r.Filename)
		}
	}
	if err := s.PutAll(ctx, f.Records); err != nil {
		return 0, err
	}
	return len(f.Records), nil
}

// RecordID derives a stable record ID from a document filename.
func RecordID(filename string) string {
	sum := sha256.Sum256([]byte(filepath.Base(filename)))
	return hex.EncodeToString(sum[:])[:16]
}

// TitleFromFilename returns the filename without directory or extension.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
