// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns reference documents into Markdown text for digestion.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported reports a file extension no converter handles.
var ErrUnsupported = errors.New("unsupported document type")

// Converter transforms a document into Markdown text.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Supported lists the extensions ForPath recognizes.
var Supported = []string{".pdf", ".md", ".markdown", ".txt"}

// PlainTextConverter reads Markdown and text files as they are.
type PlainTextConverter struct{}

// Convert returns the file's contents.
func (PlainTextConverter) Convert(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Set selects a converter per file extension. PDF is nil when no container
// runtime is available, in which case PDFs are unsupported.
type Set struct {
	PDF  Converter
	Text Converter
}

// ForPath returns the converter for path's extension.
func (s Set) ForPath(path string) (Converter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if s.PDF == nil {
			return nil, fmt.Errorf("%w: %s (no PDF converter configured)", ErrUnsupported, filepath.Base(path))
		}
		return s.PDF, nil
	case ".md", ".markdown", ".txt":
		if s.Text == nil {
			return PlainTextConverter{}, nil
		}
		return s.Text, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

// Convert dispatches path to the converter for its extension.
func (s Set) Convert(ctx context.Context, path string) (string, error) {
	c, err := s.ForPath(path)
	if err != nil {
		return "", err
	}
	return c.Convert(ctx, path)
}

// IsSupported reports whether path has a recognized extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range Supported {
		if ext == s {
			return true
		}
	}
	return false
}
