// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/brief-analyst/internal/container"
)

// DefaultImage is the markitdown image used when none is configured.
const DefaultImage = "markitdown:latest"

var blankRuns = regexp.MustCompile(`\n{3,}`)

// MarkitdownConverter converts PDFs by streaming them through a markitdown
// container with no network access.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownConverter checks that image (DefaultImage when empty) is
// present in rt.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("PDF converter unavailable: %w", err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Convert returns the Markdown text of the PDF at path with page breaks
// removed and blank-line runs collapsed.
func (m *MarkitdownConverter) Convert(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, container.Job{Image: m.image, Stdin: f, Stdout: &out}); err != nil {
		return "", fmt.Errorf("converting %s: %w", path, err)
	}
	text := normalize(out.String())
	if text == "" {
		return "", fmt.Errorf("%s produced no text for %s", m.image, path)
	}
	return text, nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
