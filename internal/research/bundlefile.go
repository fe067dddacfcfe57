// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// BundleFile is the on-disk snapshot of a research run. A saved bundle can
// be synthesized later without querying the providers again.
type BundleFile struct {
	Brief  string               `yaml:"brief"`
	Kind   types.ReportKind     `yaml:"kind"`
	Plan   string               `yaml:"plan,omitempty"`
	Ticker string               `yaml:"ticker,omitempty"`
	Bundle types.EvidenceBundle `yaml:"bundle"`
}

// WriteBundleFile saves bf as YAML.
func WriteBundleFile(path string, bf BundleFile) error {
	data, err := yaml.Marshal(&bf)
	if err != nil {
		return fmt.Errorf("marshaling bundle file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle file %s: %w", path, err)
	}
	return nil
}

// ReadBundleFile loads a bundle saved by WriteBundleFile.
func ReadBundleFile(path string) (BundleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BundleFile{}, fmt.Errorf("reading bundle file %s: %w", path, err)
	}
	var bf BundleFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return BundleFile{}, fmt.Errorf("parsing bundle file %s: %w", path, err)
	}
	if bf.Bundle.Topics == nil {
		bf.Bundle.Topics = map[string][]types.EvidenceItem{}
	}
	return bf, nil
}
