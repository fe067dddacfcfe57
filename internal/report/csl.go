// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/brief-analyst/internal/evidence"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form, consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID        string   `yaml:"id"`
	Type      string   `yaml:"type"`
	Title     string   `yaml:"title"`
	Publisher string   `yaml:"publisher,omitempty"`
	Authority string   `yaml:"authority,omitempty"`
	URL       string   `yaml:"URL,omitempty"`
	Abstract  string   `yaml:"abstract,omitempty"`
	Issued    *CSLDate `yaml:"issued,omitempty"`
	Note      string   `yaml:"note,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes every cited item of bundle as a CSL-YAML list, topics in
// sorted order.
func FormatCSL(bundle types.EvidenceBundle, w io.Writer) error {
	var items []CSLItem
	for _, topic := range bundle.TopicNames() {
		for i, it := range bundle.Topics[topic] {
			items = append(items, toCSLItem(topic, i, it))
		}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding CSL: %w", err)
	}
	return nil
}

func toCSLItem(topic string, rank int, it types.EvidenceItem) CSLItem {
	item := CSLItem{
		ID:       fmt.Sprintf("%s-%d", topic, rank+1),
		Type:     "webpage",
		Title:    it.Title,
		URL:      it.URL,
		Abstract: it.Snippet,
		Note:     fmt.Sprintf("relevance %d (%s)", it.RelevanceScore, it.QualityTier),
	}

	switch it.Provider {
	case evidence.ProviderCourtListener:
		item.Type = "legal_case"
		item.Authority = it.Source
	case evidence.ProviderGovInfo:
		item.Type = "legislation"
		item.Authority = "U.S. Government Publishing Office"
	case evidence.ProviderEDGAR:
		item.Type = "report"
		item.Publisher = "U.S. Securities and Exchange Commission"
	default:
		item.Publisher = it.Source
	}

	if it.PublishedDate != nil && !it.PublishedDate.IsZero() {
		d := *it.PublishedDate
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	}
	return item
}
