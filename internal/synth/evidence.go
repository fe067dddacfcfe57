// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

const (
	defaultEvidenceBudget  = 6000
	defaultPriorBudget     = 8000
	defaultKnowledgeBudget = 6000

	// TruncationMarker ends text cut to a budget.
	TruncationMarker = "…[truncated]"
)

// FormatEvidence serializes the named topics of bundle as numbered lines in
// topic order. An empty topics list selects every topic, sorted.
func FormatEvidence(bundle types.EvidenceBundle, topics []string) string {
	if len(topics) == 0 {
		topics = bundle.TopicNames()
	}
	var b strings.Builder
	for _, topic := range topics {
		items := bundle.Topics[topic]
		fmt.Fprintf(&b, "### %s\n", topic)
		if len(items) == 0 {
			b.WriteString("(no evidence found)\n\n")
			continue
		}
		for i, it := range items {
			fmt.Fprintf(&b, "%d. [%s] %s — %s", i+1, it.Source, it.Title, oneLine(it.Snippet))
			if it.URL != "" {
				fmt.Fprintf(&b, " (%s)", it.URL)
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Truncate keeps the leading runes of s and marks the cut. The marker is
// counted against max.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(TruncationMarker)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + TruncationMarker
}

func budget(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
