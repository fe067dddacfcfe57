// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

// FormatTable writes a ranked, per-topic table of bundle to w.
func FormatTable(bundle types.EvidenceBundle, w io.Writer) {
	if bundle.Total() == 0 && bundle.FailureCount() == 0 {
		fmt.Fprintln(w, "No evidence found.")
		return
	}

	for _, topic := range bundle.TopicNames() {
		items := bundle.Topics[topic]
		fmt.Fprintf(w, "%s (%d)\n", topic, len(items))
		fmt.Fprintf(w, "%-4s  %-60s  %-18s  %-5s  %s\n", "Rank", "Title", "Source", "Score", "Tier")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for i, item := range items {
			fmt.Fprintf(w, "%-4d  %-60s  %-18s  %-5d  %s\n",
				i+1, truncate(item.Title, 60), truncate(item.Source, 18), item.RelevanceScore, item.QualityTier)
		}
		if errs := bundle.Failures[topic]; len(errs) > 0 {
			fmt.Fprintf(w, "  %d failed lookups\n", len(errs))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d sources across %d topics", bundle.Total(), len(bundle.Topics))
	if n := bundle.FailureCount(); n > 0 {
		fmt.Fprintf(w, " (%d failed lookups)", n)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
