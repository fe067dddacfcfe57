// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report formats synthesized narrative, ranked evidence, and run
// metadata into the delivered document. It makes no network or generation
// calls and reads no clock: identical inputs render identical bytes.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

const (
	// CitationsHeading opens the citations section.
	CitationsHeading = "## Sources & Methodology"

	metadataHeading = "### Analysis Metadata"

	defaultCitationsPerTopic = 8
	defaultSnippetLength     = 150
)

// topicHeadingPattern matches "### <Topic Title> (<n>)".
var topicHeadingPattern = regexp.MustCompile(`(?m)^### (.+) \((\d+)\)$`)

// Assemble appends the citations section and metadata block to narrative.
// Topic counts, the total, and failed lookups are taken from bundle; the
// remaining metadata fields are used as given.
func Assemble(narrative string, bundle types.EvidenceBundle, meta types.RunMetadata, cfg types.ReportConfig) types.Report {
	perTopic := cfg.CitationsPerTopic
	if perTopic <= 0 {
		perTopic = defaultCitationsPerTopic
	}
	snippetLen := cfg.SnippetLength
	if snippetLen <= 0 {
		snippetLen = defaultSnippetLength
	}

	meta.TopicCounts = make(map[string]int, len(bundle.Topics))
	meta.TotalSources = 0
	for topic, items := range bundle.Topics {
		meta.TopicCounts[topic] = len(items)
		meta.TotalSources += len(items)
	}
	meta.FailedLookups = nil
	for topic, errs := range bundle.Failures {
		if len(errs) == 0 {
			continue
		}
		if meta.FailedLookups == nil {
			meta.FailedLookups = make(map[string]int)
		}
		meta.FailedLookups[topic] = len(errs)
	}

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(CitationsHeading)
	b.WriteString("\n\n")
	b.WriteString("Evidence was gathered concurrently from public search, case-law, government-document, and company-filing providers, scored for relevance, and ranked per topic. Failed lookups are counted below and never cited.\n")

	for _, topic := range bundle.TopicNames() {
		items := bundle.Topics[topic]
		fmt.Fprintf(&b, "\n### %s (%d)\n\n", TopicTitle(topic), len(items))
		if len(items) == 0 {
			b.WriteString("_No qualifying sources._\n")
			continue
		}
		for i, it := range items {
			if i == perTopic {
				break
			}
			writeCitation(&b, it, snippetLen)
		}
		if len(items) > perTopic {
			fmt.Fprintf(&b, "_%d more sources not listed._\n", len(items)-perTopic)
		}
	}

	writeMetadata(&b, meta)

	return types.Report{
		Kind:      meta.Kind,
		Narrative: strings.TrimRight(narrative, "\n"),
		Citations: b.String(),
		Metadata:  meta,
	}
}

func writeCitation(b *strings.Builder, it types.EvidenceItem, snippetLen int) {
	fmt.Fprintf(b, "- **%s**: %s\n", it.Source, it.Title)
	if it.URL != "" {
		fmt.Fprintf(b, "  %s\n", it.URL)
	}
	if s := clip(it.Snippet, snippetLen); s != "" {
		fmt.Fprintf(b, "  > %s\n", s)
	}
	fmt.Fprintf(b, "  Relevance: %d (%s)\n", it.RelevanceScore, it.QualityTier)
}

func writeMetadata(b *strings.Builder, meta types.RunMetadata) {
	fmt.Fprintf(b, "\n%s\n\n", metadataHeading)
	if meta.RunID != "" {
		fmt.Fprintf(b, "- Run ID: %s\n", meta.RunID)
	}
	if meta.Kind != "" {
		fmt.Fprintf(b, "- Report type: %s\n", meta.Kind)
	}
	if !meta.Timestamp.IsZero() {
		fmt.Fprintf(b, "- Analysis date: %s\n", meta.Timestamp.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(b, "- Sources by topic: %s\n", formatCounts(meta.TopicCounts))
	fmt.Fprintf(b, "- Total sources analyzed: %d\n", meta.TotalSources)

	failed := 0
	for _, n := range meta.FailedLookups {
		failed += n
	}
	if failed > 0 {
		fmt.Fprintf(b, "- Failed lookups: %d (%s)\n", failed, formatCounts(meta.FailedLookups))
	} else {
		b.WriteString("- Failed lookups: 0\n")
	}

	if len(meta.DegradedStages) > 0 {
		fmt.Fprintf(b, "- Degraded stages: %s\n", strings.Join(meta.DegradedStages, ", "))
	} else {
		b.WriteString("- Degraded stages: none\n")
	}
}

// formatCounts renders counts as "a=1, b=2" in key order.
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

// clip collapses whitespace and cuts s to max runes, marking the cut.
func clip(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimRight(string([]rune(s)[:max]), " ") + "…"
}

// TopicTitle turns a topic key such as "market_sizing" into "Market Sizing".
func TopicTitle(topic string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(topic, "_", " "))
}

// topicKey inverts TopicTitle for lower snake-case keys.
func topicKey(title string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "_")
}

// ParseTopicCounts reads the per-topic counts back out of a rendered
// citations section, keyed by topic.
func ParseTopicCounts(text string) map[string]int {
	if i := strings.LastIndex(text, CitationsHeading); i >= 0 {
		text = text[i:]
	}
	counts := make(map[string]int)
	for _, m := range topicHeadingPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		counts[topicKey(m[1])] = n
	}
	return counts
}

// Render returns the full document with a title line.
func Render(r types.Report) string {
	title := "Business Analysis"
	if r.Kind != "" {
		title = TopicTitle(string(r.Kind)) + " Analysis"
	}
	return "# " + title + "\n\n" + r.Text() + "\n"
}
