// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/pdiddy/brief-analyst/internal/generate"
)

// MaxGeneratedQueries caps generated queries per topic regardless of what
// the plan or the generation service asks for.
const MaxGeneratedQueries = 5

var proposePromptTmpl = template.Must(template.New("propose").Parse(`You are a research assistant planning web and database searches.

Business brief:
"{{.Brief}}"

Propose {{.N}} concise search queries (at most 12 words each) that would find evidence about the {{.Topic}} of this business.
Return only the queries as a comma-separated list on one line. Do not number them or add commentary.
`))

// QueryGenerator asks the generation service for topic search terms.
type QueryGenerator struct {
	Generator generate.Generator
	Logger    *zerolog.Logger
}

// Propose returns up to min(n, MaxGeneratedQueries) distinct queries for
// topic. A generation failure yields no queries and is logged, never
// returned.
func (q *QueryGenerator) Propose(ctx context.Context, brief, topic string, n int) []string {
	if n <= 0 || q == nil || q.Generator == nil {
		return nil
	}
	if n > MaxGeneratedQueries {
		n = MaxGeneratedQueries
	}

	var buf bytes.Buffer
	if err := proposePromptTmpl.Execute(&buf, struct {
		Brief, Topic string
		N            int
	}{Brief: brief, Topic: topicPhrase(topic), N: n}); err != nil {
		return nil
	}

	text, err := q.Generator.Complete(ctx, buf.String(), generate.Options{Temperature: 0.3, MaxOutputTokens: 200})
	if err != nil {
		if q.Logger != nil {
			q.Logger.Warn().Err(err).Str("topic", topic).Msg("query generation failed; using templated queries only")
		}
		return nil
	}
	return ParseQueryList(text, n)
}

// ParseQueryList splits a generated list into queries. Multi-line text is
// split on lines, a single line on commas. In multi-line text, lines ending
// in a colon are headings, and when some lines are bulleted or numbered the
// unmarked ones are commentary; both are dropped. Bullets, numbering, and
// quotes are stripped, duplicates dropped case-insensitively, and the result
// capped at max.
func ParseQueryList(text string, max int) []string {
	var parts []string
	lines := nonEmptyLines(text)
	if len(lines) > 1 {
		parts = listLines(lines)
	} else {
		parts = strings.Split(text, ",")
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		p = cleanQuery(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// listLines keeps the list entries of a multi-line reply.
func listLines(lines []string) []string {
	marked := false
	for _, l := range lines {
		if _, ok := stripMarker(l); ok {
			marked = true
			break
		}
	}
	var out []string
	for _, l := range lines {
		if strings.HasSuffix(strings.TrimSpace(l), ":") {
			continue
		}
		if _, ok := stripMarker(l); marked && !ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

// stripMarker removes a leading bullet or "1." / "2)" numbering and reports
// whether one was present.
func stripMarker(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t := strings.TrimLeft(s, "-*•·"); t != s {
		return strings.TrimSpace(t), true
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:]), true
	}
	return s, false
}

func cleanQuery(s string) string {
	s, _ = stripMarker(s)
	s = strings.Trim(s, "\"'`“”‘’")
	return strings.Join(strings.Fields(s), " ")
}

func topicPhrase(topic string) string {
	return strings.ReplaceAll(topic, "_", " ")
}
