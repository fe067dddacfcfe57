// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pdiddy/brief-analyst/internal/evidence"
)

// ErrMalformedPlan reports a topic plan that cannot produce any research:
// it is empty, a topic names no adapters or no queries, or it references an
// adapter that does not exist.
var ErrMalformedPlan = errors.New("malformed topic plan")

// TopicPlan lists the research topics of a run.
type TopicPlan struct {
	// Name identifies the plan in bundle files and logs.
	Name string `yaml:"name"`

	// Ticker is exposed to query templates as {{.Ticker}}.
	Ticker string `yaml:"ticker,omitempty"`

	Topics []TopicSpec `yaml:"topics"`
}

// TopicSpec describes one research topic.
type TopicSpec struct {
	// Name is the topic key in the evidence bundle (e.g. "market_sizing").
	Name string `yaml:"name"`

	// Adapters lists the provider names every query of the topic is sent to.
	Adapters []string `yaml:"adapters"`

	// Queries are templated directly from the brief.
	Queries []QuerySpec `yaml:"queries,omitempty"`

	// Generate asks the generation service for this many extra queries.
	Generate int `yaml:"generate,omitempty"`
}

// QuerySpec is one templated query. Template sees {{.Brief}}, {{.Ticker}},
// {{.Year}}, and {{.NextYear}}.
type QuerySpec struct {
	Template string            `yaml:"template"`
	Label    string            `yaml:"label,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

// AdapterSource resolves provider names to adapters.
type AdapterSource interface {
	Get(name string) (evidence.Adapter, bool)
}

// Validate checks the plan's structure. When adapters is non-nil every
// adapter name must resolve through it.
func (p TopicPlan) Validate(adapters AdapterSource) error {
	if len(p.Topics) == 0 {
		return fmt.Errorf("%w: no topics", ErrMalformedPlan)
	}
	seen := make(map[string]bool, len(p.Topics))
	for i, t := range p.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: topic %d has no name", ErrMalformedPlan, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate topic %q", ErrMalformedPlan, t.Name)
		}
		seen[t.Name] = true
		if len(t.Adapters) == 0 {
			return fmt.Errorf("%w: topic %q references no adapters", ErrMalformedPlan, t.Name)
		}
		if len(t.Queries) == 0 && t.Generate <= 0 {
			return fmt.Errorf("%w: topic %q has no queries", ErrMalformedPlan, t.Name)
		}
		if adapters != nil {
			for _, name := range t.Adapters {
				if _, ok := adapters.Get(name); !ok {
					return fmt.Errorf("%w: topic %q references unknown adapter %q", ErrMalformedPlan, t.Name, name)
				}
			}
		}
		for _, q := range t.Queries {
			if _, err := template.New("query").Option("missingkey=error").Parse(q.Template); err != nil {
				return fmt.Errorf("%w: topic %q query template: %v", ErrMalformedPlan, t.Name, err)
			}
		}
	}
	return nil
}

// queryVars is the data passed to query templates.
type queryVars struct {
	Brief    string
	Ticker   string
	Year     int
	NextYear int
}

func renderQuery(tmpl string, vars queryVars) (string, error) {
	t, err := template.New("query").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// queryBriefLimit bounds how much of the brief is embedded in a search query.
const queryBriefLimit = 200

// shortenBrief returns the brief collapsed to one line and cut at a word
// boundary within queryBriefLimit runes.
func shortenBrief(brief string) string {
	s := strings.Join(strings.Fields(brief), " ")
	if utf8.RuneCountInString(s) <= queryBriefLimit {
		return s
	}
	runes := []rune(s)[:queryBriefLimit]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > queryBriefLimit/2 {
		cut = cut[:i]
	}
	return cut
}
