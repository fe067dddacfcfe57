// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const digestSystem = "You are a marketing expert. Always respond with a valid JSON object."

const summarySystem = "You are a marketing expert. Provide a clear, concise summary."

var chunkPromptTmpl = template.Must(template.New("chunk").Parse(`You are a marketing expert analyzing a section of the book "{{.Filename}}".

Analyze this content and extract:
1. Key marketing concepts and principles
2. Frameworks, models, or methodologies mentioned
3. Actionable strategies or tactics
4. Case studies or examples (brief summaries)
5. Important insights or takeaways

Book content section {{.Index}}/{{.Count}}:
{{.Text}}

Respond with ONLY a JSON object in this exact format:
{"key_concepts": ["concept1"], "frameworks": ["framework1"], "strategies": ["strategy1"], "case_studies": ["case1"], "insights": ["insight1"]}

Do not include any text before or after the JSON.
`))

var summaryPromptTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"join": func(s []string) string { return strings.Join(s, ", ") },
}).Parse(`Based on the analysis of the marketing book "{{.Filename}}", write a summary.

Key concepts found: {{join .KeyConcepts}}
Frameworks found: {{join .Frameworks}}
Strategies found: {{join .Strategies}}

Write a 2-3 paragraph summary of the book's main marketing insights and value. Focus on the concepts and frameworks that apply to real-world marketing decisions.
`))

type chunkPromptData struct {
	Filename string
	Index    int
	Count    int
	Text     string
}

type summaryPromptData struct {
	Filename string
	Analysis
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
