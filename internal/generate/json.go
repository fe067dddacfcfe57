// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the JSON document embedded in a completion. It tries,
// in order: the whole trimmed text, the first fenced code block, and the
// first balanced object or array. It returns "" when none is valid JSON.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if json.Valid([]byte(text)) {
		return text
	}
	if block, ok := fencedBlock(text); ok && json.Valid([]byte(block)) {
		return block
	}
	for i, r := range text {
		if r != '{' && r != '[' {
			continue
		}
		if end := balancedEnd(text[i:]); end > 0 {
			candidate := text[i : i+end]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return ""
}

// DecodeJSON unmarshals the JSON embedded in text into a T. Any failure
// yields fallback.
func DecodeJSON[T any](text string, fallback T) T {
	raw := ExtractJSON(text)
	if raw == "" {
		return fallback
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback
	}
	return v
}

func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedEnd returns the length of the bracketed value at the start of s,
// honoring string literals, or 0 when it never closes.
func balancedEnd(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}
