// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import "strings"

// Chunk splits text into pieces of at most size runes. Pieces break at
// Markdown heading lines where possible; a single section longer than size
// is cut at line boundaries, and a single line longer than size is cut hard.
func Chunk(text string, size int) []string {
	if size <= 0 || len([]rune(text)) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			chunks = append(chunks, cur.String())
		}
		cur.Reset()
		curLen = 0
	}
	add := func(piece string) {
		n := len([]rune(piece))
		if curLen+n > size {
			flush()
		}
		for n > size {
			r := []rune(piece)
			chunks = append(chunks, string(r[:size]))
			piece = string(r[size:])
			n -= size
		}
		cur.WriteString(piece)
		curLen += n
	}

	for _, sec := range sections(text) {
		if curLen+len([]rune(sec)) <= size {
			cur.WriteString(sec)
			curLen += len([]rune(sec))
			continue
		}
		flush()
		for _, line := range strings.SplitAfter(sec, "\n") {
			add(line)
		}
	}
	flush()
	return chunks
}

// sections splits text before every Markdown heading line.
func sections(text string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
