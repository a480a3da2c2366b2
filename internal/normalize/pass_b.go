package normalize

import "strings"

// passB collapses intra-line whitespace: trailing whitespace is trimmed,
// the leading run of spaces/tabs is preserved exactly, and any later run of
// spaces/tabs is collapsed to a single space.
func passB(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = normalizeLineWhitespace(line)
	}
	return strings.Join(lines, "\n")
}

func normalizeLineWhitespace(line string) string {
	line = strings.TrimRight(line, " \t")

	leadEnd := 0
	for leadEnd < len(line) && (line[leadEnd] == ' ' || line[leadEnd] == '\t') {
		leadEnd++
	}
	lead, rest := line[:leadEnd], line[leadEnd:]

	var b strings.Builder
	b.Grow(len(rest))
	inRun := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == ' ' || c == '\t' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(c)
	}
	return lead + b.String()
}
