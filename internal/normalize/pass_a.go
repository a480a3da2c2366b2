package normalize

import (
	"regexp"
	"strings"
)

var goLineRe = regexp.MustCompile(`(?i)^GO\s*;?$`)

// passA is line normalization: CRLF/CR folded to LF, leading/trailing blank
// lines dropped, and a trailing GO batch separator (plus any blank lines
// that trail it) dropped. It never errors and is idempotent on its output.
func passA(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	lines = dropLeadingBlank(lines)
	lines = dropTrailingBlank(lines)

	if len(lines) > 0 && goLineRe.MatchString(strings.TrimSpace(lines[len(lines)-1])) {
		lines = lines[:len(lines)-1]
		lines = dropTrailingBlank(lines)
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func dropLeadingBlank(lines []string) []string {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return lines[i:]
}

func dropTrailingBlank(lines []string) []string {
	j := len(lines)
	for j > 0 && strings.TrimSpace(lines[j-1]) == "" {
		j--
	}
	return lines[:j]
}
