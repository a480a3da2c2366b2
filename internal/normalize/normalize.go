// Package normalize implements the multi-pass deterministic text
// canonicalization: Pass A (line shape), Pass B (intra-line whitespace),
// and Pass C (targeted rewrites), plus the supporting operations other
// packages build on (batch splitting, inline constraint stripping,
// index-comparison folding).
package normalize

import (
	"iter"
	"regexp"
	"strings"
)

// Normalize applies Pass A only: CRLF folding, blank-line trimming, and
// trailing GO-separator removal. It is the shape DDL is stored in before
// any comparison-specific rewriting happens.
func Normalize(text string) string {
	return passA(text)
}

// NormalizeForComparison applies all three passes and is the text whose
// SHA-256 hash backs every hash comparison in the system.
func NormalizeForComparison(text string) string {
	return passC(passB(passA(text)))
}

// TruncateAfterFirstGo returns the first batch of a multi-batch script:
// everything before the first GO-only line. Text with no GO separator is
// returned unchanged, shaped by the same blank-line rules as Pass A.
func TruncateAfterFirstGo(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")

	end := len(lines)
	for i, line := range lines {
		if goLineRe.MatchString(strings.TrimSpace(line)) {
			end = i
			break
		}
	}

	lines = dropLeadingBlank(lines[:end])
	lines = dropTrailingBlank(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// SplitBatches lazily yields each GO-separated batch of a script, in
// order, with the GO lines themselves excluded.
func SplitBatches(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		normalized := strings.ReplaceAll(text, "\r\n", "\n")
		normalized = strings.ReplaceAll(normalized, "\r", "\n")
		lines := strings.Split(normalized, "\n")

		var current []string
		for _, line := range lines {
			if goLineRe.MatchString(strings.TrimSpace(line)) {
				if !yield(strings.Join(current, "\n")) {
					return
				}
				current = current[:0]
				continue
			}
			current = append(current, line)
		}
		yield(strings.Join(current, "\n"))
	}
}

var interiorWhitespaceRe = regexp.MustCompile(`\s+`)

var (
	newlineBeforeOpenParenRe = regexp.MustCompile(`\s*\n\s*\(`)
	newlineAfterOpenParenRe  = regexp.MustCompile(`\(\s*\n\s*`)
)

// NormalizeIndexForComparison folds an index definition down to a single
// space-separated line after the normal comparison passes, so that an
// index's column list and included columns compare equal regardless of
// how the source script wrapped them across lines. Line breaks next to an
// opening paren are dropped rather than folded to a space, which keeps the
// result identical to the unwrapped form and stable under a second call.
func NormalizeIndexForComparison(text string) string {
	folded := NormalizeForComparison(text)
	folded = newlineBeforeOpenParenRe.ReplaceAllString(folded, "(")
	folded = newlineAfterOpenParenRe.ReplaceAllString(folded, "(")
	folded = interiorWhitespaceRe.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}
