// Package identifier parses dotted T-SQL object name chains
// ([A].[B].[C], A.B.C, or any mix of bracketed/quoted/bare tokens)
// starting at a given offset into a larger script.
package identifier

import "strings"

var terminators = map[string]bool{
	"AS": true, "ON": true, "WITH": true, "FOR": true, "AFTER": true,
	"INSTEAD": true, "RETURNS": true, "BEGIN": true, "END": true,
	"WITHOUT": true, "FROM": true, "DEFAULT_SCHEMA": true, "AUTHORIZATION": true,
}

func isBareStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isBareCont(r byte) bool {
	return isBareStart(r) || (r >= '0' && r <= '9')
}

// Chain parses a dotted identifier chain starting at offset in text,
// returning the element tokens (unbracketed/unquoted content) and the
// offset immediately after the chain.
func Chain(text string, offset int) (elements []string, end int) {
	i := offset
	n := len(text)

	for {
		for i < n && (text[i] == ' ' || text[i] == '\t' || text[i] == '\r' || text[i] == '\n') {
			i++
		}
		if i >= n {
			break
		}

		switch text[i] {
		case '[':
			close := strings.IndexByte(text[i+1:], ']')
			if close < 0 {
				return elements, i
			}
			elements = append(elements, text[i+1:i+1+close])
			i = i + 1 + close + 1
		case '"':
			close := strings.IndexByte(text[i+1:], '"')
			if close < 0 {
				return elements, i
			}
			elements = append(elements, text[i+1:i+1+close])
			i = i + 1 + close + 1
		default:
			if !isBareStart(text[i]) {
				return elements, i
			}
			j := i + 1
			for j < n && isBareCont(text[j]) {
				j++
			}
			token := text[i:j]
			if terminators[strings.ToUpper(token)] {
				return elements, i
			}
			elements = append(elements, token)
			i = j
		}

		// A following '.' continues the chain; anything else terminates it.
		save := i
		for i < n && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i < n && text[i] == '.' {
			i++
			continue
		}
		i = save
		return elements, i
	}
	return elements, i
}

// Last returns the final element of the chain starting at offset, or ""
// if the chain is empty.
func Last(text string, offset int) string {
	elements, _ := Chain(text, offset)
	if len(elements) == 0 {
		return ""
	}
	return elements[len(elements)-1]
}

// After finds keyword (case-insensitive, whole word) starting the search at
// offset and returns the chain immediately following it. ok is false if
// keyword does not occur.
func After(text string, offset int, keyword string) (elements []string, ok bool) {
	idx := findKeyword(text, offset, keyword)
	if idx < 0 {
		return nil, false
	}
	elements, _ = Chain(text, idx+len(keyword))
	return elements, true
}

func findKeyword(text string, offset int, keyword string) int {
	upper := strings.ToUpper(text)
	kw := strings.ToUpper(keyword)
	pos := offset
	for pos < len(upper) {
		idx := strings.Index(upper[pos:], kw)
		if idx < 0 {
			return -1
		}
		abs := pos + idx
		before := abs == 0 || !isBareCont(text[abs-1])
		afterIdx := abs + len(kw)
		after := afterIdx >= len(text) || !isBareCont(text[afterIdx])
		if before && after {
			return abs
		}
		pos = abs + 1
	}
	return -1
}
