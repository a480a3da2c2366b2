package normalize

import (
	"regexp"
	"strings"
)

var dropLeadingRe = regexp.MustCompile(`(?i)^(CONSTRAINT|PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE|CHECK|DEFAULT)\b`)
var inlineConstraintRe = regexp.MustCompile(`(?i)\bCONSTRAINT\b`)
var notNullRe = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
var nullOnlyRe = regexp.MustCompile(`(?i)\bNULL\b`)

// StripInlineConstraints removes table-level constraint lines (CONSTRAINT,
// PRIMARY KEY, FOREIGN KEY, UNIQUE, CHECK, DEFAULT) and column-level
// `CONSTRAINT ... DEFAULT (...)` segments from a CREATE TABLE body, so the
// file side's canonical text matches what the table reconstructor would
// produce from the same table.
func StripInlineConstraints(text string) string {
	openIdx := firstTopLevelOpenParen(text)
	if openIdx < 0 {
		return text
	}
	closeIdx := matchingParen(text, openIdx)
	if closeIdx < 0 {
		return text
	}

	body := text[openIdx+1 : closeIdx]
	lines := strings.Split(body, "\n")

	dropped := make([]bool, len(lines))
	rendered := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case dropLeadingRe.MatchString(trimmed):
			dropped[i] = true
		case inlineConstraintRe.MatchString(line):
			rendered[i] = stripColumnConstraint(line)
		default:
			rendered[i] = line
		}
	}

	firstDrop := -1
	for i, d := range dropped {
		if d {
			firstDrop = i
			break
		}
	}

	if firstDrop >= 0 {
		survives := false
		for i := firstDrop + 1; i < len(lines); i++ {
			if !dropped[i] && strings.TrimSpace(rendered[i]) != "" {
				survives = true
				break
			}
		}
		if !survives {
			for i := firstDrop - 1; i >= 0; i-- {
				if dropped[i] {
					continue
				}
				if strings.TrimSpace(rendered[i]) == "" {
					continue
				}
				rendered[i] = strings.TrimSuffix(strings.TrimRight(rendered[i], " \t"), ",")
				break
			}
		}
	}

	var kept []string
	for i := range lines {
		if dropped[i] {
			continue
		}
		kept = append(kept, rendered[i])
	}

	return text[:openIdx+1] + strings.Join(kept, "\n") + text[closeIdx:]
}

// stripColumnConstraint rewrites a column line that carries a non-leading
// `CONSTRAINT [name] DEFAULT (...)` segment down to its column prefix,
// re-appending a trailing nullability token and comma if either followed
// the default expression.
func stripColumnConstraint(line string) string {
	loc := inlineConstraintRe.FindStringIndex(line)
	prefix := strings.TrimRight(line[:loc[0]], " \t")
	remainder := line[loc[0]:]

	hasComma := strings.HasSuffix(strings.TrimRight(remainder, " \t"), ",")

	nullToken := ""
	if notNullRe.MatchString(remainder) {
		nullToken = "NOT NULL"
	} else if nullOnlyRe.MatchString(remainder) {
		nullToken = "NULL"
	}

	result := prefix
	if nullToken != "" {
		result += " " + nullToken
	}
	if hasComma {
		result += ","
	}
	return result
}

// firstTopLevelOpenParen returns the index of the first '(' not inside a
// bracketed identifier or quoted string.
func firstTopLevelOpenParen(text string) int {
	inString, inBracket := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '\'' {
				inString = false
			}
			continue
		}
		if inBracket {
			if c == ']' {
				inBracket = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
		case '[':
			inBracket = true
		case '(':
			return i
		}
	}
	return -1
}
