package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// passC applies the fifteen targeted rewrites, in order. Each rule is a
// pure string transformation; several depend on the output of the one
// before it (notably C2 before C3/C4/C6, and C7 before C8).
func passC(text string) string {
	text = c1StripCommaBeforePeriod(text)
	text = c2CloseParenWhitespace(text)
	text = c3Datetime2Precision(text)
	text = c4FloatPrecision(text)
	text = c5DecimalScale(text)
	text = c6TimePrecision(text)
	text = c7TrailingCommaBeforeClose(text)
	text = c8JoinClosingParen(text)
	text = c9SpaceAfterComma(text)
	text = c10StripTrailingSemicolon(text)
	text = c11SortTerminalWith(text)
	text = c12StripRowHidden(text)
	text = c13CollapseExternalName(text)
	text = c14StripUserClauses(text)
	text = c15StripRoleAuthorization(text)
	return text
}

var periodLineRe = regexp.MustCompile(`(?i)^PERIOD\s+FOR\s+SYSTEM_TIME\b`)

// c1StripCommaBeforePeriod removes a trailing comma from the last column
// line immediately preceding a PERIOD FOR SYSTEM_TIME line.
func c1StripCommaBeforePeriod(text string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if !periodLineRe.MatchString(strings.TrimSpace(lines[i])) {
			continue
		}
		prev := i - 1
		for prev >= 0 && strings.TrimSpace(lines[prev]) == "" {
			prev--
		}
		if prev < 0 {
			continue
		}
		trimmed := strings.TrimRight(lines[prev], " \t")
		if strings.HasSuffix(trimmed, ",") {
			lines[prev] = strings.TrimSuffix(trimmed, ",")
		}
	}
	return strings.Join(lines, "\n")
}

var closeParenSpaceRe = regexp.MustCompile(`(\S)[ \t]+\(`)

// c2CloseParenWhitespace removes whitespace directly between a non-space
// character and an opening paren, e.g. "TIME (0)" -> "TIME(0)".
func c2CloseParenWhitespace(text string) string {
	return closeParenSpaceRe.ReplaceAllString(text, "$1(")
}

// applyDefaultPrecision canonicalizes `keyword` (optionally followed by a
// parenthesized integer precision) to `keyword(default)` whenever no
// precision is given or the given precision equals `defaultValue`. Other
// precisions are left untouched. The keyword's original casing is
// preserved; only the parenthetical suffix is rewritten.
func applyDefaultPrecision(text, keyword, defaultValue string) string {
	re := regexp.MustCompile(`(?i)\b` + keyword + `\b(\s*\(\s*(\d+)\s*\))?`)
	return re.ReplaceAllStringFunc(text, func(match string) string {
		sub := re.FindStringSubmatch(match)
		original := match[:len(keyword)]
		if sub[1] == "" || sub[2] == defaultValue {
			return original + "(" + defaultValue + ")"
		}
		return match
	})
}

func c3Datetime2Precision(text string) string {
	return applyDefaultPrecision(text, "DATETIME2", "7")
}

func c4FloatPrecision(text string) string {
	return applyDefaultPrecision(text, "FLOAT", "53")
}

var decimalScaleRe = regexp.MustCompile(`(?i)\b(DECIMAL|NUMERIC)\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// c5DecimalScale canonicalizes DECIMAL(p)/NUMERIC(p) to the two-argument
// form with a ", " separator, defaulting scale to 0.
func c5DecimalScale(text string) string {
	return decimalScaleRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := decimalScaleRe.FindStringSubmatch(match)
		keyword, precision, scale := sub[1], sub[2], sub[3]
		if scale == "" {
			scale = "0"
		}
		return keyword + "(" + precision + ", " + scale + ")"
	})
}

func c6TimePrecision(text string) string {
	return applyDefaultPrecision(text, "TIME", "7")
}

var trailingCommaBeforeCloseRe = regexp.MustCompile(`,[ \t]*\n?[ \t]*\)`)

// c7TrailingCommaBeforeClose removes a trailing comma immediately before a
// closing paren, including when a single newline separates them.
func c7TrailingCommaBeforeClose(text string) string {
	return trailingCommaBeforeCloseRe.ReplaceAllString(text, ")")
}

var closingParenOwnLineRe = regexp.MustCompile(`\n[ \t]*\)`)

// c8JoinClosingParen joins a closing paren that sits alone on its own line
// to whatever content precedes the blank run, so the last column and the
// table's closing paren land on one line.
func c8JoinClosingParen(text string) string {
	return closingParenOwnLineRe.ReplaceAllString(text, ")")
}

// c9SpaceAfterComma inserts a single space after any comma that is outside
// a single-quoted string or a bracketed identifier, unless the next
// non-space character is a newline or a closing paren. It is a scanner,
// not a regex, because it must track quote/bracket state.
func c9SpaceAfterComma(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 16)

	const (
		stateNone = iota
		stateString
		stateBracket
	)
	state := stateNone

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		b.WriteRune(c)

		switch state {
		case stateString:
			if c == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					b.WriteRune(runes[i+1])
					i++
					continue
				}
				state = stateNone
			}
			continue
		case stateBracket:
			if c == ']' {
				if i+1 < len(runes) && runes[i+1] == ']' {
					b.WriteRune(runes[i+1])
					i++
					continue
				}
				state = stateNone
			}
			continue
		}

		switch c {
		case '\'':
			state = stateString
			continue
		case '[':
			state = stateBracket
			continue
		case ',':
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t') {
				j++
			}
			if j < len(runes) {
				next := runes[j]
				if next == '\n' || next == '\r' || next == ')' {
					i = j - 1
					continue
				}
			}
			b.WriteRune(' ')
			i = j - 1
		}
	}
	return b.String()
}

// c10StripTrailingSemicolon removes one trailing semicolon, after trailing
// whitespace.
func c10StripTrailingSemicolon(text string) string {
	trimmed := strings.TrimRight(text, " \t\n\r")
	if strings.HasSuffix(trimmed, ";") {
		return strings.TrimSuffix(trimmed, ";")
	}
	return text
}

var withStartRe = regexp.MustCompile(`(?i)\bWITH\(`)

// c11SortTerminalWith finds a WITH( ... ) clause that terminates the
// script (only whitespace follows its matching close paren), sorts its
// options case-insensitively, and normalizes "=" spacing within each.
func c11SortTerminalWith(text string) string {
	matches := withStartRe.FindAllStringIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start := matches[i][0]
		openParen := matches[i][1] - 1
		closeParen := matchingParen(text, openParen)
		if closeParen < 0 {
			continue
		}
		if strings.TrimSpace(text[closeParen+1:]) != "" {
			continue
		}

		inner := text[openParen+1 : closeParen]
		options := splitTopLevel(inner, ',')
		for j, opt := range options {
			options[j] = normalizeWithOption(opt)
		}
		sort.SliceStable(options, func(a, b int) bool {
			return strings.ToLower(options[a]) < strings.ToLower(options[b])
		})

		return text[:start] + "WITH (" + strings.Join(options, ", ") + ")"
	}
	return text
}

func normalizeWithOption(opt string) string {
	opt = strings.TrimSpace(opt)
	idx := topLevelIndex(opt, '=')
	if idx < 0 {
		return opt
	}
	name := strings.TrimSpace(opt[:idx])
	value := strings.TrimSpace(opt[idx+1:])
	return name + " = " + value
}

var rowHiddenRe = regexp.MustCompile(`(?i)(GENERATED\s+ALWAYS\s+AS\s+ROW\s+(?:START|END))\s+HIDDEN\b`)

func c12StripRowHidden(text string) string {
	return rowHiddenRe.ReplaceAllString(text, "$1")
}

var externalNameRe = regexp.MustCompile(`(?i)EXTERNAL\s+NAME\s+(\[[^\]]*\]|[A-Za-z_][A-Za-z0-9_]*)\.(\[[^\]]*\]|[A-Za-z_][A-Za-z0-9_]*)\.(\[[^\]]*\]|[A-Za-z_][A-Za-z0-9_]*)?`)

// c13CollapseExternalName replaces the whole script with just its
// EXTERNAL NAME clause, if present, since CLR-backed modules normalize to
// exactly that clause on both sides.
func c13CollapseExternalName(text string) string {
	loc := externalNameRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[loc[0]:loc[1]])
}

var createUserRe = regexp.MustCompile(`(?is)^(CREATE\s+USER\s+(?:\[[^\]]*\]|"[^"]*"|[A-Za-z_][A-Za-z0-9_]*))\s*(.*)$`)
var userClauseRe = regexp.MustCompile(`(?i)^\s*(WITH\s+DEFAULT_SCHEMA\s*=\s*(?:\[[^\]]*\]|"[^"]*"|[A-Za-z_][A-Za-z0-9_]*)|WITHOUT\s+LOGIN|FOR\s+LOGIN\s+(?:\[[^\]]*\]|"[^"]*"|[A-Za-z_][A-Za-z0-9_]*))\s*`)

// c14StripUserClauses drops WITH DEFAULT_SCHEMA / WITHOUT LOGIN / FOR LOGIN
// clauses immediately following CREATE USER [name].
func c14StripUserClauses(text string) string {
	m := createUserRe.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	head, rest := m[1], m[2]
	for {
		stripped := userClauseRe.ReplaceAllString(rest, "")
		if stripped == rest {
			break
		}
		rest = stripped
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return head
	}
	return head + " " + rest
}

var createRoleRe = regexp.MustCompile(`(?is)^(CREATE\s+ROLE\s+(?:\[[^\]]*\]|"[^"]*"|[A-Za-z_][A-Za-z0-9_]*))\s*(.*)$`)
var roleAuthorizationRe = regexp.MustCompile(`(?i)^\s*AUTHORIZATION\s+(?:\[[^\]]*\]|"[^"]*"|[A-Za-z_][A-Za-z0-9_]*)\s*`)

// c15StripRoleAuthorization drops an AUTHORIZATION clause immediately
// following CREATE ROLE [name].
func c15StripRoleAuthorization(text string) string {
	m := createRoleRe.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	head, rest := m[1], m[2]
	rest = roleAuthorizationRe.ReplaceAllString(rest, "")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return head
	}
	return head + " " + rest
}

// matchingParen returns the index of the paren matching the one at
// openIdx, or -1 if unbalanced. It is quote/bracket aware so a ")" inside
// a string literal or bracketed identifier is not mistaken for structure.
func matchingParen(text string, openIdx int) int {
	depth := 0
	inString, inBracket := false, false
	for i := openIdx; i < len(text); i++ {
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
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep at paren-depth 0, respecting string and
// bracket literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inString, inBracket := false, false
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
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
			depth++
		case ')':
			depth--
		default:
			if c == sep && depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// topLevelIndex returns the index of the first occurrence of sep at paren
// depth 0, or -1.
func topLevelIndex(s string, sep byte) int {
	depth := 0
	inString, inBracket := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
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
			depth++
		case ')':
			depth--
		default:
			if c == sep && depth == 0 {
				return i
			}
		}
	}
	return -1
}
