// Package classify turns a raw .sql file's text into one primary object
// record plus zero or more secondary records (embedded indexes and
// triggers).
package classify

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tsqldiff/tsqldiff/internal/identifier"
	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/normalize"
)

// Object is one classified object extracted from a file: its kind, its
// logical name, the canonical text to hash, and the path it came from.
type Object struct {
	Kind       model.Kind
	Name       string
	Canonical  string
	FilePath   string
	LineOffset int
}

// pattern is one DDL verb phrase recognized at classification time.
type pattern struct {
	kind model.Kind
	re   *regexp.Regexp
	rank int // lower sorts first on a position tie
}

// Rank order is the tie-break precedence when two patterns match at the
// same position: function → procedure → view → trigger → login → role →
// user → index → table.
const (
	rankFunction = iota
	rankProcedure
	rankView
	rankTrigger
	rankLogin
	rankRole
	rankUser
	rankIndex
	rankTable
)

func phrase(s string) string {
	return `(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(s), " ", `\s+`) + `\b`
}

var patterns = []pattern{
	{model.ScalarFunction, regexp.MustCompile(phrase("CREATE FUNCTION")), rankFunction},
	{model.ScalarFunction, regexp.MustCompile(phrase("CREATE OR ALTER FUNCTION")), rankFunction},
	{model.ScalarFunction, regexp.MustCompile(phrase("ALTER FUNCTION")), rankFunction},

	{model.StoredProcedure, regexp.MustCompile(phrase("CREATE PROCEDURE")), rankProcedure},
	{model.StoredProcedure, regexp.MustCompile(phrase("CREATE PROC")), rankProcedure},
	{model.StoredProcedure, regexp.MustCompile(phrase("CREATE OR ALTER PROCEDURE")), rankProcedure},
	{model.StoredProcedure, regexp.MustCompile(phrase("CREATE OR ALTER PROC")), rankProcedure},
	{model.StoredProcedure, regexp.MustCompile(phrase("ALTER PROCEDURE")), rankProcedure},
	{model.StoredProcedure, regexp.MustCompile(phrase("ALTER PROC")), rankProcedure},

	{model.View, regexp.MustCompile(phrase("CREATE VIEW")), rankView},
	{model.View, regexp.MustCompile(phrase("CREATE OR ALTER VIEW")), rankView},
	{model.View, regexp.MustCompile(phrase("ALTER VIEW")), rankView},

	{model.Trigger, regexp.MustCompile(phrase("CREATE TRIGGER")), rankTrigger},
	{model.Trigger, regexp.MustCompile(phrase("CREATE OR ALTER TRIGGER")), rankTrigger},

	{model.Login, regexp.MustCompile(phrase("CREATE LOGIN")), rankLogin},

	{model.Role, regexp.MustCompile(phrase("CREATE ROLE")), rankRole},
	{model.Role, regexp.MustCompile(phrase("CREATE SERVER ROLE")), rankRole},
	{model.Role, regexp.MustCompile(phrase("CREATE OR ALTER ROLE")), rankRole},

	{model.User, regexp.MustCompile(phrase("CREATE USER")), rankUser},

	{model.Index, regexp.MustCompile(phrase("CREATE INDEX")), rankIndex},
	{model.Index, regexp.MustCompile(phrase("CREATE UNIQUE INDEX")), rankIndex},
	{model.Index, regexp.MustCompile(phrase("CREATE CLUSTERED INDEX")), rankIndex},
	{model.Index, regexp.MustCompile(phrase("CREATE NONCLUSTERED INDEX")), rankIndex},
	{model.Index, regexp.MustCompile(phrase("CREATE UNIQUE CLUSTERED INDEX")), rankIndex},
	{model.Index, regexp.MustCompile(phrase("CREATE UNIQUE NONCLUSTERED INDEX")), rankIndex},

	{model.Table, regexp.MustCompile(phrase("CREATE TABLE")), rankTable},
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	returnsTableRe = regexp.MustCompile(`(?i)\bRETURNS\s+TABLE\b`)
	returnsVarRe   = regexp.MustCompile(`(?i)\bRETURNS\s+@\w+\s+TABLE\b`)
)

// StripComments removes /* ... */ (non-nested) and -- ... comments.
func StripComments(text string) string {
	text = blockCommentRe.ReplaceAllString(text, "")
	text = lineCommentRe.ReplaceAllString(text, "")
	return text
}

type match struct {
	pattern
	start int
	end   int
}

// Classify determines the primary kind of a DDL script and the offset
// immediately after the matched verb phrase, ready to feed the identifier
// parser. It operates on the comment-stripped form but returns an offset
// into that same stripped text.
func Classify(stripped string) (model.Kind, int) {
	if strings.TrimSpace(stripped) == "" {
		return model.Unknown, -1
	}

	var best *match
	for _, p := range patterns {
		loc := p.re.FindStringIndex(stripped)
		if loc == nil {
			continue
		}
		m := match{pattern: p, start: loc[0], end: loc[1]}
		if best == nil || m.start < best.start || (m.start == best.start && m.rank < best.rank) {
			best = &m
		}
	}
	if best == nil {
		return model.Unknown, -1
	}

	kind := best.kind
	if kind == model.ScalarFunction {
		if returnsTableRe.MatchString(stripped) || returnsVarRe.MatchString(stripped) {
			kind = model.TableValuedFunction
		}
	}
	return kind, best.end
}

// primaryCanonical computes the canonical comparison text for a file's
// primary object.
func primaryCanonical(kind model.Kind, normalized string) string {
	switch kind {
	case model.Table:
		return normalize.NormalizeForComparison(normalize.StripInlineConstraints(normalize.TruncateAfterFirstGo(normalized)))
	case model.Role, model.Trigger:
		return normalize.NormalizeForComparison(normalize.TruncateAfterFirstGo(normalized))
	default:
		return normalize.NormalizeForComparison(normalized)
	}
}

var (
	createIndexKeywordRe = regexp.MustCompile(`(?i)\bcreate\b`)
	indexKeywordRe       = regexp.MustCompile(`(?i)\bindex\b`)
	createTriggerBatchRe = regexp.MustCompile(`(?i)\bcreate\s+(or\s+alter\s+)?trigger\b`)
)

// File classifies a single .sql file's raw contents into the primary
// object it defines plus any secondary objects embedded in later batches.
// An empty or unclassifiable file still yields one Unknown record so the
// comparer can report it in its discovered-but-excluded list.
func File(path, raw string) []Object {
	normalized := normalize.Normalize(raw)
	stripped := StripComments(normalized)

	kind, pos := Classify(stripped)
	if kind == model.Unknown {
		return []Object{{
			Kind:     model.Unknown,
			Name:     filenameFallback(path),
			FilePath: path,
		}}
	}

	name := objectName(kind, stripped, pos)
	if name == "" {
		// Two files whose object names differ only by surrounding
		// whitespace collide here; accepted as a limitation of the
		// filename fallback.
		name = filenameFallback(path)
	}
	if name == "" {
		return nil
	}

	objects := []Object{{
		Kind:      kind,
		Name:      name,
		Canonical: primaryCanonical(kind, normalized),
		FilePath:  path,
	}}

	if kind == model.Table {
		objects = append(objects, secondaryObjects(path, normalized)...)
	}

	return objects
}

// objectName derives the logical name of the object starting right after
// the matched verb phrase, using the identifier parser. pos is the offset
// Classify returned (immediately after the verb phrase, so immediately
// before the object's own name for every pattern, index included).
func objectName(kind model.Kind, stripped string, pos int) string {
	if kind == model.Index {
		idxName := identifier.Last(stripped, pos)
		tableChain, ok := identifier.After(stripped, pos, "ON")
		if !ok || len(tableChain) == 0 || idxName == "" {
			return ""
		}
		return tableChain[len(tableChain)-1] + "." + idxName
	}
	return identifier.Last(stripped, pos)
}

// secondaryObjects scans batches after the first for embedded indexes and
// triggers.
func secondaryObjects(path, normalized string) []Object {
	var out []Object
	first := true
	for batch := range normalize.SplitBatches(normalized) {
		if first {
			first = false
			continue
		}
		trimmed := strings.TrimLeft(batch, " \t\r\n")
		batchStripped := StripComments(trimmed)

		if createIndexKeywordRe.MatchString(batchStripped) && indexKeywordRe.MatchString(batchStripped) {
			kind, pos := Classify(batchStripped)
			if kind == model.Index {
				if name := objectName(model.Index, batchStripped, pos); name != "" {
					out = append(out, Object{
						Kind:      model.Index,
						Name:      name,
						Canonical: normalize.NormalizeIndexForComparison(normalize.Normalize(trimmed)),
						FilePath:  path,
					})
					continue
				}
			}
		}

		if createTriggerBatchRe.MatchString(batchStripped) {
			kind, pos := Classify(batchStripped)
			if kind == model.Trigger {
				if name := objectName(model.Trigger, batchStripped, pos); name != "" {
					out = append(out, Object{
						Kind:      model.Trigger,
						Name:      name,
						Canonical: normalize.NormalizeForComparison(normalize.TruncateAfterFirstGo(normalize.Normalize(trimmed))),
						FilePath:  path,
					})
				}
			}
		}
	}
	return out
}

// filenameFallback derives an object name from the filename's last dotted
// segment, stripping the .sql extension, for files whose DDL yields no
// parseable name.
func filenameFallback(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	segments := strings.Split(base, ".")
	return segments[len(segments)-1]
}

// IsSQLFile reports whether path has a case-insensitive .sql extension
// and does not fall under a "bin" or "obj" path segment.
func IsSQLFile(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".sql") {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.EqualFold(seg, "bin") || strings.EqualFold(seg, "obj") {
			return false
		}
	}
	return true
}
