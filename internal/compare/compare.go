// Package compare matches database-side and file-side object records on a
// logical key, applies schema inference to disambiguate multi-schema
// collisions, and emits Add/Modify/Delete differences in deterministic
// order.
package compare

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsqldiff/tsqldiff/internal/model"
)

// Result is the outcome of one comparison run.
type Result struct {
	Differences []model.Difference
	// Excluded holds discovered-but-excluded records: unsupported kinds
	// (Login, Unknown) or kinds turned off by Config. Never diffed.
	Excluded []model.Record
}

// Compare filters, groups, and pairwise-matches dbRecords against
// fileRecords under cfg, returning differences in key-sorted order. ctx is
// consulted for cancellation between groups only; the comparer issues no
// I/O itself.
func Compare(ctx context.Context, cfg Config, dbRecords, fileRecords []model.Record) (Result, error) {
	var result Result

	dbByKey := make(map[model.Key][]model.Record)
	fileByKey := make(map[model.Key][]model.Record)

	for _, r := range dbRecords {
		if !cfg.includes(r.Kind) {
			result.Excluded = append(result.Excluded, r)
			continue
		}
		k := r.Key()
		dbByKey[k] = append(dbByKey[k], r)
	}
	for _, r := range fileRecords {
		if !cfg.includes(r.Kind) {
			result.Excluded = append(result.Excluded, r)
			continue
		}
		k := r.Key()
		fileByKey[k] = append(fileByKey[k], r)
	}

	keys := unionKeys(dbByKey, fileByKey)

	for _, k := range keys {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		dbEntries := dbByKey[k]
		fileEntries := fileByKey[k]

		switch {
		case len(dbEntries) == 0:
			for _, f := range fileEntries {
				result.Differences = append(result.Differences, addDifference(f))
			}
		case len(fileEntries) == 0:
			for _, d := range dbEntries {
				result.Differences = append(result.Differences, deleteDifference(d))
			}
		default:
			result.Differences = append(result.Differences, matchGroup(dbEntries, fileEntries)...)
		}
	}

	return result, nil
}

func unionKeys(a, b map[model.Key][]model.Record) []model.Key {
	seen := make(map[model.Key]bool)
	var keys []model.Key
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// matchGroup pairwise-matches file entries against the remaining DB pool
// for one logical key, emitting Modify for hash mismatches, Delete for
// unmatched DB entries, and Add for unmatched file entries.
func matchGroup(dbEntries, fileEntries []model.Record) []model.Difference {
	pool := append([]model.Record(nil), dbEntries...)
	var diffs []model.Difference

	for _, f := range fileEntries {
		if len(pool) == 0 {
			diffs = append(diffs, addDifference(f))
			continue
		}
		idx := pickSchema(f, pool)
		d := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		if d.Hash != f.Hash {
			diffs = append(diffs, modifyDifference(d, f))
		}
	}

	for _, d := range pool {
		diffs = append(diffs, deleteDifference(d))
	}

	return diffs
}

// pickSchema chooses, among candidates, the index of the DB entry whose
// schema best matches file entry f: path segment first, then a bracketed
// schema reference in the content, then dbo, then the lexicographically
// smallest schema as a deterministic fallback.
func pickSchema(f model.Record, candidates []model.Record) int {
	if len(candidates) == 1 {
		return 0
	}

	segments := pathSegments(f.FilePath)
	for i, c := range candidates {
		for _, seg := range segments {
			if strings.EqualFold(seg, c.Schema) {
				return i
			}
		}
	}

	lowerContent := strings.ToLower(f.Definition)
	for i, c := range candidates {
		if strings.Contains(lowerContent, "["+strings.ToLower(c.Schema)+"].") {
			return i
		}
	}

	for i, c := range candidates {
		if strings.EqualFold(c.Schema, "dbo") {
			return i
		}
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if strings.ToLower(candidates[i].Schema) < strings.ToLower(candidates[best].Schema) {
			best = i
		}
	}
	return best
}

func pathSegments(path string) []string {
	normalized := filepath.ToSlash(path)
	return strings.Split(normalized, "/")
}

func addDifference(f model.Record) model.Difference {
	d := model.NewDifference(f.Schema, f.Name, f.Kind, model.Add, model.FileSystem)
	d.FileDefinition = f.Definition
	d.FilePath = f.FilePath
	return d
}

func deleteDifference(d model.Record) model.Difference {
	diff := model.NewDifference(d.Schema, d.Name, d.Kind, model.Delete, model.Database)
	diff.DatabaseDefinition = d.Definition
	return diff
}

// modifyDifference reports the difference under the DB entry's schema: the
// schema-inference step that picked d as f's match is also what resolves a
// file record's otherwise-unset Schema (model.Record's doc comment).
func modifyDifference(d, f model.Record) model.Difference {
	diff := model.NewDifference(d.Schema, f.Name, f.Kind, model.Modify, model.FileSystem)
	diff.DatabaseDefinition = d.Definition
	diff.FileDefinition = f.Definition
	diff.FilePath = f.FilePath
	return diff
}
