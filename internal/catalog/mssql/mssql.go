// Package mssql is the concrete catalog.Reader backed by a live SQL Server
// connection, covering tables, indexes, programmable objects, users, and
// roles.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/tsqldiff/tsqldiff/internal/catalog"
	"github.com/tsqldiff/tsqldiff/internal/model"
)

// queryConcurrency bounds how many per-kind or per-table catalog queries
// run at once.
const queryConcurrency = 4

// Catalog implements catalog.Reader against one SQL Server database.
type Catalog struct {
	db *sql.DB
}

var _ catalog.Reader = (*Catalog)(nil)

// Open establishes the connection pool. It does not itself verify
// connectivity; callers that want a fail-fast check should ping via DB().
func Open(config Config) (*Catalog, error) {
	db, err := sql.Open("sqlserver", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

// DB exposes the underlying pool for callers that want a fail-fast ping
// or a test fixture.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// ListAllObjects gathers every supported kind concurrently.
func (c *Catalog) ListAllObjects(ctx context.Context) ([]model.Record, error) {
	fetchers := []func(context.Context) ([]model.Record, error){
		c.tablesAndIndexes,
		c.views,
		c.procedures,
		c.functions,
		c.triggers,
		c.users,
		c.roles,
	}

	groups, err := concurrentMap(fetchers, queryConcurrency, func(f func(context.Context) ([]model.Record, error)) ([]model.Record, error) {
		return f(ctx)
	})
	if err != nil {
		return nil, err
	}

	var all []model.Record
	for _, g := range groups {
		all = append(all, g...)
	}
	return all, nil
}

// tablesAndIndexes fetches every table's record and its indexes'
// records, one set of queries per table run concurrently.
func (c *Catalog) tablesAndIndexes(ctx context.Context) ([]model.Record, error) {
	refs, err := c.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := concurrentMap(refs, queryConcurrency, func(ref tableRef) ([]model.Record, error) {
		table, err := c.tableRecord(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("table %s.%s: %w", ref.schema, ref.name, err)
		}
		indexes, err := c.indexRecords(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("indexes for %s.%s: %w", ref.schema, ref.name, err)
		}
		return append([]model.Record{table}, indexes...), nil
	})
	if err != nil {
		return nil, err
	}

	var all []model.Record
	for _, g := range groups {
		all = append(all, g...)
	}
	return all, nil
}

// ListByKind fetches only the records of one kind.
func (c *Catalog) ListByKind(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	all, err := c.recordsForKindGroup(ctx, kind)
	if err != nil {
		return nil, err
	}
	var filtered []model.Record
	for _, r := range all {
		if r.Kind == kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// recordsForKindGroup runs only the fetcher(s) relevant to kind's family,
// avoiding a full ListAllObjects scan when a caller wants a single kind.
func (c *Catalog) recordsForKindGroup(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	switch {
	case kind == model.Table || kind == model.Index:
		return c.tablesAndIndexes(ctx)
	case kind == model.View:
		return c.views(ctx)
	case kind == model.StoredProcedure:
		return c.procedures(ctx)
	case kind.IsFunction():
		return c.functions(ctx)
	case kind == model.Trigger:
		return c.triggers(ctx)
	case kind == model.User:
		return c.users(ctx)
	case kind == model.Role:
		return c.roles(ctx)
	default:
		return nil, nil
	}
}

// GetObject looks up one object by schema, name, and kind. There is no
// single-object catalog query per kind, so it scans that kind's group;
// catalogs are small enough (hundreds to low thousands of objects) that
// this is cheap relative to the connection round trip itself.
func (c *Catalog) GetObject(ctx context.Context, schema, name string, kind model.Kind) (model.Record, bool, error) {
	records, err := c.recordsForKindGroup(ctx, kind)
	if err != nil {
		return model.Record{}, false, err
	}
	for _, r := range records {
		if r.Kind == kind && r.Name == name && (kind == model.User || kind == model.Role || r.Schema == schema) {
			return r, true, nil
		}
	}
	return model.Record{}, false, nil
}

// BatchGet resolves many identifiers, grouping lookups by kind so each
// kind's underlying query runs once regardless of how many identifiers
// reference it.
func (c *Catalog) BatchGet(ctx context.Context, ids []catalog.Identifier) ([]model.Record, error) {
	byKind := make(map[model.Kind][]catalog.Identifier)
	var kindOrder []model.Kind
	for _, id := range ids {
		if _, ok := byKind[id.Kind]; !ok {
			kindOrder = append(kindOrder, id.Kind)
		}
		byKind[id.Kind] = append(byKind[id.Kind], id)
	}

	groups, err := concurrentMap(kindOrder, queryConcurrency, func(kind model.Kind) ([]model.Record, error) {
		records, err := c.recordsForKindGroup(ctx, kind)
		if err != nil {
			return nil, err
		}
		wanted := make(map[string]bool, len(byKind[kind]))
		for _, id := range byKind[kind] {
			wanted[id.Schema+"."+id.Name] = true
		}
		var matched []model.Record
		for _, r := range records {
			if r.Kind == kind && wanted[r.Schema+"."+r.Name] {
				matched = append(matched, r)
			}
		}
		return matched, nil
	})
	if err != nil {
		return nil, err
	}

	var all []model.Record
	for _, g := range groups {
		all = append(all, g...)
	}
	return all, nil
}
