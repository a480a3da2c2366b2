package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/reconstruct"
)

type tableRef struct {
	schema string
	name   string
}

// tableNames lists every user table together with its schema.
func (c *Catalog) tableNames(ctx context.Context) ([]tableRef, error) {
	const query = `SELECT schema_name(schema_id) AS table_schema, name
FROM sys.objects WITH(NOLOCK)
WHERE type = 'U'`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []tableRef
	for rows.Next() {
		var ref tableRef
		if err := rows.Scan(&ref.schema, &ref.name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// tableRecord assembles one table's full catalog shape into a Record:
// columns with identity, computed-column, and generated-always metadata,
// plus temporal and memory-optimized info.
func (c *Catalog) tableRecord(ctx context.Context, ref tableRef) (model.Record, error) {
	columns, err := c.getColumns(ctx, ref.schema, ref.name)
	if err != nil {
		return model.Record{}, err
	}

	temporal, err := c.getTemporalInfo(ctx, ref.schema, ref.name)
	if err != nil {
		return model.Record{}, err
	}

	memOpt, err := c.getMemoryOptimizedInfo(ctx, ref.schema, ref.name)
	if err != nil {
		return model.Record{}, err
	}

	canonical := reconstruct.CanonicalTable(ref.schema, ref.name, columns, temporal, memOpt)
	return model.NewRecord(ref.schema, ref.name, model.Table, canonical, model.Database), nil
}

func (c *Catalog) getColumns(ctx context.Context, schema, table string) ([]reconstruct.Column, error) {
	const query = `SELECT
	c.column_id,
	c.name,
	tp.name AS type_name,
	c.max_length,
	c.precision,
	c.scale,
	c.is_nullable,
	c.is_identity,
	ic.seed_value,
	ic.increment_value,
	ic.is_not_for_replication,
	cc.definition,
	c.generated_always_type
FROM sys.columns c WITH(NOLOCK)
JOIN sys.types tp WITH(NOLOCK) ON c.user_type_id = tp.user_type_id
LEFT JOIN sys.computed_columns cc WITH(NOLOCK) ON c.object_id = cc.object_id AND c.column_id = cc.column_id
LEFT JOIN sys.identity_columns ic WITH(NOLOCK) ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE c.object_id = OBJECT_ID(@p1)
ORDER BY c.column_id`

	rows, err := c.db.QueryContext(ctx, query, fmt.Sprintf("[%s].[%s]", schema, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []reconstruct.Column
	for rows.Next() {
		var (
			id                      int
			name, typeName          string
			maxLength, precision    int
			scale                   int
			isNullable, isIdentity  bool
			seedValue, incrementVal *string
			notForReplication       *bool
			computedExpr            *string
			generatedAlways         int
		)
		err = rows.Scan(&id, &name, &typeName, &maxLength, &precision, &scale, &isNullable, &isIdentity,
			&seedValue, &incrementVal, &notForReplication, &computedExpr, &generatedAlways)
		if err != nil {
			return nil, err
		}

		col := reconstruct.Column{
			ID:              id,
			Name:            name,
			Type:            typeName,
			MaxLength:       maxLength,
			Precision:       precision,
			Scale:           scale,
			Nullable:        isNullable,
			GeneratedAlways: generatedAlways,
		}
		if computedExpr != nil {
			col.ComputedExpression = *computedExpr
		}
		if isIdentity && seedValue != nil && incrementVal != nil {
			col.IdentitySeed = *seedValue
			col.IdentityIncrement = *incrementVal
			if notForReplication != nil {
				col.IdentityNotForReplication = *notForReplication
			}
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// getTemporalInfo reports a system-versioned table's history link, or nil
// if the table is not temporal.
func (c *Catalog) getTemporalInfo(ctx context.Context, schema, table string) (*reconstruct.TemporalInfo, error) {
	const query = `SELECT
	schema_name(h.schema_id),
	h.name
FROM sys.tables t
JOIN sys.tables h ON t.history_table_id = h.object_id
WHERE t.object_id = OBJECT_ID(@p1) AND t.temporal_type = 2`

	var historySchema, historyTable string
	err := c.db.QueryRowContext(ctx, query, fmt.Sprintf("[%s].[%s]", schema, table)).Scan(&historySchema, &historyTable)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reconstruct.TemporalInfo{HistorySchema: historySchema, HistoryTable: historyTable}, nil
}

// getMemoryOptimizedInfo reports durability for a memory-optimized table,
// or nil if the table is disk-based.
func (c *Catalog) getMemoryOptimizedInfo(ctx context.Context, schema, table string) (*reconstruct.MemoryOptimizedInfo, error) {
	const query = `SELECT durability_desc
FROM sys.tables
WHERE object_id = OBJECT_ID(@p1) AND is_memory_optimized = 1`

	var durability string
	err := c.db.QueryRowContext(ctx, query, fmt.Sprintf("[%s].[%s]", schema, table)).Scan(&durability)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reconstruct.MemoryOptimizedInfo{SchemaOnly: durability == "SCHEMA_ONLY"}, nil
}

// indexRecords lists every index on one table in two queries (index
// metadata, then index-column rows) and feeds the index reconstructor.
func (c *Catalog) indexRecords(ctx context.Context, ref tableRef) ([]model.Record, error) {
	const metaQuery = `SELECT
	ind.index_id,
	ind.name,
	ind.is_unique,
	ind.type_desc,
	ind.filter_definition,
	p.data_compression_desc
FROM sys.indexes ind
JOIN sys.partitions p ON p.object_id = ind.object_id AND p.index_id = ind.index_id
WHERE ind.object_id = OBJECT_ID(@p1) AND ind.is_primary_key = 0 AND ind.type > 0`

	objID := fmt.Sprintf("[%s].[%s]", ref.schema, ref.name)
	rows, err := c.db.QueryContext(ctx, metaQuery, objID)
	if err != nil {
		return nil, err
	}

	type meta struct {
		id              int
		name            string
		unique          bool
		typeDesc        string
		filter          *string
		dataCompression string
	}
	metas := make(map[int]*meta)
	var order []int
	for rows.Next() {
		m := &meta{}
		if err := rows.Scan(&m.id, &m.name, &m.unique, &m.typeDesc, &m.filter, &m.dataCompression); err != nil {
			rows.Close()
			return nil, err
		}
		metas[m.id] = m
		order = append(order, m.id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const colQuery = `SELECT
	ic.index_id,
	COL_NAME(ic.object_id, ic.column_id),
	ic.is_descending_key,
	ic.is_included_column
FROM sys.index_columns ic
WHERE ic.object_id = OBJECT_ID(@p1)
ORDER BY ic.index_id, ic.key_ordinal, ic.index_column_id`

	colRows, err := c.db.QueryContext(ctx, colQuery, objID)
	if err != nil {
		return nil, err
	}
	defer colRows.Close()

	cols := make(map[int][]reconstruct.IndexColumn)
	for colRows.Next() {
		var indexID int
		var colName string
		var descending, included bool
		if err := colRows.Scan(&indexID, &colName, &descending, &included); err != nil {
			return nil, err
		}
		cols[indexID] = append(cols[indexID], reconstruct.IndexColumn{Name: colName, Descending: descending, Included: included})
	}
	if err := colRows.Err(); err != nil {
		return nil, err
	}

	var records []model.Record
	for _, id := range order {
		m := metas[id]
		filter := ""
		hasFilter := m.filter != nil && *m.filter != ""
		if hasFilter {
			filter = *m.filter
		}
		canonical := reconstruct.CanonicalIndex(ref.schema, ref.name, m.name, m.typeDesc, m.unique, m.dataCompression, filter, hasFilter, cols[id])
		name := reconstruct.IndexObjectName(ref.name, m.name)
		records = append(records, model.NewRecord(ref.schema, name, model.Index, canonical, model.Database))
	}
	return records, nil
}
