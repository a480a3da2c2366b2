package mssql

import (
	"context"

	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/reconstruct"
)

// moduleRow is one programmable object's catalog row, shared by every
// module kind, including CLR-backed objects via sys.assembly_modules.
type moduleRow struct {
	schema     string
	name       string
	definition string
	isCLR      bool
	assembly   string
	class      string
	method     string
}

func (c *Catalog) queryModules(ctx context.Context, objectType string) ([]moduleRow, error) {
	const query = `SELECT
	schema_name(o.schema_id),
	o.name,
	ISNULL(m.definition, ''),
	CASE WHEN am.object_id IS NOT NULL THEN 1 ELSE 0 END,
	ISNULL(asm.name, ''),
	ISNULL(am.assembly_class, ''),
	ISNULL(am.assembly_method, '')
FROM sys.objects o WITH(NOLOCK)
LEFT JOIN sys.sql_modules m WITH(NOLOCK) ON m.object_id = o.object_id
LEFT JOIN sys.assembly_modules am WITH(NOLOCK) ON am.object_id = o.object_id
LEFT JOIN sys.assemblies asm WITH(NOLOCK) ON asm.assembly_id = am.assembly_id
WHERE o.type = @p1`

	rows, err := c.db.QueryContext(ctx, query, objectType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []moduleRow
	for rows.Next() {
		var r moduleRow
		var isCLR int
		if err := rows.Scan(&r.schema, &r.name, &r.definition, &isCLR, &r.assembly, &r.class, &r.method); err != nil {
			return nil, err
		}
		r.isCLR = isCLR == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r moduleRow) asModule() reconstruct.Module {
	m := reconstruct.Module{Definition: r.definition}
	if r.isCLR {
		m.CLR = &reconstruct.CLRReference{Assembly: r.assembly, Class: r.class, Method: r.method}
	}
	return m
}

// views lists every view. object_type 'V'.
func (c *Catalog) views(ctx context.Context) ([]model.Record, error) {
	rows, err := c.queryModules(ctx, "V")
	if err != nil {
		return nil, err
	}
	records := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		canonical := reconstruct.CanonicalView(r.asModule())
		records = append(records, model.NewRecord(r.schema, r.name, model.View, canonical, model.Database))
	}
	return records, nil
}

// procedures lists every stored procedure. object_type 'P' (T-SQL) or 'PC'
// (CLR).
func (c *Catalog) procedures(ctx context.Context) ([]model.Record, error) {
	var records []model.Record
	for _, objectType := range []string{"P", "PC"} {
		rows, err := c.queryModules(ctx, objectType)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			canonical := reconstruct.CanonicalProcedure(r.asModule())
			records = append(records, model.NewRecord(r.schema, r.name, model.StoredProcedure, canonical, model.Database))
		}
	}
	return records, nil
}

// functions lists every scalar, inline table-valued, and multi-statement
// table-valued function: object_type 'FN'/'FS' (scalar, T-SQL/CLR), 'IF'
// (inline table-valued), 'TF'/'FT' (multi-statement table-valued,
// T-SQL/CLR).
func (c *Catalog) functions(ctx context.Context) ([]model.Record, error) {
	functionTypes := []struct {
		objectType string
		kind       model.Kind
	}{
		{"FN", model.ScalarFunction},
		{"FS", model.ScalarFunction},
		{"IF", model.InlineTableValuedFunction},
		{"TF", model.TableValuedFunction},
		{"FT", model.TableValuedFunction},
	}

	var records []model.Record
	for _, ft := range functionTypes {
		rows, err := c.queryModules(ctx, ft.objectType)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			canonical := reconstruct.CanonicalFunction(r.asModule())
			records = append(records, model.NewRecord(r.schema, r.name, ft.kind, canonical, model.Database))
		}
	}
	return records, nil
}

// triggers lists every DML trigger: object_type 'TR' (T-SQL) or 'TA'
// (CLR).
func (c *Catalog) triggers(ctx context.Context) ([]model.Record, error) {
	var records []model.Record
	for _, objectType := range []string{"TR", "TA"} {
		rows, err := c.queryModules(ctx, objectType)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			canonical := reconstruct.CanonicalTrigger(r.asModule())
			records = append(records, model.NewRecord(r.schema, r.name, model.Trigger, canonical, model.Database))
		}
	}
	return records, nil
}
