package mssql

import (
	"context"

	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/reconstruct"
)

// users lists every database user with a default schema, feeding the
// CREATE USER composer.
func (c *Catalog) users(ctx context.Context) ([]model.Record, error) {
	const query = `SELECT
	name,
	ISNULL(default_schema_name, '')
FROM sys.database_principals
WHERE type IN ('S', 'U', 'G') AND name NOT IN ('dbo', 'guest', 'INFORMATION_SCHEMA', 'sys')`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var name, defaultSchema string
		if err := rows.Scan(&name, &defaultSchema); err != nil {
			return nil, err
		}
		canonical := reconstruct.CanonicalUser(name, defaultSchema)
		records = append(records, model.NewRecord("", name, model.User, canonical, model.Database))
	}
	return records, rows.Err()
}

// roles lists every database role, feeding the Role composer.
func (c *Catalog) roles(ctx context.Context) ([]model.Record, error) {
	const query = `SELECT name
FROM sys.database_principals
WHERE type = 'R' AND is_fixed_role = 0 AND name != 'public'`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		canonical := reconstruct.CanonicalRole(name)
		records = append(records, model.NewRecord("", name, model.Role, canonical, model.Database))
	}
	return records, rows.Err()
}
