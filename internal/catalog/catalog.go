// Package catalog defines the Reader contract the core depends on to read
// database-side object definitions. Concrete
// implementations (internal/catalog/mssql) own the actual SQL and
// connection lifecycle; this package only describes the shape.
package catalog

import (
	"context"

	"github.com/tsqldiff/tsqldiff/internal/model"
)

// Identifier names one object to fetch via BatchGet.
type Identifier struct {
	Schema string
	Name   string
	Kind   model.Kind
}

// Reader is the catalog-side collaborator injected into the orchestrator.
// Implementations own their own connection pooling; Close releases it.
type Reader interface {
	// ListAllObjects returns every supported-kind record the catalog
	// currently holds, across all schemas.
	ListAllObjects(ctx context.Context) ([]model.Record, error)

	// GetObject returns a single record, or ok=false if no such object
	// exists in the given schema under that kind.
	GetObject(ctx context.Context, schema, name string, kind model.Kind) (model.Record, bool, error)

	// ListByKind returns every record of one kind, across all schemas.
	ListByKind(ctx context.Context, kind model.Kind) ([]model.Record, error)

	// BatchGet resolves many identifiers in one grouped round trip per
	// kind, returning only the identifiers that exist.
	BatchGet(ctx context.Context, ids []Identifier) ([]model.Record, error)

	Close() error
}
