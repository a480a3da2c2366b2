// Package storage defines the snapshot & history storage contract.
// A snapshot is the last-known object set for one
// subscription; history is the append-only record of past comparison
// results. internal/storage/memstore provides the reference in-memory
// implementation.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tsqldiff/tsqldiff/internal/model"
)

// Snapshot is the last-known object set for one subscription.
type Snapshot struct {
	ID             uuid.UUID
	SubscriptionID string
	Records        []model.Record
	CreatedAt      time.Time
}

// HistoryEntry is one past comparison result, kept even for a partial
// success as long as the comparison itself completed.
type HistoryEntry struct {
	ID             uuid.UUID
	SubscriptionID string
	Differences    []model.Difference
	Succeeded      bool
	CreatedAt      time.Time
}

// Store is the core's snapshot/history collaborator.
type Store interface {
	// GetLatest returns the most recent snapshot for subscriptionID, or
	// ok=false if none has been recorded yet.
	GetLatest(ctx context.Context, subscriptionID string) (Snapshot, bool, error)

	// Replace overwrites subscriptionID's snapshot wholesale.
	Replace(ctx context.Context, subscriptionID string, snapshot Snapshot) error

	// UpdateObjects merges records into the latest snapshot by logical key,
	// adding or overwriting but never removing entries absent from records.
	UpdateObjects(ctx context.Context, subscriptionID string, records []model.Record) error

	// RemoveObject deletes one object from the latest snapshot by logical
	// key, a no-op if it isn't present.
	RemoveObject(ctx context.Context, subscriptionID, schema, name string, kind model.Kind) error

	// AppendHistory records one comparison result.
	AppendHistory(ctx context.Context, entry HistoryEntry) error

	// ListHistory returns subscriptionID's history, newest first.
	ListHistory(ctx context.Context, subscriptionID string) ([]HistoryEntry, error)

	// DeleteOlderThan prunes history entries older than cutoff.
	DeleteOlderThan(ctx context.Context, subscriptionID string, cutoff time.Time) error

	// CapPerSubscription keeps only the most recent max history entries.
	CapPerSubscription(ctx context.Context, subscriptionID string, max int) error
}
