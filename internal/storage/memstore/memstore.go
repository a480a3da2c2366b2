// Package memstore is the reference in-memory implementation of
// internal/storage.Store: enough to let the orchestrator run a full
// incremental comparison loop in tests, not a durable store.
//
// When constructed with a backing file path, snapshots and history are
// mirrored to disk as YAML on every write, so a process restart does not
// silently lose the last-known object set. The backing file is a
// convenience, not a contract: Store never requires one.
package memstore

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/storage"
)

// document is the on-disk shape, kept separate from the in-memory maps so
// the YAML encoding is stable regardless of internal representation.
type document struct {
	Snapshots map[string]storage.Snapshot       `yaml:"snapshots"`
	History   map[string][]storage.HistoryEntry `yaml:"history"`
}

// Store is a mutex-guarded, map-backed storage.Store.
type Store struct {
	mu        sync.RWMutex
	path      string
	snapshots map[string]storage.Snapshot
	history   map[string][]storage.HistoryEntry
}

var _ storage.Store = (*Store)(nil)

// New builds an empty Store. If path is non-empty and the file exists, its
// contents seed the initial state.
func New(path string) (*Store, error) {
	s := &Store{
		path:      path,
		snapshots: make(map[string]storage.Snapshot),
		history:   make(map[string][]storage.HistoryEntry),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Snapshots != nil {
		s.snapshots = doc.Snapshots
	}
	if doc.History != nil {
		s.history = doc.History
	}
	return s, nil
}

// persist must be called with mu held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	doc := document{Snapshots: s.snapshots, History: s.history}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *Store) GetLatest(_ context.Context, subscriptionID string) (storage.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[subscriptionID]
	return snap, ok, nil
}

func (s *Store) Replace(_ context.Context, subscriptionID string, snapshot storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	snapshot.SubscriptionID = subscriptionID
	s.snapshots[subscriptionID] = snapshot
	return s.persist()
}

func (s *Store) UpdateObjects(_ context.Context, subscriptionID string, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[subscriptionID]
	if !ok {
		snap = storage.Snapshot{ID: uuid.New(), SubscriptionID: subscriptionID}
	}

	byKey := make(map[model.Key]model.Record, len(snap.Records))
	var order []model.Key
	for _, r := range snap.Records {
		k := r.Key()
		if _, exists := byKey[k]; !exists {
			order = append(order, k)
		}
		byKey[k] = r
	}
	for _, r := range records {
		k := r.Key()
		if _, exists := byKey[k]; !exists {
			order = append(order, k)
		}
		byKey[k] = r
	}

	merged := make([]model.Record, 0, len(order))
	for _, k := range order {
		merged = append(merged, byKey[k])
	}

	snap.Records = merged
	snap.CreatedAt = now()
	s.snapshots[subscriptionID] = snap
	return s.persist()
}

func (s *Store) RemoveObject(_ context.Context, subscriptionID, schema, name string, kind model.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[subscriptionID]
	if !ok {
		return nil
	}

	target := model.NewKey(kind, name)
	filtered := snap.Records[:0:0]
	for _, r := range snap.Records {
		if r.Key() == target && (schema == "" || r.Schema == schema) {
			continue
		}
		filtered = append(filtered, r)
	}
	snap.Records = filtered
	s.snapshots[subscriptionID] = snap
	return s.persist()
}

func (s *Store) AppendHistory(_ context.Context, entry storage.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now()
	}
	s.history[entry.SubscriptionID] = append(s.history[entry.SubscriptionID], entry)
	return s.persist()
}

func (s *Store) ListHistory(_ context.Context, subscriptionID string) ([]storage.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]storage.HistoryEntry(nil), s.history[subscriptionID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (s *Store) DeleteOlderThan(_ context.Context, subscriptionID string, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []storage.HistoryEntry
	for _, e := range s.history[subscriptionID] {
		if e.CreatedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	s.history[subscriptionID] = kept
	return s.persist()
}

func (s *Store) CapPerSubscription(_ context.Context, subscriptionID string, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[subscriptionID]
	if len(entries) <= max {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	s.history[subscriptionID] = entries[:max]
	return s.persist()
}

// now is a seam so a future test can fake the clock without touching every
// call site; production always uses time.Now.
var now = time.Now
