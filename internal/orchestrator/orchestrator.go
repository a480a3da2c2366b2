// Package orchestrator wires the core pipeline (catalog reads, file
// classification, normalization, comparison) into one runnable comparison
// for a subscription. It owns no catalog SQL, no storage layout, and no
// transport; those are the injected collaborators.
package orchestrator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tsqldiff/tsqldiff/internal/catalog"
	"github.com/tsqldiff/tsqldiff/internal/classify"
	"github.com/tsqldiff/tsqldiff/internal/compare"
	"github.com/tsqldiff/tsqldiff/internal/events"
	"github.com/tsqldiff/tsqldiff/internal/model"
	"github.com/tsqldiff/tsqldiff/internal/storage"
)

// Subscription is the opaque unit of configuration the core treats as a
// black box: one catalog connection paired with one file-tree root.
type Subscription struct {
	ID   string
	Root string
}

// Orchestrator runs comparisons for subscriptions, single-flight per
// subscription. The admission gate is a per-subscription weighted
// semaphore of capacity N, not a process-global mutex: an overlapping
// attempt fails fast with InProgress rather than queuing.
type Orchestrator struct {
	Catalog catalog.Reader
	Store   storage.Store
	Bus     *events.Bus
	Config  compare.Config
	Logger  Logger
	Clock   func() time.Time

	admission admissionGate
}

// New builds an Orchestrator with capacity admission slots per subscription
// (default 1 when capacity <= 0).
func New(reader catalog.Reader, store storage.Store, bus *events.Bus, cfg compare.Config, capacity int) *Orchestrator {
	if capacity <= 0 {
		capacity = 1
	}
	return &Orchestrator{
		Catalog: reader,
		Store:   store,
		Bus:     bus,
		Config:  cfg,
		Logger:  NullLogger{},
		Clock:   time.Now,
		admission: admissionGate{
			capacity: int64(capacity),
			sems:     make(map[string]*semaphore.Weighted),
		},
	}
}

// admissionGate hands out one weighted semaphore per subscription, created
// lazily.
type admissionGate struct {
	mu       sync.Mutex
	capacity int64
	sems     map[string]*semaphore.Weighted
}

func (g *admissionGate) semFor(subscriptionID string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	sem, ok := g.sems[subscriptionID]
	if !ok {
		sem = semaphore.NewWeighted(g.capacity)
		g.sems[subscriptionID] = sem
	}
	return sem
}

// tryAdmit attempts to acquire one slot for subscriptionID without
// blocking, returning an InProgress error on failure.
func (g *admissionGate) tryAdmit(subscriptionID string) (*semaphore.Weighted, error) {
	sem := g.semFor(subscriptionID)
	if !sem.TryAcquire(1) {
		return nil, NewInProgress(subscriptionID)
	}
	return sem, nil
}

// Run performs one full comparison for sub: it reads the database side via
// Catalog, walks and classifies sub.Root for the file side, normalizes and
// hashes both, compares them, persists the new snapshot, appends a history
// entry, and publishes the comparison lifecycle events.
//
// Admission is single-flight per subscription: an overlapping Run for the
// same sub.ID returns InProgress immediately rather than blocking.
func (o *Orchestrator) Run(ctx context.Context, sub Subscription) (compare.Result, error) {
	if sub.ID == "" {
		return compare.Result{}, NewInvalidArgument("subscription id is empty")
	}
	if sub.Root == "" {
		return compare.Result{}, NewInvalidArgument("root path is empty")
	}

	sem, err := o.admission.tryAdmit(sub.ID)
	if err != nil {
		return compare.Result{}, err
	}
	defer sem.Release(1)

	group := events.SubscriptionGroupID(sub.ID)
	o.Bus.PublishToGroup(group, events.ComparisonStarted, sub.ID)

	result, runErr := o.run(ctx, sub, group)
	if runErr != nil {
		o.Bus.PublishToGroup(group, events.ComparisonFailed, runErr.Error())
		return result, runErr
	}

	o.Bus.PublishToGroup(group, events.ComparisonCompleted, len(result.Differences))
	if len(result.Differences) > 0 {
		o.Bus.PublishToGroup(group, events.DifferencesDetected, result.Differences)
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, sub Subscription, group string) (compare.Result, error) {
	if _, err := os.Stat(sub.Root); err != nil {
		return compare.Result{}, NewNotFound("project folder does not exist: " + sub.Root)
	}

	dbRecords, err := o.Catalog.ListAllObjects(ctx)
	if err != nil {
		return compare.Result{}, NewCatalogIO(sub.ID, err)
	}
	o.Bus.PublishToGroup(group, events.DBChanged, len(dbRecords))

	fileRecords, err := WalkFiles(sub.Root)
	if err != nil {
		return compare.Result{}, err
	}
	o.Bus.PublishToGroup(group, events.FileChanged, len(fileRecords))

	o.Bus.PublishToGroup(group, events.ComparisonProgress, "comparing")
	result, err := compare.Compare(ctx, o.Config, dbRecords, fileRecords)
	if err != nil {
		return result, err
	}

	snapshot := storage.Snapshot{
		SubscriptionID: sub.ID,
		Records:        fileRecords,
		CreatedAt:      o.Clock(),
	}
	if err := o.Store.Replace(ctx, sub.ID, snapshot); err != nil {
		return result, NewCatalogIO(sub.ID, err)
	}
	if err := o.Store.AppendHistory(ctx, storage.HistoryEntry{
		SubscriptionID: sub.ID,
		Differences:    result.Differences,
		Succeeded:      true,
		CreatedAt:      o.Clock(),
	}); err != nil {
		return result, NewCatalogIO(sub.ID, err)
	}

	for _, d := range result.Differences {
		o.Logger.Printf("%s %s %s (%s)\n", d.Type, d.Kind, d.Name, d.Source)
	}

	return result, nil
}

// WalkFiles walks root for .sql files (skipping bin/obj segments per
// classify.IsSQLFile) and classifies each one into file-side records.
// Files that classify as Unknown still produce a record; the comparer
// collects those into its discovered-but-excluded list rather than
// diffing them (classification is never fatal).
func WalkFiles(root string) ([]model.Record, error) {
	var records []model.Record

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return NewFileIO(path, err)
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if !classify.IsSQLFile(rel) {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return NewFileIO(path, readErr)
		}

		info, statErr := d.Info()
		var modTime time.Time
		if statErr == nil {
			modTime = info.ModTime()
		}

		for _, obj := range classify.File(rel, string(raw)) {
			// Schema is left empty: the file side's schema is not known
			// until the comparer's schema-inference step resolves it
			// against the DB side's candidates.
			rec := model.NewRecord("", obj.Name, obj.Kind, obj.Canonical, model.FileSystem)
			rec.FilePath = rel
			rec.FileModifiedAt = modTime
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].FilePath != records[j].FilePath {
			return records[i].FilePath < records[j].FilePath
		}
		return records[i].Name < records[j].Name
	})
	return records, nil
}
