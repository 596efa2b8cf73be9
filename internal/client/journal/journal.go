// Package journal is the controller context object of the client. It owns
// the Entry Store and routes every mutation backend-first: the store only
// changes with the entry the backend confirmed, and each confirmed mutation
// is then recorded by the audit log without waiting for the append.
//
// In local-fallback mode the backend rejects every mutation. With
// OfflineEdits enabled the journal still applies the change to the store and
// the local snapshot so it can be browsed offline, but the backend error is
// returned all the same.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/backend"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/seed"
	"github.com/Racej255/CrosslandApocalypse/internal/client/store"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
)

var ErrLogUnavailable = errors.New("audit log not readable with this backend")

// AuditLog records confirmed mutations. Implementations must not block.
type AuditLog interface {
	Created(ctx context.Context, e models.Entry) models.LogRecord
	Updated(ctx context.Context, before, after models.Entry) models.LogRecord
	Deleted(ctx context.Context, e models.Entry) models.LogRecord
}

type LogSource interface {
	ListLog(ctx context.Context) ([]models.LogRecord, error)
}

// LogFunc adapts a function to LogSource.
type LogFunc func(ctx context.Context) ([]models.LogRecord, error)

func (f LogFunc) ListLog(ctx context.Context) ([]models.LogRecord, error) { return f(ctx) }

// Snapshot persists the working set for offline browsing.
type Snapshot interface {
	SaveEntries(ctx context.Context, entries []models.Entry) error
}

type Seeder interface {
	Seed(ctx context.Context) seed.Result
	Sync(ctx context.Context, withLog bool) seed.Result
}

type Options struct {
	Backend  backend.Backend
	Store    *store.Store
	Audit    AuditLog
	Log      LogSource
	Snapshot Snapshot
	Seeder   Seeder

	// OfflineEdits mirrors rejected local-fallback mutations into the store.
	OfflineEdits bool

	Logger logging.Logger
	Now    func() time.Time
}

type Journal struct {
	backend  backend.Backend
	store    *store.Store
	audit    AuditLog
	log      LogSource
	snapshot Snapshot
	seeder   Seeder
	offline  bool
	logger   logging.Logger
	now      func() time.Time
}

func New(opts Options) *Journal {
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Journal{
		backend:  opts.Backend,
		store:    opts.Store,
		audit:    opts.Audit,
		log:      opts.Log,
		snapshot: opts.Snapshot,
		seeder:   opts.Seeder,
		offline:  opts.OfflineEdits,
		logger:   opts.Logger.With("module", "journal"),
		now:      opts.Now,
	}
}

func (j *Journal) Store() *store.Store { return j.store }

func (j *Journal) BackendName() string { return j.backend.Name() }

// Load replaces the working set with the backend's entries and returns how
// many were loaded. It never fails: the backend degrades to sample data.
func (j *Journal) Load(ctx context.Context) int {
	entries := j.backend.ListEntries(ctx)
	j.store.Replace(entries)
	j.logger.Debug(ctx, "entries loaded", "backend", j.backend.Name(), "count", len(entries))
	return len(entries)
}

// Entry looks id up in the working set.
func (j *Journal) Entry(id string) (models.Entry, error) {
	e, ok := j.store.Get(id)
	if !ok {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	return e, nil
}

func (j *Journal) Create(ctx context.Context, draft models.Draft) (models.Entry, error) {
	if err := draft.Validate(j.now()); err != nil {
		return models.Entry{}, err
	}

	created, err := j.backend.CreateEntry(ctx, draft)
	if err != nil {
		if !j.offlineApplies(err) {
			return models.Entry{}, fmt.Errorf("create entry: %w", err)
		}
		id := draft.ID
		if id == "" {
			id = backend.NewEntryID(j.now())
		}
		created = draft.Entry(id)
		j.store.Put(created)
		j.persist(ctx)
		j.record(func(a AuditLog) { a.Created(ctx, created) })
		return created, fmt.Errorf("create entry: %w", err)
	}

	j.store.Put(created)
	j.record(func(a AuditLog) { a.Created(ctx, created) })
	return created, nil
}

// Update replaces every mutable field of id with the draft. The read flag
// is taken from the draft, so edits built with models.DraftOf keep it.
func (j *Journal) Update(ctx context.Context, id string, draft models.Draft) (models.Entry, error) {
	before, err := j.Entry(id)
	if err != nil {
		return models.Entry{}, err
	}
	if err := draft.Validate(j.now()); err != nil {
		return models.Entry{}, err
	}
	return j.update(ctx, before, draft.Entry(id))
}

// Open returns the entry and marks it read if it was not. A failure to mark
// it is logged; the entry is returned as stored.
func (j *Journal) Open(ctx context.Context, id string) (models.Entry, error) {
	e, err := j.Entry(id)
	if err != nil {
		return models.Entry{}, err
	}
	if e.Read {
		return e, nil
	}

	updated, err := j.update(ctx, e, e.WithRead(true))
	switch {
	case err == nil:
		return updated, nil
	case j.offlineApplies(err):
		return updated, nil
	default:
		j.logger.Warn(ctx, "marking entry read failed", "id", id, "error", err)
		return e, nil
	}
}

func (j *Journal) ToggleRead(ctx context.Context, id string) (models.Entry, error) {
	e, err := j.Entry(id)
	if err != nil {
		return models.Entry{}, err
	}
	return j.update(ctx, e, e.WithRead(!e.Read))
}

func (j *Journal) update(ctx context.Context, before, after models.Entry) (models.Entry, error) {
	confirmed, err := j.backend.UpdateEntry(ctx, before.ID, after)
	if err != nil {
		if !j.offlineApplies(err) {
			return models.Entry{}, fmt.Errorf("update entry: %w", err)
		}
		j.store.Put(after)
		j.persist(ctx)
		j.record(func(a AuditLog) { a.Updated(ctx, before, after) })
		return after, fmt.Errorf("update entry: %w", err)
	}

	j.store.Put(confirmed)
	j.record(func(a AuditLog) { a.Updated(ctx, before, confirmed) })
	return confirmed, nil
}

// Delete removes id. The removed entry survives in the audit log.
func (j *Journal) Delete(ctx context.Context, id string) (models.Entry, error) {
	removed, err := j.backend.DeleteEntry(ctx, id)
	if err != nil {
		before, ok := j.store.Get(id)
		if !ok || !j.offlineApplies(err) {
			return models.Entry{}, fmt.Errorf("delete entry: %w", err)
		}
		j.store.Remove(id)
		j.persist(ctx)
		j.record(func(a AuditLog) { a.Deleted(ctx, before) })
		return before, fmt.Errorf("delete entry: %w", err)
	}

	j.store.Remove(id)
	j.record(func(a AuditLog) { a.Deleted(ctx, removed) })
	return removed, nil
}

func (j *Journal) Log(ctx context.Context) ([]models.LogRecord, error) {
	if j.log == nil {
		return nil, ErrLogUnavailable
	}
	return j.log.ListLog(ctx)
}

// Seed runs the one-time remote bootstrap.
func (j *Journal) Seed(ctx context.Context) seed.Result {
	if j.seeder == nil {
		return seed.Result{Skipped: true, Reason: "remote store not configured"}
	}
	return j.seeder.Seed(ctx)
}

// Sync re-merges the bundled datasets into the remote store and reloads the
// working set when entries were written.
func (j *Journal) Sync(ctx context.Context, withLog bool) seed.Result {
	if j.seeder == nil {
		return seed.Result{Skipped: true, Reason: "remote store not configured"}
	}
	res := j.seeder.Sync(ctx, withLog)
	if res.EntriesUpserted > 0 {
		j.Load(ctx)
	}
	return res
}

func (j *Journal) offlineApplies(err error) bool {
	return j.offline && errors.Is(err, common.ErrLocalFallback)
}

func (j *Journal) persist(ctx context.Context) {
	if j.snapshot == nil {
		return
	}
	if err := j.snapshot.SaveEntries(ctx, j.store.NavigationOrder()); err != nil {
		j.logger.Warn(ctx, "saving local snapshot failed", "error", err)
	}
}

func (j *Journal) record(fn func(AuditLog)) {
	if j.audit != nil {
		fn(j.audit)
	}
}
