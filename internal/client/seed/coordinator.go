// Package seed bootstraps a remote store from the bundled datasets.
//
// Seed runs once per client: it probes the remote entries and log tables
// concurrently, fills whichever is empty, and then marks the local sync-state
// record done, even if a step failed. A failed seed is not retried on later
// starts; the failure stays visible in SyncState.LastError and Sync is the
// explicit recovery path.
//
// Both paths merge by id: an incoming entry whose id already exists replaces
// the stored one.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/localstate"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/logid"
	"golang.org/x/sync/errgroup"
)

// Remote is the seeding surface of a remote store.
type Remote interface {
	HasEntries(ctx context.Context) (bool, error)
	HasLog(ctx context.Context) (bool, error)
	UpsertEntries(ctx context.Context, entries []models.Entry) error
	AppendLog(ctx context.Context, records []models.LogRecord) error
}

// Datasets supplies the bundled data. Nil results mean nothing to seed.
type Datasets interface {
	Entries(ctx context.Context) ([]models.Entry, error)
	Log(ctx context.Context) ([]models.LogRecord, error)
}

// StateStore persists the once-only seed record.
type StateStore interface {
	SyncState(ctx context.Context) (localstate.SyncState, bool, error)
	SaveSyncState(ctx context.Context, st localstate.SyncState) error
}

// Result describes what one Seed or Sync call did. Errors are collected,
// never returned: the journal must start even when seeding fails.
type Result struct {
	Skipped         bool
	Reason          string
	EntriesUpserted int
	LogAppended     int
	Errors          []error
}

func (r Result) Err() error { return errors.Join(r.Errors...) }

type Coordinator struct {
	remote Remote
	data   Datasets
	state  StateStore
	logger logging.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewCoordinator builds a coordinator. remote is nil when no remote store is
// configured, which turns both Seed and Sync into no-ops.
func NewCoordinator(remote Remote, data Datasets, state StateStore, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Coordinator{
		remote: remote,
		data:   data,
		state:  state,
		logger: logger.With("module", "seed"),
		now:    time.Now,
	}
}

// Seed populates empty remote tables from the bundled datasets, once.
func (c *Coordinator) Seed(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remote == nil {
		return Result{Skipped: true, Reason: "remote store not configured"}
	}

	st, ok, err := c.state.SyncState(ctx)
	if err != nil {
		c.logger.Warn(ctx, "sync state unreadable, seeding again", "error", err)
	}
	if ok && st.Done {
		reason := "already seeded"
		if st.LastError != "" {
			reason += " (last attempt failed: " + st.LastError + "; run sync to retry)"
		}
		return Result{Skipped: true, Reason: reason}
	}

	var (
		res                Result
		hasEntries, hasLog bool
		entriesErr, logErr error
		g                  errgroup.Group
	)
	g.Go(func() error {
		hasEntries, entriesErr = c.remote.HasEntries(ctx)
		return nil
	})
	g.Go(func() error {
		hasLog, logErr = c.remote.HasLog(ctx)
		return nil
	})
	_ = g.Wait()

	switch {
	case entriesErr != nil:
		res.Errors = append(res.Errors, fmt.Errorf("probe entries: %w", entriesErr))
	case !hasEntries:
		n, err := c.upsertEntries(ctx)
		res.EntriesUpserted = n
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	switch {
	case logErr != nil:
		res.Errors = append(res.Errors, fmt.Errorf("probe log: %w", logErr))
	case !hasLog:
		n, err := c.appendLog(ctx)
		res.LogAppended = n
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	done := localstate.SyncState{
		Done:            true,
		SeededAt:        c.now().UTC(),
		EntriesUpserted: res.EntriesUpserted,
		LogAppended:     res.LogAppended,
	}
	if err := res.Err(); err != nil {
		done.LastError = err.Error()
		c.logger.Warn(ctx, "seed finished with errors", "error", err)
	}
	if err := c.state.SaveSyncState(ctx, done); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("save sync state: %w", err))
		c.logger.Error(ctx, "saving sync state failed", "error", err)
	}

	c.logger.Info(ctx, "seed complete", "entries", res.EntriesUpserted, "log", res.LogAppended)
	return res
}

// Sync upserts the bundled entries regardless of the seed flag, and appends
// the bundled log too when withLog is set. The seed record is left alone.
func (c *Coordinator) Sync(ctx context.Context, withLog bool) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remote == nil {
		return Result{Skipped: true, Reason: "remote store not configured"}
	}

	var res Result
	n, err := c.upsertEntries(ctx)
	res.EntriesUpserted = n
	if err != nil {
		res.Errors = append(res.Errors, err)
	}

	if withLog {
		n, err := c.appendLog(ctx)
		res.LogAppended = n
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	if err := res.Err(); err != nil {
		c.logger.Warn(ctx, "sync finished with errors", "error", err)
	} else {
		c.logger.Info(ctx, "sync complete", "entries", res.EntriesUpserted, "log", res.LogAppended)
	}
	return res
}

func (c *Coordinator) upsertEntries(ctx context.Context) (int, error) {
	entries, err := c.data.Entries(ctx)
	if err != nil {
		c.logger.Warn(ctx, "entries dataset unusable, nothing to seed", "error", err)
		return 0, nil
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := c.remote.UpsertEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("upsert entries: %w", err)
	}
	return len(entries), nil
}

func (c *Coordinator) appendLog(ctx context.Context) (int, error) {
	records, err := c.data.Log(ctx)
	if err != nil {
		c.logger.Warn(ctx, "log dataset unusable, nothing to seed", "error", err)
		return 0, nil
	}
	if len(records) == 0 {
		return 0, nil
	}

	now := c.now().UTC()
	for i := range records {
		if records[i].Timestamp.IsZero() {
			records[i].Timestamp = now
		}
		if records[i].ID == "" {
			records[i].ID = logid.New(records[i].Timestamp)
		}
	}

	if err := c.remote.AppendLog(ctx, records); err != nil {
		return 0, fmt.Errorf("append log: %w", err)
	}
	return len(records), nil
}
