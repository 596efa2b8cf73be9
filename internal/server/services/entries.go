// Package services holds the archive server's entry operations. Each
// mutation runs under one lock so read-modify-write cycles never interleave
// within the process.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/logid"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
)

type EntryService struct {
	mu     sync.Mutex
	store  storage.Storage
	logger logging.Logger
	now    func() time.Time
}

func NewEntryService(store storage.Storage, logger logging.Logger) *EntryService {
	return &EntryService{
		store:  store,
		logger: logger.With("module", "services"),
		now:    time.Now,
	}
}

/*** archive operations: every mutation appends its own log record ***/

func (s *EntryService) List(ctx context.Context) ([]models.Entry, error) {
	return s.store.ListEntries(ctx)
}

// Create stores a new entry built from in with defaults applied. A taken id
// fails with storage.ErrConflict.
func (s *EntryService) Create(ctx context.Context, in models.Fields) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := models.NewEntry(in, s.now())
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", common.ErrInvalidEntry, err)
	}
	if err := s.store.InsertEntry(ctx, e); err != nil {
		return models.Entry{}, err
	}

	s.appendLog(ctx, models.LogRecord{Action: models.ActionCreate, Entry: &e})
	return e, nil
}

// Update merges patch over the stored entry. A missing id fails with
// *common.NotFoundError.
func (s *EntryService) Update(ctx context.Context, id string, patch models.Fields) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return models.Entry{}, err
	}
	after, err := models.Merge(before, patch)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", common.ErrInvalidEntry, err)
	}
	if err := s.store.ReplaceEntry(ctx, after); err != nil {
		return models.Entry{}, err
	}

	s.appendLog(ctx, models.LogRecord{Action: models.ActionUpdate, Before: &before, After: &after})
	return after, nil
}

func (s *EntryService) Delete(ctx context.Context, id string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return models.Entry{}, err
	}

	s.appendLog(ctx, models.LogRecord{Action: models.ActionDelete, Entry: &removed})
	return removed, nil
}

// appendLog stamps and stores one record. A failure is logged; the
// mutation it describes has already been applied.
func (s *EntryService) appendLog(ctx context.Context, r models.LogRecord) {
	now := s.now().UTC()
	r.ID = logid.New(now)
	r.Timestamp = now

	if err := s.store.AppendLog(ctx, []models.LogRecord{r}); err != nil {
		s.logger.Error(ctx, "log append failed", "action", r.Action, "entry", r.EntryID(), "error", err)
	}
}

/*** table operations: callers write their own log records ***/

// Insert creates rows. With merge set an existing id is overwritten by the
// given fields instead of failing.
func (s *EntryService) Insert(ctx context.Context, rows []models.Fields, merge bool) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]models.Entry, 0, len(rows))
	for i, row := range rows {
		e, err := s.rowEntry(ctx, row, merge, now.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	if merge {
		if err := s.store.UpsertEntries(ctx, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	seen := make(map[string]struct{}, len(out))
	for _, e := range out {
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("insert %s: %w", e.ID, storage.ErrConflict)
		}
		seen[e.ID] = struct{}{}
	}
	for _, e := range out {
		if err := s.store.InsertEntry(ctx, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *EntryService) rowEntry(ctx context.Context, row models.Fields, merge bool, now time.Time) (models.Entry, error) {
	fresh, err := models.NewEntry(row, now)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", common.ErrInvalidEntry, err)
	}
	if !merge {
		return fresh, nil
	}

	prev, err := s.store.GetEntry(ctx, fresh.ID)
	if errors.Is(err, common.ErrNotFound) {
		return fresh, nil
	}
	if err != nil {
		return models.Entry{}, err
	}
	merged, err := models.Merge(prev, row)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %v", common.ErrInvalidEntry, err)
	}
	return merged, nil
}

// Patch merges fields over the row with the given id. No match yields an
// empty result, not an error.
func (s *EntryService) Patch(ctx context.Context, id string, patch models.Fields) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.store.GetEntry(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return []models.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	next, err := models.Merge(prev, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidEntry, err)
	}
	if err := s.store.ReplaceEntry(ctx, next); err != nil {
		return nil, err
	}
	return []models.Entry{next}, nil
}

// Remove deletes the row with the given id. No match yields an empty
// result.
func (s *EntryService) Remove(ctx context.Context, id string) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteEntry(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return []models.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.Entry{removed}, nil
}

// AppendLog stores records as given, filling a missing id or timestamp.
// The batch is rejected whole if any record fails models.LogRecord.Check.
func (s *EntryService) AppendLog(ctx context.Context, records []models.LogRecord) error {
	for _, r := range records {
		if err := r.Check(); err != nil {
			return err
		}
	}
	now := s.now().UTC()
	for i := range records {
		if records[i].Timestamp.IsZero() {
			records[i].Timestamp = now
		}
		if records[i].ID == "" {
			records[i].ID = logid.New(records[i].Timestamp)
		}
	}
	return s.store.AppendLog(ctx, records)
}

func (s *EntryService) ListLog(ctx context.Context) ([]models.LogRecord, error) {
	return s.store.ListLog(ctx)
}

func (s *EntryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
