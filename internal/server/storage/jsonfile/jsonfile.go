// Package jsonfile keeps the entry collection and the audit log as two JSON
// documents in a blob.Store. Every operation reads and rewrites the whole
// document; a mutex serializes the read-modify-write cycles of one process.
// A mutation never rewrites a document it failed to read.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/blob"
)

type Store struct {
	mu      sync.Mutex
	blobs   blob.Store
	entries string
	log     string
	logger  logging.Logger
}

var _ storage.Storage = (*Store)(nil)

// New returns a store over blobs using the given document names.
func New(blobs blob.Store, entriesName, logName string, logger logging.Logger) *Store {
	return &Store{
		blobs:   blobs,
		entries: entriesName,
		log:     logName,
		logger:  logger.With("module", "jsonfile"),
	}
}

// ListEntries degrades to an empty collection when the document cannot be
// read, so the archive always renders.
func (s *Store) ListEntries(ctx context.Context) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		s.logger.Warn(ctx, "unreadable document, listing as empty", "name", s.entries, "error", err)
		return []models.Entry{}, nil
	}
	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	if i := indexOf(entries, id); i >= 0 {
		return entries[i], nil
	}
	return models.Entry{}, &common.NotFoundError{ID: id}
}

func (s *Store) InsertEntry(ctx context.Context, e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return err
	}
	if indexOf(entries, e.ID) >= 0 {
		return fmt.Errorf("insert %s: %w", e.ID, storage.ErrConflict)
	}
	return s.write(ctx, s.entries, append(entries, e))
}

func (s *Store) ReplaceEntry(ctx context.Context, e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return err
	}
	i := indexOf(entries, e.ID)
	if i < 0 {
		return &common.NotFoundError{ID: e.ID}
	}
	entries[i] = e
	return s.write(ctx, s.entries, entries)
}

func (s *Store) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	removed := entries[i]
	entries = append(entries[:i], entries[i+1:]...)
	if err := s.write(ctx, s.entries, entries); err != nil {
		return models.Entry{}, err
	}
	return removed, nil
}

func (s *Store) UpsertEntries(ctx context.Context, batch []models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return err
	}
	for _, e := range batch {
		if i := indexOf(entries, e.ID); i >= 0 {
			entries[i] = e
		} else {
			entries = append(entries, e)
		}
	}
	return s.write(ctx, s.entries, entries)
}

func (s *Store) AppendLog(ctx context.Context, records []models.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.readLog(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(log)+len(records))
	for _, r := range log {
		seen[r.ID] = struct{}{}
	}
	added := 0
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		log = append(log, r)
		added++
	}
	if added == 0 {
		return nil
	}
	return s.write(ctx, s.log, log)
}

func (s *Store) ListLog(ctx context.Context) ([]models.LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.readLog(ctx)
	if err != nil {
		s.logger.Warn(ctx, "unreadable document, listing as empty", "name", s.log, "error", err)
		return []models.LogRecord{}, nil
	}
	return log, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.blobs.Ping(ctx)
}

func (s *Store) Close() error { return nil }

// readEntries accepts a bare array or an object with an "entries" array.
// Only a document that was never written reads as empty; any other failure
// wraps storage.ErrUnreadable.
func (s *Store) readEntries(ctx context.Context) ([]models.Entry, error) {
	data, err := s.read(ctx, s.entries)
	if err != nil || data == nil {
		return []models.Entry{}, err
	}

	var list []models.Entry
	if err := json.Unmarshal(data, &list); err == nil {
		return nonNil(list), nil
	}

	var wrapped struct {
		Entries []models.Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, unreadable(s.entries, &common.ParseError{Source: s.entries, Err: err})
	}
	return nonNil(wrapped.Entries), nil
}

func (s *Store) readLog(ctx context.Context) ([]models.LogRecord, error) {
	data, err := s.read(ctx, s.log)
	if err != nil || data == nil {
		return []models.LogRecord{}, err
	}

	var log []models.LogRecord
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, unreadable(s.log, &common.ParseError{Source: s.log, Err: err})
	}
	return nonNil(log), nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.blobs.Get(ctx, name)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil, nil
		}
		return nil, unreadable(name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// unreadable wraps storage.ErrUnreadable. cause is formatted, not wrapped,
// so a stored ParseError is not reported as a bad request.
func unreadable(name string, cause error) error {
	return fmt.Errorf("%w: %s: %v", storage.ErrUnreadable, name, cause)
}

func (s *Store) write(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func indexOf(entries []models.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
