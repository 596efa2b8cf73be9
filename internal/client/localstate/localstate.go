// Package localstate persists the journal's client-side state in the local
// key/value store: the entry collection and audit log used in local-fallback
// mode, and the seed sync-state record.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/normalize"
	"github.com/Racej255/CrosslandApocalypse/internal/client/repositories/metadata"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

const (
	KeyEntries = "crossland.entries"
	KeyLog     = "crossland.entryLog"
	KeySeeded  = "crossland.seeded"

	// KeyLogBackup holds the last stored log that could not be decoded.
	KeyLogBackup = "crossland.entryLog.unreadable"
)

// SyncState records the outcome of the one-time seed. Done is set even when
// a step failed; LastError keeps the failure visible.
type SyncState struct {
	Done            bool      `json:"done"`
	SeededAt        time.Time `json:"seededAt"`
	EntriesUpserted int       `json:"entriesUpserted"`
	LogAppended     int       `json:"logAppended"`
	LastError       string    `json:"lastError,omitempty"`
}

type Store struct {
	repo metadata.Repository
	norm *normalize.Normalizer

	// logMu serializes read-modify-write of the log collection.
	logMu sync.Mutex
}

func New(repo metadata.Repository, norm *normalize.Normalizer) *Store {
	if norm == nil {
		norm = normalize.New()
	}
	return &Store{repo: repo, norm: norm}
}

// LoadEntries returns the stored entries, nil when none were ever stored,
// or *common.ParseError when the stored value is not a JSON array of
// entries.
func (s *Store) LoadEntries(ctx context.Context) ([]models.Entry, error) {
	var raws []models.RawEntry
	ok, err := s.load(ctx, KeyEntries, &raws)
	if !ok || err != nil {
		return nil, err
	}
	if raws == nil {
		raws = []models.RawEntry{}
	}
	return s.norm.Entries(raws), nil
}

func (s *Store) SaveEntries(ctx context.Context, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	return s.save(ctx, KeyEntries, entries)
}

// LoadLog returns the stored log; absent or malformed data reads as empty
// with the parse error returned alongside.
func (s *Store) LoadLog(ctx context.Context) ([]models.LogRecord, error) {
	var raws []models.RawLogRecord
	ok, err := s.load(ctx, KeyLog, &raws)
	if !ok || err != nil {
		return []models.LogRecord{}, err
	}
	return s.norm.LogRecords(raws), nil
}

// AppendLog implements audit.Sink over the local log collection. A
// malformed stored log is moved to KeyLogBackup before a fresh log is
// started, so no new record is blocked and no old one is lost. A failed
// read writes nothing.
func (s *Store) AppendLog(ctx context.Context, records []models.LogRecord) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	log, err := s.LoadLog(ctx)
	var perr *common.ParseError
	switch {
	case errors.As(err, &perr):
		if err := s.backupLog(ctx); err != nil {
			return err
		}
		log = []models.LogRecord{}
	case err != nil:
		return fmt.Errorf("read %s: %w", KeyLog, err)
	}
	log = append(log, records...)
	return s.save(ctx, KeyLog, log)
}

func (s *Store) backupLog(ctx context.Context) error {
	raw, err := s.repo.Get(ctx, KeyLog)
	if err != nil {
		return fmt.Errorf("read %s: %w", KeyLog, err)
	}
	if err := s.repo.Set(ctx, KeyLogBackup, raw); err != nil {
		return fmt.Errorf("back up %s: %w", KeyLog, err)
	}
	return nil
}

// SyncState returns the seed record and whether one exists. A bare boolean
// (the older form of the flag) is accepted.
func (s *Store) SyncState(ctx context.Context) (SyncState, bool, error) {
	raw, err := s.repo.Get(ctx, KeySeeded)
	if err != nil {
		return SyncState{}, false, err
	}
	if raw == nil {
		return SyncState{}, false, nil
	}

	var st SyncState
	if err := json.Unmarshal(raw, &st); err == nil {
		return st, true, nil
	}
	var legacy any
	if err := json.Unmarshal(raw, &legacy); err == nil {
		switch v := legacy.(type) {
		case bool:
			return SyncState{Done: v}, true, nil
		case string:
			return SyncState{Done: v == "true" || v == "1"}, true, nil
		}
	}
	return SyncState{}, false, &common.ParseError{Source: KeySeeded, Err: fmt.Errorf("unrecognised value %s", raw)}
}

func (s *Store) SaveSyncState(ctx context.Context, st SyncState) error {
	return s.save(ctx, KeySeeded, st)
}

func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &common.ParseError{Source: key, Err: err}
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.repo.Set(ctx, key, b)
}
