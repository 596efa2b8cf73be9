// Package storage defines the archive server's persistence contract. The
// implementations live in the jsonfile and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
)

var (
	// ErrConflict is returned by InsertEntry when the id is already taken.
	ErrConflict = errors.New("entry already exists")

	// ErrUnreadable is returned by a mutation whose stored document could not
	// be read or decoded. Nothing is written in that case.
	ErrUnreadable = errors.New("stored document unreadable")
)

// Storage keeps the entry collection and the append-only audit log.
// Lookups of a missing id return *common.NotFoundError.
type Storage interface {
	ListEntries(ctx context.Context) ([]models.Entry, error)
	GetEntry(ctx context.Context, id string) (models.Entry, error)
	InsertEntry(ctx context.Context, e models.Entry) error
	ReplaceEntry(ctx context.Context, e models.Entry) error
	DeleteEntry(ctx context.Context, id string) (models.Entry, error)

	// UpsertEntries inserts or overwrites each entry by id.
	UpsertEntries(ctx context.Context, entries []models.Entry) error

	// AppendLog adds records to the log. A record whose id is already stored
	// is skipped, so replaying a batch is harmless.
	AppendLog(ctx context.Context, records []models.LogRecord) error
	ListLog(ctx context.Context) ([]models.LogRecord, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
