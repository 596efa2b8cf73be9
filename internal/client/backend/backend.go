package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/google/uuid"
)

// Backend executes entry CRUD against the configured store of record.
type Backend interface {
	// Name identifies the backend in logs and status lines.
	Name() string

	// Remote reports whether a remote store is configured.
	Remote() bool

	// ListEntries returns every stored entry, or the bundled samples when the
	// store cannot be read.
	ListEntries(ctx context.Context) []models.Entry

	CreateEntry(ctx context.Context, draft models.Draft) (models.Entry, error)
	UpdateEntry(ctx context.Context, id string, entry models.Entry) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) (models.Entry, error)
}

// newRandom is swapped in tests to exercise the timestamp fallback.
var newRandom = uuid.NewRandom

// NewEntryID returns a random UUID, or "entry-<unix ms>" when no randomness
// source is available.
func NewEntryID(now time.Time) string {
	id, err := newRandom()
	if err != nil {
		return fmt.Sprintf("entry-%d", now.UnixMilli())
	}
	return id.String()
}
