package backend

import (
	"context"
	"fmt"

	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
)

// Snapshot is the locally persisted entry collection.
type Snapshot interface {
	LoadEntries(ctx context.Context) ([]models.Entry, error)
}

// Local is the read-only fallback used when no remote store is configured.
type Local struct {
	snapshot Snapshot
	logger   logging.Logger
}

// NewLocal builds the fallback backend. snapshot may be nil, in which case
// only the sample entries are listed.
func NewLocal(snapshot Snapshot, logger logging.Logger) *Local {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Local{snapshot: snapshot, logger: logger.With("module", "backend", "backend", "local")}
}

func (b *Local) Name() string { return "local" }
func (b *Local) Remote() bool { return false }

// ListEntries returns the persisted local entries, or the samples when none
// are stored or the snapshot is unreadable.
func (b *Local) ListEntries(ctx context.Context) []models.Entry {
	if b.snapshot == nil {
		return dataset.Sample()
	}
	entries, err := b.snapshot.LoadEntries(ctx)
	if err != nil {
		b.logger.Warn(ctx, "local snapshot unreadable, using sample data", "error", err)
		return dataset.Sample()
	}
	if entries == nil {
		return dataset.Sample()
	}
	return entries
}

func (b *Local) CreateEntry(ctx context.Context, draft models.Draft) (models.Entry, error) {
	return models.Entry{}, fmt.Errorf("create entry: %w", common.ErrLocalFallback)
}

func (b *Local) UpdateEntry(ctx context.Context, id string, entry models.Entry) (models.Entry, error) {
	return models.Entry{}, fmt.Errorf("update entry %s: %w", id, common.ErrLocalFallback)
}

func (b *Local) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	return models.Entry{}, fmt.Errorf("delete entry %s: %w", id, common.ErrLocalFallback)
}
