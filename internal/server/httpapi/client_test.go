package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/backend"
	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	cmodels "github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/seed"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var draft = cmodels.Draft{
	ID:          "e1",
	Name:        "Rhea",
	Date:        "2039-04-18",
	Title:       "Smoke on the ridge",
	ContentHTML: "<p>Ash fell all night.</p>",
}

// The journal's REST backend drives the table routes end to end.
func TestRESTBackendRoundTrip(t *testing.T) {
	secret := []byte("jwt-secret")
	key, err := auth.GenerateToken("anon", secret, 0)
	require.NoError(t, err)

	e := newEnv(t, Options{JWTSecret: secret})
	b := backend.NewREST(backend.Options{BaseURL: e.srv.URL, APIKey: key})
	ctx := context.Background()

	has, err := b.HasEntries(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	created, err := b.CreateEntry(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, draft.Entry("e1"), created)

	updated, err := b.UpdateEntry(ctx, "e1", created.WithRead(true))
	require.NoError(t, err)
	assert.True(t, updated.Read)

	_, err = b.UpdateEntry(ctx, "nope", created)
	assert.ErrorIs(t, err, common.ErrNotFound)

	at := time.Date(2039, 4, 18, 21, 14, 0, 0, time.UTC)
	require.NoError(t, b.AppendLog(ctx, []cmodels.LogRecord{
		{ID: "log-1", Timestamp: at, Action: cmodels.ActionCreate, Entry: &created},
		{ID: "log-2", Timestamp: at.Add(time.Minute), Action: cmodels.ActionUpdate, Before: &created, After: &updated},
	}))

	log, err := b.ListLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, cmodels.ActionUpdate, log[1].Action)
	assert.Equal(t, updated, *log[1].After)

	second := draft.Entry("e2")
	require.NoError(t, b.UpsertEntries(ctx, []cmodels.Entry{updated.WithRead(false), second}))

	entries := b.ListEntries(ctx)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Read)

	removed, err := b.DeleteEntry(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, second, removed)

	_, err = b.DeleteEntry(ctx, "e2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRESTBackendRejectedKey(t *testing.T) {
	e := newEnv(t, Options{JWTSecret: []byte("jwt-secret")})
	b := backend.NewREST(backend.Options{BaseURL: e.srv.URL, APIKey: "anon"})

	_, err := b.CreateEntry(context.Background(), draft)
	assert.ErrorIs(t, err, common.ErrTransport)
}

// The archive backend drives the /api routes.
func TestArchiveBackendRoundTrip(t *testing.T) {
	e := newEnv(t, Options{})
	b := backend.NewArchive(backend.Options{BaseURL: e.srv.URL})
	ctx := context.Background()

	created, err := b.CreateEntry(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, draft.Entry("e1"), created)

	updated, err := b.UpdateEntry(ctx, "e1", created.WithRead(true))
	require.NoError(t, err)
	assert.True(t, updated.Read)

	entries := b.ListEntries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, updated, entries[0])

	_, err = b.DeleteEntry(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	removed, err := b.DeleteEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, updated, removed)

	log, err := e.store.ListLog(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 3)
}

// Repeating a sync with the bundled log leaves one copy of each record.
func TestSyncWithLogTwice(t *testing.T) {
	e := newEnv(t, Options{})
	b := backend.NewREST(backend.Options{BaseURL: e.srv.URL})
	c := seed.NewCoordinator(b, dataset.NewLoader("", nil), nil, nil)
	ctx := context.Background()

	first := c.Sync(ctx, true)
	require.NoError(t, first.Err())
	assert.Equal(t, 4, first.EntriesUpserted)
	assert.Equal(t, 4, first.LogAppended)

	second := c.Sync(ctx, true)
	require.NoError(t, second.Err())

	log, err := b.ListLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 4)
	seen := map[string]bool{}
	for _, r := range log {
		assert.False(t, seen[r.ID], "duplicate %s", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, b.ListEntries(ctx), 4)
}
