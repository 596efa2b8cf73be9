package journal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/backend"
	"github.com/Racej255/CrosslandApocalypse/internal/client/client"
	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	"github.com/Racej255/CrosslandApocalypse/internal/client/localstate"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/repositories/metadata"
	"github.com/Racej255/CrosslandApocalypse/internal/client/seed"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2039, 5, 1, 9, 0, 0, 0, time.UTC)

/*** fakes ***/

// fakeRemote keeps a confirmed store of record in memory.
type fakeRemote struct {
	backend.Backend

	mu      sync.Mutex
	entries map[string]models.Entry
	err     error
	updates []models.Entry
}

func newFakeRemote(entries ...models.Entry) *fakeRemote {
	f := &fakeRemote{entries: map[string]models.Entry{}}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

func (f *fakeRemote) Name() string { return "fake" }
func (f *fakeRemote) Remote() bool { return true }

func (f *fakeRemote) ListEntries(ctx context.Context) []models.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out
}

func (f *fakeRemote) CreateEntry(ctx context.Context, d models.Draft) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Entry{}, f.err
	}
	id := d.ID
	if id == "" {
		id = "generated"
	}
	e := d.Entry(id)
	f.entries[id] = e
	return e, nil
}

func (f *fakeRemote) UpdateEntry(ctx context.Context, id string, e models.Entry) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, e)
	if f.err != nil {
		return models.Entry{}, f.err
	}
	if _, ok := f.entries[id]; !ok {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	f.entries[id] = e
	return e, nil
}

func (f *fakeRemote) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Entry{}, f.err
	}
	e, ok := f.entries[id]
	if !ok {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	delete(f.entries, id)
	return e, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	records []models.LogRecord
}

func (a *fakeAudit) add(r models.LogRecord) models.LogRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
	return r
}

func (a *fakeAudit) Created(ctx context.Context, e models.Entry) models.LogRecord {
	return a.add(models.LogRecord{Action: models.ActionCreate, Entry: &e})
}

func (a *fakeAudit) Updated(ctx context.Context, before, after models.Entry) models.LogRecord {
	return a.add(models.LogRecord{Action: models.ActionUpdate, Before: &before, After: &after})
}

func (a *fakeAudit) Deleted(ctx context.Context, e models.Entry) models.LogRecord {
	return a.add(models.LogRecord{Action: models.ActionDelete, Entry: &e})
}

type fakeSeeder struct {
	seeds, syncs int
	res          seed.Result
}

func (s *fakeSeeder) Seed(ctx context.Context) seed.Result { s.seeds++; return s.res }
func (s *fakeSeeder) Sync(ctx context.Context, withLog bool) seed.Result {
	s.syncs++
	return s.res
}

func setup(t *testing.T, remote backend.Backend) (*Journal, *fakeAudit) {
	t.Helper()
	a := &fakeAudit{}
	j := New(Options{Backend: remote, Audit: a, Now: func() time.Time { return testNow }})
	j.Load(context.Background())
	return j, a
}

func validDraft() models.Draft {
	return models.Draft{Name: "Rhea Crossland", Date: "2039-05-01", Title: "Quiet morning", ContentHTML: "<p>No smoke today.</p>"}
}

/*** remote backend ***/

func TestLoad_ReplacesStore(t *testing.T) {
	j, _ := setup(t, newFakeRemote(dataset.Sample()...))
	assert.Equal(t, 4, j.Store().Len())
}

func TestCreate_StoresConfirmedEntryAndAudits(t *testing.T) {
	remote := newFakeRemote()
	j, a := setup(t, remote)

	e, err := j.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, "generated", e.ID)

	got, ok := j.Store().Get("generated")
	require.True(t, ok)
	assert.Equal(t, e, got)

	require.Len(t, a.records, 1)
	assert.Equal(t, models.ActionCreate, a.records[0].Action)
	assert.Equal(t, e, *a.records[0].Entry)
}

func TestCreate_InvalidDraftDoesNoIO(t *testing.T) {
	remote := newFakeRemote()
	j, a := setup(t, remote)

	d := validDraft()
	d.ContentHTML = "<p>  </p>"
	_, err := j.Create(context.Background(), d)

	assert.ErrorIs(t, err, common.ErrInvalidEntry)
	assert.Empty(t, remote.entries)
	assert.Empty(t, a.records)
}

func TestCreate_FailureLeavesStoreUnchanged(t *testing.T) {
	remote := newFakeRemote(dataset.Sample()...)
	j, a := setup(t, remote)
	remote.err = &common.TransportError{Op: "create entry", StatusCode: 500}

	_, err := j.Create(context.Background(), validDraft())

	assert.ErrorIs(t, err, common.ErrTransport)
	assert.Equal(t, 4, j.Store().Len())
	assert.Empty(t, a.records)
}

func TestUpdate_ToggleReadCarriesFullEntry(t *testing.T) {
	remote := newFakeRemote(dataset.Sample()...)
	j, a := setup(t, remote)
	before, _ := j.Store().Get("e2")

	after, err := j.ToggleRead(context.Background(), "e2")
	require.NoError(t, err)

	assert.Equal(t, before.WithRead(!before.Read), after)
	require.Len(t, remote.updates, 1)
	assert.Equal(t, after, remote.updates[0])

	// A fresh load returns the same entry with only read changed.
	j.Load(context.Background())
	reloaded, _ := j.Store().Get("e2")
	assert.Equal(t, before.WithRead(!before.Read), reloaded)

	require.Len(t, a.records, 1)
	assert.Equal(t, before, *a.records[0].Before)
	assert.Equal(t, after, *a.records[0].After)
}

func TestUpdate_EditKeepsReadFlag(t *testing.T) {
	e := models.Entry{ID: "x", Name: "A", Date: "2039-04-01", Title: "T", ContentHTML: "<p>a</p>", Read: true}
	j, _ := setup(t, newFakeRemote(e))

	d := models.DraftOf(e)
	d.Title = "Retitled"
	got, err := j.Update(context.Background(), "x", d)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.Equal(t, "Retitled", got.Title)
}

func TestUpdate_RemoteNotFound(t *testing.T) {
	e := dataset.Sample()[0]
	remote := newFakeRemote(e)
	j, a := setup(t, remote)
	delete(remote.entries, e.ID)

	_, err := j.ToggleRead(context.Background(), e.ID)

	var nf *common.NotFoundError
	require.ErrorAs(t, err, &nf)
	got, ok := j.Store().Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, e, got)
	assert.Empty(t, a.records)
}

func TestUpdate_UnknownID(t *testing.T) {
	j, _ := setup(t, newFakeRemote())
	_, err := j.Update(context.Background(), "nope", validDraft())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOpen_MarksUnreadAsRead(t *testing.T) {
	e := models.Entry{ID: "u", Name: "A", Date: "2039-04-01", Title: "T", ContentHTML: "<p>a</p>"}
	remote := newFakeRemote(e)
	j, a := setup(t, remote)

	got, err := j.Open(context.Background(), "u")
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.Len(t, a.records, 1)

	// Already read: no further update.
	_, err = j.Open(context.Background(), "u")
	require.NoError(t, err)
	assert.Len(t, remote.updates, 1)
}

func TestOpen_MarkFailureStillReturnsEntry(t *testing.T) {
	e := models.Entry{ID: "u", Name: "A", Date: "2039-04-01", Title: "T"}
	remote := newFakeRemote(e)
	j, _ := setup(t, remote)
	remote.err = errors.New("offline")

	got, err := j.Open(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestDelete_PreservesHistory(t *testing.T) {
	remote := newFakeRemote(dataset.Sample()...)
	j, a := setup(t, remote)
	before, _ := j.Store().Get("e1")

	removed, err := j.Delete(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, before, removed)

	_, ok := j.Store().Get("e1")
	assert.False(t, ok)

	require.Len(t, a.records, 1)
	assert.Equal(t, models.ActionDelete, a.records[0].Action)
	assert.Equal(t, before, *a.records[0].Entry)
}

func TestDelete_AlreadyAbsent(t *testing.T) {
	j, a := setup(t, newFakeRemote())
	_, err := j.Delete(context.Background(), "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, a.records)
}

func TestLog(t *testing.T) {
	j, _ := setup(t, newFakeRemote())
	_, err := j.Log(context.Background())
	assert.ErrorIs(t, err, ErrLogUnavailable)

	want := []models.LogRecord{{ID: "log-1", Action: models.ActionImport}}
	j = New(Options{Backend: newFakeRemote(), Log: LogFunc(func(context.Context) ([]models.LogRecord, error) {
		return want, nil
	})})
	got, err := j.Log(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSeedAndSync(t *testing.T) {
	remote := newFakeRemote()
	s := &fakeSeeder{res: seed.Result{EntriesUpserted: 0}}
	j := New(Options{Backend: remote, Seeder: s})

	j.Seed(context.Background())
	assert.Equal(t, 1, s.seeds)

	// Sync reloads when entries were written.
	remote.entries["e1"] = dataset.Sample()[0]
	s.res = seed.Result{EntriesUpserted: 4}
	j.Sync(context.Background(), false)
	assert.Equal(t, 1, s.syncs)
	assert.Equal(t, 1, j.Store().Len())

	res := New(Options{Backend: remote}).Sync(context.Background(), true)
	assert.True(t, res.Skipped)
}

/*** local fallback ***/

func setupLocal(t *testing.T, offline bool) (*Journal, *localstate.Store) {
	t.Helper()
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	state := localstate.New(metadata.NewSQLiteRepository(db), nil)
	j := New(Options{
		Backend:      backend.NewLocal(state, nil),
		Audit:        &fakeAudit{},
		Log:          LogFunc(state.LoadLog),
		Snapshot:     state,
		OfflineEdits: offline,
		Now:          func() time.Time { return testNow },
	})
	j.Load(ctx)
	return j, state
}

func TestLocalFallback_MutationsFailWithoutCorruptingStore(t *testing.T) {
	j, state := setupLocal(t, false)
	ctx := context.Background()

	require.Equal(t, 4, j.Store().Len())
	want := j.Store().NavigationOrder()

	_, err := j.Create(ctx, validDraft())
	assert.ErrorIs(t, err, common.ErrLocalFallback)
	_, err = j.ToggleRead(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrLocalFallback)
	_, err = j.Delete(ctx, "e2")
	assert.ErrorIs(t, err, common.ErrLocalFallback)

	assert.Equal(t, want, j.Store().NavigationOrder())
	stored, err := state.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLocalFallback_OfflineEditsReflectInStore(t *testing.T) {
	j, state := setupLocal(t, true)
	ctx := context.Background()

	created, err := j.Create(ctx, validDraft())
	assert.ErrorIs(t, err, common.ErrLocalFallback)
	require.NotEmpty(t, created.ID)

	_, err = j.Delete(ctx, "e2")
	assert.ErrorIs(t, err, common.ErrLocalFallback)

	_, ok := j.Store().Get(created.ID)
	assert.True(t, ok)
	_, ok = j.Store().Get("e2")
	assert.False(t, ok)
	assert.Equal(t, 4, j.Store().Len())

	// The snapshot survives a reload through the local backend.
	j.Load(ctx)
	assert.Equal(t, 4, j.Store().Len())
	stored, err := state.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestLocalFallback_OpenMarksReadOffline(t *testing.T) {
	j, _ := setupLocal(t, true)
	ctx := context.Background()

	var unread string
	for _, e := range j.Store().NavigationOrder() {
		if !e.Read {
			unread = e.ID
			break
		}
	}
	require.NotEmpty(t, unread)

	got, err := j.Open(ctx, unread)
	require.NoError(t, err)
	assert.True(t, got.Read)
}
