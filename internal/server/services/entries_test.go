package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/blob"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingLog wraps a store and rejects every log append.
type failingLog struct {
	storage.Storage
}

func (failingLog) AppendLog(context.Context, []models.LogRecord) error {
	return errors.New("disk full")
}

var fixedNow = time.Date(2039, 4, 18, 21, 14, 0, 0, time.UTC)

func newService(t *testing.T) (*EntryService, storage.Storage) {
	t.Helper()
	store := jsonfile.New(blob.NewDir(t.TempDir()), "entries.json", "entries-log.json", logging.Nop())
	svc := NewEntryService(store, logging.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func fields(t *testing.T, s string) models.Fields {
	t.Helper()
	var f models.Fields
	require.NoError(t, json.Unmarshal([]byte(s), &f))
	return f
}

func TestCreate_AppliesDefaultsAndLogs(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, fields(t, `{"title":"Smoke on the ridge","read":1}`))
	require.NoError(t, err)
	assert.Equal(t, models.Entry{
		ID:    "entry-2186774040000",
		Name:  "Unknown",
		Date:  "2039-04-18",
		Title: "Smoke on the ridge",
		Read:  true,
	}, e)

	log, err := store.ListLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, models.ActionCreate, log[0].Action)
	assert.Equal(t, fixedNow, log[0].Timestamp)
	assert.True(t, strings.HasPrefix(log[0].ID, "log-"))
	assert.Equal(t, e, *log[0].Entry)
}

func TestCreate_DuplicateID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, fields(t, `{"id":"e1"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, fields(t, `{"id":"e1"}`))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreate_InvalidField(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), fields(t, `{"title":[1]}`))
	assert.ErrorIs(t, err, common.ErrInvalidEntry)
}

func TestUpdate_MergesAndLogsBeforeAfter(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, fields(t, `{"id":"e1","name":"Rhea","title":"Smoke"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "e1", fields(t, `{"id":"zzz","title":"Smoke on the ridge"}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, "Rhea", updated.Name)
	assert.Equal(t, "Smoke on the ridge", updated.Title)

	log, err := store.ListLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, models.ActionUpdate, log[1].Action)
	assert.Equal(t, created, *log[1].Before)
	assert.Equal(t, updated, *log[1].After)
	assert.Less(t, log[0].ID, log[1].ID, "log ids sort in creation order")
}

func TestUpdate_Missing(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.Update(context.Background(), "nope", fields(t, `{}`))
	assert.ErrorIs(t, err, common.ErrNotFound)

	log, _ := store.ListLog(context.Background())
	assert.Empty(t, log)
}

func TestDelete_ReturnsRemovedAndLogs(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, fields(t, `{"id":"e1"}`))
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, created, removed)

	_, err = svc.Delete(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	log, _ := store.ListLog(ctx)
	require.Len(t, log, 2)
	assert.Equal(t, models.ActionDelete, log[1].Action)
}

func TestCreate_LogFailureDoesNotFailMutation(t *testing.T) {
	svc, store := newService(t)
	svc.store = failingLog{store}

	e, err := svc.Create(context.Background(), fields(t, `{"id":"e1"}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)

	entries, _ := store.ListEntries(context.Background())
	assert.Len(t, entries, 1)
}

func TestInsert_WithoutMergeRejectsDuplicates(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Insert(ctx, []models.Fields{fields(t, `{"id":"e1"}`), fields(t, `{"id":"e1"}`)}, false)
	assert.ErrorIs(t, err, storage.ErrConflict)

	entries, _ := store.ListEntries(ctx)
	assert.Empty(t, entries)

	log, _ := store.ListLog(ctx)
	assert.Empty(t, log, "table operations write no log records")
}

func TestInsert_MergeOverwritesProvidedColumns(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Insert(ctx, []models.Fields{fields(t, `{"id":"e1","name":"Rhea","title":"Smoke"}`)}, false)
	require.NoError(t, err)

	out, err := svc.Insert(ctx, []models.Fields{
		fields(t, `{"id":"e1","read":true}`),
		fields(t, `{"id":"e2","title":"Transit tunnel"}`),
	}, true)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Rhea", out[0].Name)
	assert.True(t, out[0].Read)

	entries, _ := store.ListEntries(ctx)
	assert.Len(t, entries, 2)
}

func TestPatchAndRemove_NoMatchIsEmpty(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.Patch(ctx, "nope", fields(t, `{"read":true}`))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Remove(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPatch_ReturnsRow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Insert(ctx, []models.Fields{fields(t, `{"id":"e1"}`)}, false)
	require.NoError(t, err)

	got, err := svc.Patch(ctx, "e1", fields(t, `{"read":true}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Read)
}

func TestAppendLog_FillsMissingFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	at := fixedNow.Add(-time.Hour)

	e := models.Entry{ID: "e1", Title: "Smoke on the ridge"}
	require.NoError(t, svc.AppendLog(ctx, []models.LogRecord{
		{Action: models.ActionImport, Entry: &e},
		{ID: "log-keep", Timestamp: at, Action: models.ActionCreate, Entry: &e},
	}))

	log, err := svc.ListLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.True(t, strings.HasPrefix(log[0].ID, "log-"))
	assert.Equal(t, fixedNow, log[0].Timestamp)
	assert.Equal(t, "log-keep", log[1].ID)
	assert.Equal(t, at, log[1].Timestamp)
	assert.NoError(t, svc.Ping(ctx))
}

func TestAppendLog_RejectsMalformedRecords(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	e := models.Entry{ID: "e1"}

	for name, rec := range map[string]models.LogRecord{
		"unknown action":   {Action: "rename", Entry: &e},
		"missing action":   {Entry: &e},
		"update no before": {Action: models.ActionUpdate, After: &e},
		"create no entry":  {Action: models.ActionCreate},
	} {
		err := svc.AppendLog(ctx, []models.LogRecord{{Action: models.ActionImport, Entry: &e}, rec})
		assert.ErrorIs(t, err, common.ErrInvalidEntry, name)
	}

	log, err := svc.ListLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, log)
}
