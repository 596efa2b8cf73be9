package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/normalize"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/netx"
)

const (
	EntriesPath  = "/rest/v1/entries"
	LogPath      = "/rest/v1/entries_log"
	EntryColumns = "id,name,date,title,content_html,read"

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferMerge          = "resolution=merge-duplicates"
)

var errEmptyRepresentation = errors.New("store returned no representation")

// restRow is the column layout of the remote entries table.
type restRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	ContentHTML string `json:"content_html"`
	Read        bool   `json:"read"`
}

func toRow(e models.Entry) restRow {
	return restRow{ID: e.ID, Name: e.Name, Date: e.Date, Title: e.Title, ContentHTML: e.ContentHTML, Read: e.Read}
}

// Options configures the HTTP backends.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     logging.Logger
	Normalizer *normalize.Normalizer
	Now        func() time.Time
}

func (o *Options) defaults() {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Normalizer == nil {
		o.Normalizer = normalize.New()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// REST is the remote-store backend.
type REST struct {
	opts   Options
	logger logging.Logger
}

func NewREST(opts Options) *REST {
	opts.defaults()
	return &REST{opts: opts, logger: opts.Logger.With("module", "backend", "backend", "rest")}
}

func (b *REST) Name() string { return "rest" }
func (b *REST) Remote() bool { return true }

func (b *REST) ListEntries(ctx context.Context) []models.Entry {
	q := url.Values{"select": {EntryColumns}}
	resp, err := b.do(ctx, "list entries", http.MethodGet, EntriesPath, q, nil)
	if err != nil {
		b.logger.Warn(ctx, "listing entries failed, using sample data", "error", err)
		return dataset.Sample()
	}

	var raws []models.RawEntry
	if err := resp.Decode("entries", &raws); err != nil {
		b.logger.Warn(ctx, "listing entries failed, using sample data", "error", err)
		return dataset.Sample()
	}
	return b.opts.Normalizer.Entries(raws)
}

func (b *REST) CreateEntry(ctx context.Context, draft models.Draft) (models.Entry, error) {
	id := draft.ID
	if id == "" {
		id = NewEntryID(b.opts.Now())
	}

	resp, err := b.do(ctx, "create entry", http.MethodPost, EntriesPath, nil, toRow(draft.Entry(id)), preferRepresentation)
	if err != nil {
		return models.Entry{}, err
	}
	entries, err := b.decodeRows(resp, "create entry")
	if err != nil {
		return models.Entry{}, err
	}
	if len(entries) == 0 {
		return models.Entry{}, &common.TransportError{Op: "create entry", Err: errEmptyRepresentation}
	}
	return entries[0], nil
}

func (b *REST) UpdateEntry(ctx context.Context, id string, entry models.Entry) (models.Entry, error) {
	entry.ID = id
	q := url.Values{"id": {"eq." + id}}

	resp, err := b.do(ctx, "update entry", http.MethodPatch, EntriesPath, q, toRow(entry), preferRepresentation)
	if err != nil {
		return models.Entry{}, err
	}
	entries, err := b.decodeRows(resp, "update entry")
	if err != nil {
		return models.Entry{}, err
	}
	if len(entries) == 0 {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	return entries[0], nil
}

func (b *REST) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	q := url.Values{"id": {"eq." + id}}

	resp, err := b.do(ctx, "delete entry", http.MethodDelete, EntriesPath, q, nil, preferRepresentation)
	if err != nil {
		return models.Entry{}, err
	}
	entries, err := b.decodeRows(resp, "delete entry")
	if err != nil {
		return models.Entry{}, err
	}
	if len(entries) == 0 {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	return entries[0], nil
}

// UpsertEntries inserts entries, replacing any stored row with the same id.
func (b *REST) UpsertEntries(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]restRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toRow(e))
	}
	q := url.Values{"on_conflict": {"id"}}
	_, err := b.do(ctx, "upsert entries", http.MethodPost, EntriesPath, q, rows, preferMerge+","+preferMinimal)
	return err
}

// AppendLog bulk-appends records to the remote log resource.
func (b *REST) AppendLog(ctx context.Context, records []models.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := b.do(ctx, "append log", http.MethodPost, LogPath, nil, records, preferMinimal)
	return err
}

// ListLog returns the remote audit log, oldest first.
func (b *REST) ListLog(ctx context.Context) ([]models.LogRecord, error) {
	q := url.Values{"select": {"*"}, "order": {"timestamp.asc"}}
	resp, err := b.do(ctx, "list log", http.MethodGet, LogPath, q, nil)
	if err != nil {
		return nil, err
	}
	var raws []models.RawLogRecord
	if err := resp.Decode(LogPath, &raws); err != nil {
		return nil, err
	}
	return b.opts.Normalizer.LogRecords(raws), nil
}

// HasEntries reports whether the remote entries table holds at least one row.
func (b *REST) HasEntries(ctx context.Context) (bool, error) {
	return b.hasRows(ctx, "probe entries", EntriesPath)
}

// HasLog reports whether the remote log table holds at least one row.
func (b *REST) HasLog(ctx context.Context) (bool, error) {
	return b.hasRows(ctx, "probe log", LogPath)
}

func (b *REST) hasRows(ctx context.Context, op, path string) (bool, error) {
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	resp, err := b.do(ctx, op, http.MethodGet, path, q, nil)
	if err != nil {
		return false, err
	}
	var rows []struct{}
	if err := resp.Decode(path, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (b *REST) decodeRows(resp *netx.Response, op string) ([]models.Entry, error) {
	var raws []models.RawEntry
	if err := resp.Decode(op, &raws); err != nil {
		return nil, err
	}
	return b.opts.Normalizer.Entries(raws), nil
}

func (b *REST) do(ctx context.Context, op, method, path string, q url.Values, body any, prefer ...string) (*netx.Response, error) {
	u := b.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	h := http.Header{}
	h.Set(common.APIKeyHeaderName, b.opts.APIKey)
	h.Set("Authorization", "Bearer "+b.opts.APIKey)
	if len(prefer) > 0 {
		h.Set("Prefer", strings.Join(prefer, ","))
	}

	b.logger.Debug(ctx, "request", "op", op, "method", method, "path", path)
	return netx.Do(ctx, b.opts.HTTPClient, op, netx.Request{Method: method, URL: u, Header: h, Body: body})
}
