package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/netx"
)

const ArchivePath = "/api/entries"

// Archive is the backend for the companion archive server. The server keeps
// its own mutation log, so Archive has no log or seeding surface.
type Archive struct {
	opts   Options
	logger logging.Logger
}

func NewArchive(opts Options) *Archive {
	opts.defaults()
	return &Archive{opts: opts, logger: opts.Logger.With("module", "backend", "backend", "archive")}
}

func (b *Archive) Name() string { return "archive" }
func (b *Archive) Remote() bool { return true }

func (b *Archive) ListEntries(ctx context.Context) []models.Entry {
	resp, err := b.do(ctx, "list entries", http.MethodGet, "", nil)
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

func (b *Archive) CreateEntry(ctx context.Context, draft models.Draft) (models.Entry, error) {
	id := draft.ID
	if id == "" {
		id = NewEntryID(b.opts.Now())
	}
	resp, err := b.do(ctx, "create entry", http.MethodPost, "", draft.Entry(id))
	if err != nil {
		return models.Entry{}, err
	}
	return b.decodeOne(resp, "create entry")
}

func (b *Archive) UpdateEntry(ctx context.Context, id string, entry models.Entry) (models.Entry, error) {
	entry.ID = id
	resp, err := b.do(ctx, "update entry", http.MethodPut, id, entry)
	if err != nil {
		return models.Entry{}, notFound(err, id)
	}
	return b.decodeOne(resp, "update entry")
}

func (b *Archive) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	resp, err := b.do(ctx, "delete entry", http.MethodDelete, id, nil)
	if err != nil {
		return models.Entry{}, notFound(err, id)
	}
	return b.decodeOne(resp, "delete entry")
}

func (b *Archive) decodeOne(resp *netx.Response, op string) (models.Entry, error) {
	var raw models.RawEntry
	if err := resp.Decode(op, &raw); err != nil {
		return models.Entry{}, err
	}
	return b.opts.Normalizer.Entry(raw), nil
}

func (b *Archive) do(ctx context.Context, op, method, id string, body any) (*netx.Response, error) {
	u := b.opts.BaseURL + ArchivePath
	if id != "" {
		u += "/" + url.PathEscape(id)
	}

	h := http.Header{}
	if b.opts.APIKey != "" {
		h.Set(common.APIKeyHeaderName, b.opts.APIKey)
		h.Set("Authorization", "Bearer "+b.opts.APIKey)
	}

	b.logger.Debug(ctx, "request", "op", op, "method", method, "id", id)
	return netx.Do(ctx, b.opts.HTTPClient, op, netx.Request{Method: method, URL: u, Header: h, Body: body})
}

// notFound maps the archive server's 404 onto *common.NotFoundError.
func notFound(err error, id string) error {
	var te *common.TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return &common.NotFoundError{ID: id}
	}
	return err
}
