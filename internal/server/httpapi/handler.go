// Package httpapi is the archive server's HTTP surface:
//
//	GET    /api/entries            list
//	POST   /api/entries            create (defaults applied, 201)
//	PUT    /api/entries/{id}       merge update (404 when missing)
//	DELETE /api/entries/{id}       delete, returns the removed entry
//
//	GET|POST|PATCH|DELETE /rest/v1/entries   table surface for the REST backend
//	GET|POST              /rest/v1/entries_log
//
// Everything else is served from the static directory, when one is set.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
)

// Service is the entry logic behind the routes; *services.EntryService
// implements it.
type Service interface {
	List(ctx context.Context) ([]models.Entry, error)
	Create(ctx context.Context, in models.Fields) (models.Entry, error)
	Update(ctx context.Context, id string, patch models.Fields) (models.Entry, error)
	Delete(ctx context.Context, id string) (models.Entry, error)

	Insert(ctx context.Context, rows []models.Fields, merge bool) ([]models.Entry, error)
	Patch(ctx context.Context, id string, patch models.Fields) ([]models.Entry, error)
	Remove(ctx context.Context, id string) ([]models.Entry, error)
	AppendLog(ctx context.Context, records []models.LogRecord) error
	ListLog(ctx context.Context) ([]models.LogRecord, error)
}

type Options struct {
	// StaticDir is served at "/". Empty disables static files.
	StaticDir string

	// JWTSecret enables the credential check on the API routes.
	JWTSecret []byte

	// BodyLimit caps request bodies in bytes.
	BodyLimit int64

	Logger logging.Logger
}

type handler struct {
	svc    Service
	opts   Options
	logger logging.Logger
}

// New builds the routing tree.
func New(svc Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 1 << 20
	}

	h := &handler{svc: svc, opts: opts, logger: opts.Logger.With("module", "httpapi")}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/entries", h.listEntries)
	api.HandleFunc("POST /api/entries", h.createEntry)
	api.HandleFunc("PUT /api/entries/{id}", h.updateEntry)
	api.HandleFunc("DELETE /api/entries/{id}", h.deleteEntry)

	api.HandleFunc("GET /rest/v1/entries", h.selectEntries)
	api.HandleFunc("POST /rest/v1/entries", h.insertEntries)
	api.HandleFunc("PATCH /rest/v1/entries", h.patchEntries)
	api.HandleFunc("DELETE /rest/v1/entries", h.deleteRows)
	api.HandleFunc("GET /rest/v1/entries_log", h.selectLog)
	api.HandleFunc("POST /rest/v1/entries_log", h.insertLog)

	mux := http.NewServeMux()
	guarded := h.authenticate(h.limitBody(api))
	mux.Handle("/api/", guarded)
	mux.Handle("/rest/v1/", guarded)
	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return h.logRequests(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readBody reads the request body. A body over the limit is reported as
// errTooLarge.
func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return nil, errTooLarge
	}
	return b, err
}

var (
	errTooLarge = errors.New("request body too large")
	errBadBody  = errors.New("request body must be a JSON object")
)

// failure maps service and decoding errors onto a status and message.
func (h *handler) failure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, errBadBody), errors.Is(err, common.ErrInvalidEntry), errors.Is(err, common.ErrParse):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
