package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
)

const (
	preferRepresentation = "return=representation"
	preferMerge          = "resolution=merge-duplicates"
)

var (
	errBadQuery    = errors.New("bad query")
	errNeedsFilter = errors.New("an id=eq.<id> filter is required")
)

// tableError is the PostgREST error body.
type tableError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (h *handler) tableFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, tableError{Message: err.Error()})
	case errors.Is(err, errBadQuery), errors.Is(err, errNeedsFilter), errors.Is(err, errBadBody),
		errors.Is(err, common.ErrInvalidEntry), errors.Is(err, common.ErrParse):
		writeJSON(w, http.StatusBadRequest, tableError{Message: err.Error()})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(w, http.StatusConflict, tableError{Code: "23505", Message: err.Error()})
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, tableError{Message: "internal error"})
	}
}

// respond writes rows when the caller asked for a representation and an
// empty response otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, rows []map[string]any) {
	if prefers(r.Header.Values("Prefer"), preferRepresentation) {
		if status == http.StatusNoContent {
			status = http.StatusOK
		}
		writeJSON(w, status, rows)
		return
	}
	if status == http.StatusOK {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func (h *handler) selectEntries(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), entryColumns)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	entries, err := h.svc.List(r.Context())
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}
	if q.hasID {
		matched := entries[:0:0]
		for _, e := range entries {
			if e.ID == q.id {
				matched = append(matched, e)
			}
		}
		entries = matched
	}
	if q.order != "" {
		sortEntries(entries, q.order, q.desc)
	}
	writeJSON(w, http.StatusOK, q.project(entryRows(entries)))
}

func (h *handler) insertEntries(w http.ResponseWriter, r *http.Request) {
	rows, err := decodeRows(r)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	merge := prefers(r.Header.Values("Prefer"), preferMerge)
	entries, err := h.svc.Insert(r.Context(), rows, merge)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, entryRows(entries))
}

func (h *handler) patchEntries(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), entryColumns)
	if err == nil && !q.hasID {
		err = errNeedsFilter
	}
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	patch, err := decodeFields(r)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	entries, err := h.svc.Patch(r.Context(), q.id, patch)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, entryRows(entries))
}

func (h *handler) deleteRows(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), entryColumns)
	if err == nil && !q.hasID {
		err = errNeedsFilter
	}
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	entries, err := h.svc.Remove(r.Context(), q.id)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, entryRows(entries))
}

func (h *handler) selectLog(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), logColumns)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	records, err := h.svc.ListLog(r.Context())
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}
	if q.order != "" {
		sortLog(records, q.order, q.desc)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if q.hasID && rec.ID != q.id {
			continue
		}
		rows = append(rows, logRow(rec))
	}
	writeJSON(w, http.StatusOK, q.project(rows))
}

func (h *handler) insertLog(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(r)
	if err != nil {
		h.tableFailure(w, r, err)
		return
	}

	var records []models.LogRecord
	if err := decodeOneOrMany(b, &records); err != nil {
		h.tableFailure(w, r, err)
		return
	}
	for _, rec := range records {
		if err := rec.Check(); err != nil {
			h.tableFailure(w, r, err)
			return
		}
	}

	if err := h.svc.AppendLog(r.Context(), records); err != nil {
		h.tableFailure(w, r, err)
		return
	}

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = logRow(rec)
	}
	respond(w, r, http.StatusCreated, rows)
}

// decodeRows reads a single row object or an array of them.
func decodeRows(r *http.Request) ([]models.Fields, error) {
	b, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var rows []models.Fields
	if err := decodeOneOrMany(b, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeOneOrMany[T any](b []byte, out *[]T) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errBadBody
	}

	var err error
	switch b[0] {
	case '[':
		err = json.Unmarshal(b, out)
	case '{':
		var one T
		if err = json.Unmarshal(b, &one); err == nil {
			*out = []T{one}
		}
	default:
		return errBadBody
	}
	if err != nil {
		return &common.ParseError{Source: "request body", Err: err}
	}
	return nil
}
