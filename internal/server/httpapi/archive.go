package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
)

func (h *handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) createEntry(w http.ResponseWriter, r *http.Request) {
	in, err := decodeFields(r)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeFields(r)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	e, err := h.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.failure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// decodeFields reads a JSON object body. An empty body is an empty object.
func decodeFields(r *http.Request) (models.Fields, error) {
	b, err := readBody(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return models.Fields{}, nil
	}
	if b[0] != '{' {
		return nil, errBadBody
	}

	var f models.Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, &common.ParseError{Source: "request body", Err: err}
	}
	return f, nil
}
