// Package models defines the archive server's stored shapes.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultName  = "Unknown"
	DefaultTitle = "Untitled"
)

// Entry is one stored journal entry. It reads the content from either
// contentHtml or content_html, preferring content_html when both are set;
// it is always written as contentHtml.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	ContentHTML string `json:"contentHtml"`
	Read        bool   `json:"read"`
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*e = Entry{}
	return e.apply(fields)
}

// Fields is a decoded JSON object body, used for create input and partial
// updates.
type Fields map[string]json.RawMessage

// NewEntry builds an entry from create input, filling the defaults for
// missing or empty fields.
func NewEntry(in Fields, now time.Time) (Entry, error) {
	var e Entry
	if err := e.apply(in); err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("entry-%d", now.UnixMilli())
	}
	if e.Name == "" {
		e.Name = DefaultName
	}
	if e.Date == "" {
		e.Date = now.UTC().Format("2006-01-02")
	}
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	return e, nil
}

// Merge returns prev with the given fields laid over it. The id is never
// changed.
func Merge(prev Entry, patch Fields) (Entry, error) {
	next := prev
	if err := next.apply(patch); err != nil {
		return Entry{}, err
	}
	next.ID = prev.ID
	return next, nil
}

// fieldOrder fixes the order fields are applied in. A later key wins, so
// content_html takes precedence over contentHtml.
var fieldOrder = []string{"id", "name", "date", "title", "contentHtml", "content_html", "read"}

func (e *Entry) apply(f Fields) error {
	for _, key := range fieldOrder {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var err error
		switch key {
		case "id":
			e.ID, err = str(raw)
		case "name":
			e.Name, err = str(raw)
		case "date":
			e.Date, err = str(raw)
		case "title":
			e.Title, err = str(raw)
		case "contentHtml", "content_html":
			e.ContentHTML, err = str(raw)
		case "read":
			e.Read = truthy(raw)
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

// str accepts strings, numbers and null.
func str(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

// truthy coerces a JSON value to a boolean the way a loose client would:
// false, 0, "", "false", "0" and null are false.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return t != ""
	default:
		return true
	}
}
