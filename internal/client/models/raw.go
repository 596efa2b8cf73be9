package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ContentKind tags which legacy body field a RawEntry was decoded from.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentHTML
	ContentText
)

// RawEntry is an entry as found at a storage boundary: remote rows, the
// bundled dataset, legacy local snapshots. Field precedence is fixed here so
// no variant leaks past decoding:
//
//	body: content_html, then contentHtml, then content (plain text)
//	author: name, then author
//	read: JSON truthiness (absent, null, false, 0, "" are false)
//
// Only non-empty HTML fields take precedence; an empty content_html falls
// through to the next candidate.
type RawEntry struct {
	ID          string
	Name        string
	Date        string
	Title       string
	ContentKind ContentKind
	Content     string
	Read        bool
}

func (r *RawEntry) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	*r = RawEntry{
		ID:    scalarString(fields["id"]),
		Name:  firstString(fields, "name", "author"),
		Date:  scalarString(fields["date"]),
		Title: scalarString(fields["title"]),
		Read:  truthy(fields["read"]),
	}

	if html := firstString(fields, "content_html", "contentHtml"); html != "" {
		r.ContentKind, r.Content = ContentHTML, html
		return nil
	}
	if _, ok := fields["content"]; ok {
		r.ContentKind, r.Content = ContentText, scalarString(fields["content"])
	}
	return nil
}

// RawLogRecord is a log record as stored by any version of the journal.
// Older snapshots name the action "type" and may carry millisecond epoch
// timestamps.
type RawLogRecord struct {
	ID        string
	Timestamp time.Time
	Action    Action
	Entry     *RawEntry
	Before    *RawEntry
	After     *RawEntry
}

func (r *RawLogRecord) UnmarshalJSON(b []byte) error {
	var rec struct {
		ID        json.RawMessage `json:"id"`
		Timestamp json.RawMessage `json:"timestamp"`
		Action    string          `json:"action"`
		Type      string          `json:"type"`
		Entry     *RawEntry       `json:"entry"`
		Before    *RawEntry       `json:"before"`
		After     *RawEntry       `json:"after"`
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}

	action := rec.Action
	if action == "" {
		action = rec.Type
	}

	*r = RawLogRecord{
		ID:        scalarString(rec.ID),
		Timestamp: parseTimestamp(rec.Timestamp),
		Action:    Action(strings.ToLower(action)),
		Entry:     rec.Entry,
		Before:    rec.Before,
		After:     rec.After,
	}
	return nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(fields[k]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers as text; anything else is "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		return value != ""
	case nil:
		return false
	default:
		return true
	}
}

func parseTimestamp(raw json.RawMessage) time.Time {
	s := scalarString(raw)
	if s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
