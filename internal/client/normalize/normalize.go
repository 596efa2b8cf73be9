// Package normalize turns raw entry shapes into the canonical models.Entry.
//
// Normalization never fails. Missing required fields get defaults instead:
//
//	name   "Unknown"
//	title  "Untitled"
//	date   today (UTC)
//	id     "entry-<unix ms>"
//	body   plain text converted with TextToHTML, or "<p></p>"
//
// Author and title are trimmed and NFC-normalized so that the same name typed
// on different systems groups and sorts as one key.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultName  = "Unknown"
	DefaultTitle = "Untitled"
)

type Normalizer struct {
	now func() time.Time
}

type Option func(*Normalizer)

// WithClock overrides the time source used for default dates and ids.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, o := range opts {
		o(n)
	}
	return n
}

var std = New()

// Entry normalizes raw with the default clock.
func Entry(raw models.RawEntry) models.Entry { return std.Entry(raw) }

// Entries normalizes every element of raws with the default clock.
func Entries(raws []models.RawEntry) []models.Entry { return std.Entries(raws) }

func (n *Normalizer) Entry(raw models.RawEntry) models.Entry {
	e := models.Entry{
		ID:    strings.TrimSpace(raw.ID),
		Name:  text(raw.Name),
		Date:  n.date(raw.Date),
		Title: text(raw.Title),
		Read:  raw.Read,
	}

	switch raw.ContentKind {
	case models.ContentHTML:
		e.ContentHTML = raw.Content
	default:
		e.ContentHTML = TextToHTML(raw.Content)
	}

	if e.ID == "" {
		e.ID = fmt.Sprintf("entry-%d", n.now().UnixMilli())
	}
	if e.Name == "" {
		e.Name = DefaultName
	}
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	return e
}

func (n *Normalizer) Entries(raws []models.RawEntry) []models.Entry {
	out := make([]models.Entry, 0, len(raws))
	for _, r := range raws {
		out = append(out, n.Entry(r))
	}
	return out
}

// LogRecord normalizes the entries carried by raw. The second result is
// false when the record has no usable action or payload; such records are
// dropped by callers. A missing timestamp stays zero.
func (n *Normalizer) LogRecord(raw models.RawLogRecord) (models.LogRecord, bool) {
	rec := models.LogRecord{
		ID:        raw.ID,
		Timestamp: raw.Timestamp,
		Action:    raw.Action,
	}
	if raw.Entry != nil {
		e := n.Entry(*raw.Entry)
		rec.Entry = &e
	}
	if raw.Before != nil {
		e := n.Entry(*raw.Before)
		rec.Before = &e
	}
	if raw.After != nil {
		e := n.Entry(*raw.After)
		rec.After = &e
	}
	if rec.Check() != nil {
		return models.LogRecord{}, false
	}
	return rec, true
}

func (n *Normalizer) LogRecords(raws []models.RawLogRecord) []models.LogRecord {
	out := make([]models.LogRecord, 0, len(raws))
	for _, r := range raws {
		if rec, ok := n.LogRecord(r); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (n *Normalizer) date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return n.now().UTC().Format(common.DateLayout)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Format(common.DateLayout)
	}
	return s
}

func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

var (
	newlines    = regexp.MustCompile(`\n+`)
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// TextToHTML escapes &, < and > in text and wraps each non-empty run between
// newlines in a paragraph. Empty input yields a single empty paragraph.
func TextToHTML(text string) string {
	escaped := htmlEscaper.Replace(text)

	var b strings.Builder
	for _, part := range newlines.Split(escaped, -1) {
		if part == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(part)
		b.WriteString("</p>")
	}
	if b.Len() == 0 {
		return "<p></p>"
	}
	return b.String()
}
