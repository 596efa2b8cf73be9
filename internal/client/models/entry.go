// Package models defines the client-side journal types: the canonical Entry,
// the Draft submitted by a form, audit LogRecords, and the raw boundary shapes
// decoded from stored or remote JSON.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

// Entry is one journal record as held by the Entry Store.
type Entry struct {
	// ID is globally unique and immutable once assigned.
	ID string `json:"id"`

	// Name is the author.
	Name string `json:"name"`

	// Date is a calendar date in YYYY-MM-DD form.
	Date string `json:"date"`

	Title string `json:"title"`

	// ContentHTML is the rich-text body.
	ContentHTML string `json:"contentHtml"`

	Read bool `json:"read"`
}

// WithRead returns a copy of e with the read flag set to read.
func (e Entry) WithRead(read bool) Entry {
	e.Read = read
	return e
}

// Draft is an entry as submitted for creation or edit. ID is optional on
// create; the backend assigns one when empty.
type Draft struct {
	ID          string
	Name        string
	Date        string
	Title       string
	ContentHTML string
	Read        bool
}

// Entry converts the draft into an Entry carrying id.
func (d Draft) Entry(id string) Entry {
	return Entry{
		ID:          id,
		Name:        d.Name,
		Date:        d.Date,
		Title:       d.Title,
		ContentHTML: d.ContentHTML,
		Read:        d.Read,
	}
}

// DraftOf is the inverse of Draft.Entry; used when an edit starts from an
// existing entry.
func DraftOf(e Entry) Draft {
	return Draft{ID: e.ID, Name: e.Name, Date: e.Date, Title: e.Title, ContentHTML: e.ContentHTML, Read: e.Read}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// PlainText strips markup from html and trims the result.
func PlainText(html string) string {
	text := tagRe.ReplaceAllString(html, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return strings.TrimSpace(text)
}

// Validate applies the entry form rules: name, title and rendered text must
// be non-empty and the date must be a real calendar date. An empty date is
// filled with today's (UTC) date.
func (d *Draft) Validate(now time.Time) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Title = strings.TrimSpace(d.Title)
	d.Date = strings.TrimSpace(d.Date)
	d.ContentHTML = strings.TrimSpace(d.ContentHTML)

	if d.Date == "" {
		d.Date = now.UTC().Format(common.DateLayout)
	}

	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", common.ErrInvalidEntry)
	case d.Title == "":
		return fmt.Errorf("%w: title is required", common.ErrInvalidEntry)
	case PlainText(d.ContentHTML) == "":
		return fmt.Errorf("%w: content is required", common.ErrInvalidEntry)
	}

	if _, err := time.Parse(common.DateLayout, d.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", common.ErrInvalidEntry, d.Date)
	}
	return nil
}
