package models

import (
	"fmt"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionImport = "import"
)

// LogRecord is one append-only audit record. Create, delete and import
// records carry Entry; updates carry Before and After.
type LogRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Entry     *Entry    `json:"entry,omitempty"`
	Before    *Entry    `json:"before,omitempty"`
	After     *Entry    `json:"after,omitempty"`
}

// Check reports whether the action is known and the payload matches it.
// Failures wrap common.ErrInvalidEntry.
func (r LogRecord) Check() error {
	switch r.Action {
	case ActionUpdate:
		if r.Before == nil || r.After == nil {
			return fmt.Errorf("%w: log record %s: update needs before and after", common.ErrInvalidEntry, r.ID)
		}
	case ActionCreate, ActionDelete, ActionImport:
		if r.Entry == nil {
			return fmt.Errorf("%w: log record %s: %s needs an entry", common.ErrInvalidEntry, r.ID, r.Action)
		}
	default:
		return fmt.Errorf("%w: log record %s: unknown action %q", common.ErrInvalidEntry, r.ID, r.Action)
	}
	return nil
}

// EntryID returns the id of the entry the record is about.
func (r LogRecord) EntryID() string {
	switch {
	case r.Entry != nil:
		return r.Entry.ID
	case r.After != nil:
		return r.After.ID
	case r.Before != nil:
		return r.Before.ID
	}
	return ""
}
