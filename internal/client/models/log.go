package models

import (
	"fmt"
	"time"
)

// Action names the mutation a LogRecord describes.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionImport:
		return true
	}
	return false
}

// LogRecord is an immutable audit record of one entry mutation.
//
// create, delete and import carry Entry; update carries Before and After.
type LogRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Entry     *Entry    `json:"entry,omitempty"`
	Before    *Entry    `json:"before,omitempty"`
	After     *Entry    `json:"after,omitempty"`
}

// Check reports whether the payload matches the action.
func (r LogRecord) Check() error {
	if !r.Action.Valid() {
		return fmt.Errorf("log record %s: unknown action %q", r.ID, r.Action)
	}
	if r.Action == ActionUpdate {
		if r.Before == nil || r.After == nil {
			return fmt.Errorf("log record %s: update needs before and after", r.ID)
		}
		return nil
	}
	if r.Entry == nil {
		return fmt.Errorf("log record %s: %s needs an entry", r.ID, r.Action)
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
