// Package common defines shared constants and errors used across client and
// server layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Backend errors.
	ErrTransport     = errors.New("transport error")
	ErrNotFound      = errors.New("not found")
	ErrParse         = errors.New("parse error")
	ErrLocalFallback = errors.New("remote store not configured")

	// Validation errors.
	ErrInvalidEntry = errors.New("invalid entry")

	// Auth errors (missing, invalid or mismatched credential).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TransportError reports a network failure or a non-2xx response from a
// remote store. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NotFoundError reports that the target of a mutation is absent remotely.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ParseError reports malformed persisted or bundled JSON.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
