// Package common contains shared constants and errors used across the
// journal client and the archive server.
package common

// APIKeyHeaderName carries the static credential on every remote store
// request. The same credential is repeated as a bearer token in the
// Authorization header.
const APIKeyHeaderName = "apikey"

// DateLayout is the calendar date form used for Entry.Date.
const DateLayout = "2006-01-02"
