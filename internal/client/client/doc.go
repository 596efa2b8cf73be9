// Package client bootstraps the journal client's local persistence.
//
// # Overview
//
// InitDatabase opens (or creates) the SQLite state file with the pure-Go
// modernc driver and applies the embedded goose migrations. The resulting
// handle backs the local key/value store used in local-fallback mode and for
// the seed sync-state record.
//
// # Error Handling
//
// Open and migration failures are returned wrapped; callers treat them as
// fatal at startup.
//
// See Also
//
//   - DB helpers: InitDatabase, RunMigrations
//   - Key/value store: repositories/metadata
package client
