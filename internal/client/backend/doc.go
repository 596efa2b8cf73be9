// Package backend implements the journal's Persistence Backend: the store of
// record behind the in-memory Entry Store.
//
// # Overview
//
// Three implementations share the Backend interface:
//
//   - REST talks to a PostgREST-shaped remote store (entries and entries_log
//     resources). It also exposes the bulk upsert, bulk append and existence
//     probes used by seeding.
//   - Archive talks to the companion archive server's /api/entries surface.
//   - Local is the fallback used when no remote store is configured. It lists
//     the locally persisted entries, or the four bundled samples, and rejects
//     every mutation with common.ErrLocalFallback.
//
// # Error Handling
//
// ListEntries never fails: any transport or parse error is logged and the
// bundled sample entries are returned instead. Create, Update and Delete
// return *common.TransportError for network failures and non-2xx statuses,
// *common.NotFoundError when the target id is absent, and
// common.ErrLocalFallback in local mode. On error the caller must leave the
// Entry Store unchanged.
//
// # Requests
//
// Every REST request carries the static credential twice, as the apikey
// header and as an Authorization bearer token. Updates always send the full
// entry, never a field subset.
package backend
