// Package config loads runtime configuration for the journal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-r string    remote store base URL (selects the REST backend)
//	-k string    remote store API key
//	-a string    archive server base URL (selects the archive backend)
//	-d string    local state database path
//	-s string    seed dataset directory
//	-t duration  request timeout
//	-l string    log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "5s" or
// integer nanoseconds. offline_edits is only configurable here:
//
//	{
//	  "remote_url": "https://example.supabase.co",
//	  "api_key": "anon-key",
//	  "database_path": "journal.db",
//	  "request_timeout": "5s",
//	  "offline_edits": true,
//	  "log_level": "debug"
//	}
package config
