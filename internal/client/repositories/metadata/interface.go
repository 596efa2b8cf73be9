// Package metadata is the client's local key/value store: a mapping of string
// keys to JSON values kept in the SQLite state file.
package metadata

import (
	"context"
	"encoding/json"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	// List returns every pair whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
}
