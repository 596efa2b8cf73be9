// Package blob stores whole named documents. The JSON file storage keeps its
// two files in a Store, either a local directory or an S3 bucket.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist reports a document that has never been written.
var ErrNotExist = errors.New("blob does not exist")

type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Ping(ctx context.Context) error
}
