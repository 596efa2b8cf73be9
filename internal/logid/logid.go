// Package logid mints audit log record ids. Ids are "log-" followed by a
// ULID, so they sort in creation order even when two records share a
// millisecond.
package logid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

const Prefix = "log-"

var (
	mu     sync.Mutex
	reader = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh id stamped with t.
func New(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), reader)
	if err != nil {
		// The monotonic reader overflowed within one millisecond; restart it.
		reader = ulid.Monotonic(rand.Reader, 0)
		id = ulid.MustNew(ulid.Timestamp(t), reader)
	}
	return Prefix + id.String()
}

// Time extracts the timestamp embedded in an id produced by New.
func Time(id string) (time.Time, bool) {
	u, err := ulid.Parse(strings.TrimPrefix(id, Prefix))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()), true
}
