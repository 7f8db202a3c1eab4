// Package ids provides the ULID primitives used for request and feed event ids.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars).
// ULIDs sort lexicographically by creation time.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New returns a ULID for now, falling back to the process-wide monotonic source
// if the crypto reader fails.
func New(now time.Time) string {
	if s, err := NewULID(now); err == nil {
		return s
	}
	return ulid.Make().String()
}
