// Package service provides business logic for the application.
package service

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newID generates a ULID entity identifier. ULIDs are time-ordered, so
// identifiers sort by creation time.
func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
