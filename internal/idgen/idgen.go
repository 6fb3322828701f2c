// Package idgen produces identifiers for new tasks.
package idgen

import "github.com/google/uuid"

// Generator returns a fresh identifier on every call.
type Generator func() string

// New returns a UUIDv7: a millisecond timestamp followed by random bits, so
// identifiers sort by creation time and still differ within one tick.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
