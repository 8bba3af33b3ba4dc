// ABOUTME: Run ID generation using ULIDs with crypto/rand entropy.
// ABOUTME: Centralizes ID creation so every run gets a time-ordered, collision-resistant identifier.
package trail

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewRunID generates a new run identifier: a ULID drawn from crypto/rand.
// ULIDs are lexicographically ordered by creation time, so run directories
// sort newest-last under a plain name sort, and the 80 bits of entropy make
// collisions between independently generated IDs vanishingly unlikely.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
