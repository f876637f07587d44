package store

import (
	"strings"

	"github.com/google/uuid"
)

// KeyGenerator produces candidate keys for new keyed-array elements.
// Candidates are checked against the target array's current keys and
// regenerated on collision, so a generator only has to be very likely unique.
type KeyGenerator func() string

// UUIDKeys generates canonical random UUID strings.
func UUIDKeys() KeyGenerator {
	return func() string {
		return uuid.NewString()
	}
}

// ShortKeys generates 12 hex digit keys cut from a random UUID.
// They are compact enough for dotted paths and debug output.
func ShortKeys() KeyGenerator {
	return func() string {
		id := uuid.New()
		return strings.ReplaceAll(id.String(), "-", "")[:12]
	}
}

// maxKeyAttempts bounds regeneration on collision.
const maxKeyAttempts = 64

// freshKey returns a key from gen that is not in taken.
func freshKey(gen KeyGenerator, taken map[string]struct{}) (string, bool) {
	for i := 0; i < maxKeyAttempts; i++ {
		k := gen()
		if k == "" {
			continue
		}
		if _, dup := taken[k]; !dup {
			return k, true
		}
	}
	return "", false
}
