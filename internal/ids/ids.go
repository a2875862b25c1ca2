// Package ids generates the short identifiers stories are published
// under. An id is the only thing a reader needs to resolve a story, so
// ids must be unpredictable, not merely unique.
package ids

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
)

// Length is the generated id length in characters.
const Length = 7

// idShape matches any id the store will accept, generated or not.
// Resolve rejects anything outside this shape before touching storage.
var idShape = regexp.MustCompile(`^[A-Za-z0-9_-]{5,20}$`)

// New returns a fresh id: Length characters of URL-safe base64 over
// crypto/rand bytes. Uniqueness is not pre-checked; the store's primary
// key is the backstop for the negligible collision case.
func New() (string, error) {
	// 3 raw bytes per 4 output chars, rounded up
	buf := make([]byte, (Length*3+3)/4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:Length], nil
}

// Valid reports whether s has the shape of a story id.
func Valid(s string) bool {
	return idShape.MatchString(s)
}
