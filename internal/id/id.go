// Package id generates collision-resistant identifiers for new documents.
package id

import "github.com/google/uuid"

// Generator produces a new unique id. Services take one so tests can inject
// deterministic sequences.
type Generator func() string

// New returns a random UUIDv4 string.
func New() string {
	return uuid.NewString()
}
