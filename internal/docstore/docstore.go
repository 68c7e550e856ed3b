// Package docstore exposes the narrow document-store contract the rest of the
// system persists through: read a document at a path, create-or-replace it,
// merge partial fields into it, and run membership-filtered queries over a
// collection. Callers compute paths with the environment resolver; the store
// itself is path-agnostic.
package docstore

import (
	"context"
	"errors"
)

// Fields holds the JSON-shaped field set of one document.
type Fields map[string]any

// Document is a stored record addressed by its full path.
type Document struct {
	Path   string
	Fields Fields
}

// Filter matches documents whose array-valued field contains a value. This is
// the minimum query shape the system needs (membership lookups).
type Filter struct {
	Field    string
	Contains string
}

// ErrNoDocument is returned by Update when there is nothing at the path.
var ErrNoDocument = errors.New("docstore: no document at path")

// Tx is the set of operations available inside a transaction.
type Tx interface {
	// Get returns the document at path, or nil if none exists.
	Get(ctx context.Context, path string) (*Document, error)
	// Set creates or replaces the document at path.
	Set(ctx context.Context, path string, fields Fields) error
	// Update merges partial top-level fields into the document at path.
	Update(ctx context.Context, path string, partial Fields) error
}

// Store is the full contract, adding queries and multi-document transactions.
type Store interface {
	Tx
	// Query returns the documents directly under collectionPath that match
	// the filter.
	Query(ctx context.Context, collectionPath string, filter Filter) ([]Document, error)
	// RunTransaction executes fn atomically. All reads and writes issued
	// through the Tx commit together or not at all.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
