// Package environment resolves logical collection names to the physical
// storage paths used by the document store. Three deployment modes (local,
// preview, production) share one physical database; isolation between their
// datasets comes entirely from the path prefix computed here, so every read
// and write in the system must funnel through a Resolver.
package environment

import (
	"fmt"

	"github.com/mlaurel/hearthledger/internal/config"
)

// Resolver computes storage paths for one deployment mode. It is pure and
// immutable: for a fixed configuration the mapping from collection name to
// path is deterministic and injective.
type Resolver struct {
	mode       config.Mode
	rootPrefix string
}

// NewResolver builds a Resolver from the loaded configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		mode:       cfg.Mode,
		rootPrefix: cfg.RootPrefix(),
	}
}

// Mode returns the deployment mode this resolver addresses.
func (r *Resolver) Mode() config.Mode {
	return r.mode
}

func (r *Resolver) IsLocal() bool      { return r.mode == config.ModeLocal }
func (r *Resolver) IsPreview() bool    { return r.mode == config.ModePreview }
func (r *Resolver) IsProduction() bool { return r.mode == config.ModeProduction }

// CollectionPath returns the storage path for a logical collection name.
// The name space is controlled by the codebase, not untrusted input, so no
// validation beyond non-empty is done.
func (r *Resolver) CollectionPath(name string) string {
	if name == "" {
		panic("environment: empty collection name")
	}
	if r.rootPrefix == "" {
		return name
	}
	return r.rootPrefix + "/" + name
}

// DocumentPath returns the storage path for a document within a collection.
// An empty document id is a caller programming error, not a recoverable
// condition.
func (r *Resolver) DocumentPath(collection, id string) string {
	if id == "" {
		panic(fmt.Sprintf("environment: empty document id for collection %q", collection))
	}
	return r.CollectionPath(collection) + "/" + id
}
