package environment

import (
	"testing"

	"github.com/mlaurel/hearthledger/internal/config"
)

func resolverFor(mode config.Mode) *Resolver {
	return NewResolver(&config.Config{Mode: mode})
}

func TestCollectionPathPerMode(t *testing.T) {
	tests := []struct {
		mode config.Mode
		want string
	}{
		{config.ModeLocal, "families"},
		{config.ModePreview, "environments/preview/families"},
		{config.ModeProduction, "environments/production/families"},
	}
	for _, tt := range tests {
		r := resolverFor(tt.mode)
		if got := r.CollectionPath("families"); got != tt.want {
			t.Errorf("mode %s: CollectionPath = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestCollectionPathsDistinctAcrossModes(t *testing.T) {
	modes := []config.Mode{config.ModeLocal, config.ModePreview, config.ModeProduction}
	seen := make(map[string]config.Mode)
	for _, mode := range modes {
		p := resolverFor(mode).CollectionPath("invites")
		if prev, ok := seen[p]; ok {
			t.Errorf("path %q collides between modes %s and %s", p, prev, mode)
		}
		seen[p] = mode
	}
}

func TestCollectionPathDeterministic(t *testing.T) {
	r := resolverFor(config.ModeProduction)
	first := r.CollectionPath("users")
	for i := 0; i < 10; i++ {
		if got := r.CollectionPath("users"); got != first {
			t.Fatalf("CollectionPath not deterministic: %q vs %q", got, first)
		}
	}
}

func TestLocalPathUnprefixed(t *testing.T) {
	r := resolverFor(config.ModeLocal)
	if got := r.CollectionPath("users"); got != "users" {
		t.Errorf("local CollectionPath = %q, want %q", got, "users")
	}
}

func TestDocumentPathComposition(t *testing.T) {
	for _, mode := range []config.Mode{config.ModeLocal, config.ModePreview, config.ModeProduction} {
		r := resolverFor(mode)
		want := r.CollectionPath("families") + "/f1"
		if got := r.DocumentPath("families", "f1"); got != want {
			t.Errorf("mode %s: DocumentPath = %q, want %q", mode, got, want)
		}
	}
}

func TestProductionDocumentPath(t *testing.T) {
	r := resolverFor(config.ModeProduction)
	if got := r.DocumentPath("users", "u1"); got != "environments/production/users/u1" {
		t.Errorf("DocumentPath = %q, want %q", got, "environments/production/users/u1")
	}
}

func TestDocumentPathEmptyIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for empty document id")
		}
	}()
	resolverFor(config.ModeLocal).DocumentPath("users", "")
}

func TestModePredicates(t *testing.T) {
	r := resolverFor(config.ModePreview)
	if r.IsLocal() || !r.IsPreview() || r.IsProduction() {
		t.Errorf("predicates wrong for preview: local=%v preview=%v production=%v",
			r.IsLocal(), r.IsPreview(), r.IsProduction())
	}
	if r.Mode() != config.ModePreview {
		t.Errorf("Mode() = %v, want preview", r.Mode())
	}
}
