package config

import (
	"context"
	"errors"

	"github.com/packsmith/pipegen/internal/attr"
	"github.com/packsmith/pipegen/internal/spec"
)

// Options are the recognized per-run pipeline options. They are fixed once
// loading completes and immutable for the duration of one generation run.
type Options struct {
	// Platform selects the generator backend by registry name.
	Platform string
	// OutputPath is the destination of the generated pipeline definition.
	OutputPath string
	// PruneUpToDate skips jobs for specs already satisfied by the cache.
	PruneUpToDate bool
	// PruneBroken skips jobs for specs flagged as known-broken.
	PruneBroken bool
	// AffectedOnly skips jobs outside the affected closure of the change set.
	AffectedOnly bool
}

// Model is the fully loaded, format-agnostic input to one generation run:
// the concretized root specs, the attribute rules, the per-run options, and
// the externally resolved pruning signals.
type Model struct {
	Options Options

	// Roots are the concretized root specs whose closures form the graph.
	Roots []*spec.ConcreteSpec

	// Rules are the attribute configuration rules in declaration order.
	Rules []attr.Rule

	// Broken holds identities of specs flagged as known-broken.
	Broken map[string]bool
	// Available holds identities of specs the build cache already satisfies.
	Available map[string]bool
	// ChangedPackages holds the package names in the change set.
	ChangedPackages map[string]bool
}

// Validate checks the invariants the rest of the run relies on.
func (m *Model) Validate() error {
	if len(m.Roots) == 0 {
		return errors.New("manifest declares no root specs")
	}
	if m.Options.Platform == "" {
		return errors.New("no target platform configured")
	}
	if m.Options.OutputPath == "" {
		return errors.New("no output path configured")
	}
	return nil
}

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the manifest and pipeline configuration from the given
	// path (a file or a directory of files) and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}
