// Package generator defines the backend extension point: the contract every
// CI platform generator satisfies, the registry that resolves a configured
// platform name to an implementation, and the atomic output writer shared by
// all backends.
package generator

import (
	"context"

	"github.com/packsmith/pipegen/internal/attr"
	"github.com/packsmith/pipegen/internal/config"
	"github.com/packsmith/pipegen/internal/pipeline"
	"github.com/packsmith/pipegen/internal/prune"
)

// Input is everything a generator may read: the immutable pruned graph, the
// per-node statuses, the merged job attributes for every surviving node, and
// the run's options. Generators must treat all of it as read-only; their
// only side effect is the artifact written at Options.OutputPath.
type Input struct {
	Graph      *pipeline.Graph
	Statuses   prune.Result
	Attributes map[string]attr.JobAttributes
	Options    config.Options
}

// Generator turns a processed pipeline graph into one backend-native
// pipeline definition file. Implementations must emit exactly one job per
// Keep node, declare each job's nearest Keep dependencies (bridging over
// pruned nodes), group jobs into stages consistent with the graph's
// topological order, and carry each node's attribute set verbatim into the
// backend's job fields.
type Generator interface {
	// Platform returns the unique platform name the generator registers under.
	Platform() string
	// Generate writes the pipeline definition to in.Options.OutputPath.
	Generate(ctx context.Context, in *Input) error
}

// KeepDependencies returns the identities of the nearest Keep ancestors of
// the given node, skipping transitively over pruned intermediate nodes. A
// job must order itself after these and only these.
func KeepDependencies(g *pipeline.Graph, statuses prune.Result, id string) []string {
	var keep []string
	seen := map[string]bool{id: true}

	deps, _ := g.Dependencies(id)
	queue := append([]string(nil), deps...)
	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]
		if seen[dep] {
			continue
		}
		seen[dep] = true
		if statuses.IsKeep(dep) {
			keep = append(keep, dep)
			continue
		}
		// Pruned: bridge through to its own dependencies.
		next, _ := g.Dependencies(dep)
		queue = append(queue, next...)
	}
	return keep
}
