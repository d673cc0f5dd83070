package prune

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/pipeline"
)

// Options selects which pruning policies run. Policies are applied in the
// fixed order broken, available, unaffected, regardless of option order.
type Options struct {
	// PruneBroken enables pruning of externally flagged known-broken specs.
	PruneBroken bool
	// PruneUpToDate enables pruning of specs already satisfied by a cache.
	PruneUpToDate bool
	// AffectedOnly enables pruning of specs outside the affected closure of
	// the change set.
	AffectedOnly bool
	// Workers bounds per-pass parallelism. Values below 1 mean sequential.
	Workers int
}

// Signals carries the externally supplied facts the policies consume. The
// core never queries a cache or a VCS itself; callers resolve those
// collaborators up front and hand over plain sets.
type Signals struct {
	// Broken holds identities of specs known to be broken.
	Broken map[string]bool
	// Available holds identities of specs already present in the build cache.
	Available map[string]bool
	// ChangedPackages holds package names touched by the change under test.
	ChangedPackages map[string]bool
}

// policy evaluates one node against external signals and reports whether it
// claims the node, and with which status. Policies must not depend on the
// status of any other node, which is what makes per-pass evaluation
// parallelizable.
type policy struct {
	name    string
	status  Status
	enabled bool
	claims  func(id string) bool
}

// Run applies the enabled policies to every node of the graph and returns
// the resulting status table. The graph itself is never modified. Running
// twice with identical inputs yields an identical Result.
func Run(ctx context.Context, g *pipeline.Graph, opts Options, signals Signals) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	ids := g.IDs()
	result := make(Result, len(ids))
	for _, id := range ids {
		result[id] = Keep
	}

	var affected map[string]bool
	if opts.AffectedOnly {
		affected = affectedClosure(g, signals.ChangedPackages)
	}

	policies := []policy{
		{
			name:    "broken",
			status:  PrunedBroken,
			enabled: opts.PruneBroken,
			claims:  func(id string) bool { return signals.Broken[id] },
		},
		{
			name:    "available",
			status:  PrunedAvailable,
			enabled: opts.PruneUpToDate,
			claims:  func(id string) bool { return signals.Available[id] },
		},
		{
			name:    "unaffected",
			status:  PrunedUnaffected,
			enabled: opts.AffectedOnly,
			claims:  func(id string) bool { return !affected[id] },
		},
	}

	for _, p := range policies {
		if !p.enabled {
			continue
		}
		claimed, err := runPass(ctx, ids, result, p, opts.Workers)
		if err != nil {
			return nil, err
		}
		for _, id := range claimed {
			result[id] = p.status
		}
		logger.Debug("Pruning pass complete.", "policy", p.name, "pruned", len(claimed))
	}

	logger.Debug("Pruning finished.", "keep", result.KeepCount(), "total", len(ids))
	return result, nil
}

// runPass evaluates one policy over all nodes still at Keep. Decisions are
// written into a per-node slice with no shared state, then collected, so the
// pass can fan out across workers without locking.
func runPass(ctx context.Context, ids []string, result Result, p policy, workers int) ([]string, error) {
	decisions := make([]bool, len(ids))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 1 {
		group.SetLimit(workers)
	} else {
		group.SetLimit(1)
	}

	for i, id := range ids {
		if result[id] != Keep {
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			decisions[i] = p.claims(id)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var claimed []string
	for i, id := range ids {
		if decisions[i] {
			claimed = append(claimed, id)
		}
	}
	return claimed, nil
}

// affectedClosure computes the set of nodes that could be affected by a
// change to the given packages: every node whose package name is in the
// change set, all of its transitive dependents, and the full dependency
// closure of each of those dependents. The last part is what keeps a sibling
// dependency of an affected root in the pipeline.
func affectedClosure(g *pipeline.Graph, changedPackages map[string]bool) map[string]bool {
	// Seed with every node whose package was touched.
	var seeds []string
	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		if changedPackages[n.Spec().Name()] {
			seeds = append(seeds, id)
		}
	}

	// Walk upward to collect all dependents of the seeds.
	upward := make(map[string]bool)
	queue := append([]string(nil), seeds...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if upward[id] {
			continue
		}
		upward[id] = true
		dependents, _ := g.Dependents(id)
		queue = append(queue, dependents...)
	}

	// Every visited dependent drags its whole dependency closure back in.
	affected := make(map[string]bool)
	for id := range upward {
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if affected[id] {
			continue
		}
		affected[id] = true
		deps, _ := g.Dependencies(id)
		queue = append(queue, deps...)
	}
	return affected
}
