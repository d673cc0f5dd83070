package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/spec"
)

// CycleError reports a dependency closure that is not acyclic. It carries
// the chain of specs that was on the active traversal path when the cycle
// was detected.
type CycleError struct {
	Path []string
}

// Error implements the error interface for CycleError.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Path, " -> "))
}

// Build assembles the shared pipeline graph from a set of concretized root
// specs. Every spec in each root's dependency closure becomes exactly one
// node, keyed by content hash: a spec reached again through a different
// ancestor reuses the existing node and only gains a new incoming edge.
//
// Valid concretized input is already acyclic, but Build still verifies this
// while traversing and fails with a *CycleError if a spec reappears on the
// active path.
func Build(ctx context.Context, roots []*spec.ConcreteSpec) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := &Graph{nodes: make(map[string]*Node)}

	// onPath tracks the active DFS path for cycle detection; done marks
	// subgraphs whose closure is already fully linked into the table.
	onPath := make(map[string]bool)
	done := make(map[string]bool)

	var visit func(s *spec.ConcreteSpec, path []string) error
	visit = func(s *spec.ConcreteSpec, path []string) error {
		id := s.Hash()
		if onPath[id] {
			return &CycleError{Path: append(path, s.String())}
		}
		if done[id] {
			return nil
		}

		if _, ok := g.nodes[id]; !ok {
			g.nodes[id] = &Node{
				spec:       s,
				deps:       make(map[string]struct{}),
				dependents: make(map[string]struct{}),
			}
		}

		onPath[id] = true
		for _, dep := range s.Dependencies() {
			if err := visit(dep, append(path, s.String())); err != nil {
				return err
			}
			depID := dep.Hash()
			g.nodes[id].deps[depID] = struct{}{}
			g.nodes[depID].dependents[id] = struct{}{}
		}
		delete(onPath, id)
		done[id] = true

		return nil
	}

	seenRoots := make(map[string]bool)
	for _, root := range roots {
		if err := visit(root, nil); err != nil {
			return nil, err
		}
		if !seenRoots[root.Hash()] {
			seenRoots[root.Hash()] = true
			g.roots = append(g.roots, root.Hash())
		}
	}

	logger.Debug("Pipeline graph built.", "roots", len(g.roots), "nodes", len(g.nodes))
	return g, nil
}
