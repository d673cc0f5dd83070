package hclcfg

import (
	"fmt"
	"strings"

	"github.com/packsmith/pipegen/internal/config"
	"github.com/packsmith/pipegen/internal/spec"
)

// linkSpecs turns the decoded spec blocks into fully linked ConcreteSpecs.
// Dependency references by manifest label are resolved depth-first, so each
// spec is constructed after all of its dependencies and content hashes come
// out right. The manifest's label graph must be acyclic.
//
// Roots are the blocks marked root = true; when no block is marked, every
// spec nothing else depends on is treated as a root.
func linkSpecs(blocks []*specBlock, model *config.Model) error {
	byLabel := make(map[string]*specBlock, len(blocks))
	for _, b := range blocks {
		if _, dup := byLabel[b.Label]; dup {
			return fmt.Errorf("duplicate spec label %q in manifest", b.Label)
		}
		byLabel[b.Label] = b
	}

	built := make(map[string]*spec.ConcreteSpec, len(blocks))
	onPath := make(map[string]bool)

	var link func(label string, path []string) (*spec.ConcreteSpec, error)
	link = func(label string, path []string) (*spec.ConcreteSpec, error) {
		if s, ok := built[label]; ok {
			return s, nil
		}
		if onPath[label] {
			return nil, fmt.Errorf("dependency cycle in manifest: %s", strings.Join(append(path, label), " -> "))
		}

		block, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("spec %q references unknown dep %q", path[len(path)-1], label)
		}

		onPath[label] = true
		deps := make([]*spec.ConcreteSpec, 0, len(block.Deps))
		for _, depLabel := range block.Deps {
			dep, err := link(depLabel, append(path, label))
			if err != nil {
				return nil, err
			}
			deps = append(deps, dep)
		}
		delete(onPath, label)

		variants, err := decodeStringMap(block.Variants)
		if err != nil {
			return nil, fmt.Errorf("invalid variants for spec %q: %w", label, err)
		}

		s := spec.New(block.Label, block.Version, block.Compiler, variants, deps)
		built[label] = s

		if block.Available {
			model.Available[s.Hash()] = true
		}
		if block.Broken {
			model.Broken[s.Hash()] = true
		}
		return s, nil
	}

	for _, b := range blocks {
		if _, err := link(b.Label, []string{"manifest"}); err != nil {
			return err
		}
	}

	// Labels something else depends on can never be inferred roots.
	depended := make(map[string]bool)
	for _, b := range blocks {
		for _, depLabel := range b.Deps {
			depended[depLabel] = true
		}
	}

	explicit := false
	for _, b := range blocks {
		if b.Root {
			explicit = true
			break
		}
	}
	for _, b := range blocks {
		if b.Root || (!explicit && !depended[b.Label]) {
			model.Roots = append(model.Roots, built[b.Label])
		}
	}
	return nil
}
