package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packsmith/pipegen/internal/generator"
	"github.com/packsmith/pipegen/internal/pipeline"
	"github.com/packsmith/pipegen/internal/prune"
	"github.com/packsmith/pipegen/internal/spec"
	"github.com/packsmith/pipegen/internal/testutil"
)

func TestKeepDependenciesDirect(t *testing.T) {
	t.Parallel()

	specs, g := testutil.BuildDiamond(t)

	deps := generator.KeepDependencies(g, prune.Result{}, specs.R.Hash())
	assert.ElementsMatch(t, []string{specs.A.Hash(), specs.B.Hash()}, deps)

	assert.Empty(t, generator.KeepDependencies(g, prune.Result{}, specs.C.Hash()))
}

func TestKeepDependenciesBridgesOverPrunedNode(t *testing.T) {
	t.Parallel()

	specs, g := testutil.BuildDiamond(t)

	// A is satisfied from cache: R must order itself after C, A's own
	// dependency, instead.
	statuses := prune.Result{specs.A.Hash(): prune.PrunedAvailable}

	deps := generator.KeepDependencies(g, statuses, specs.R.Hash())
	assert.ElementsMatch(t, []string{specs.B.Hash(), specs.C.Hash()}, deps)
}

func TestKeepDependenciesBridgesOverChains(t *testing.T) {
	t.Parallel()

	// R -> A -> B -> C with A and B pruned: R bridges all the way to C.
	c := spec.New("pkg-c", "1.0.0", "gcc@12", nil, nil)
	b := spec.New("pkg-b", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{c})
	a := spec.New("pkg-a", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{b})
	r := spec.New("pkg-r", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{a})

	g, err := pipeline.Build(context.Background(), []*spec.ConcreteSpec{r})
	require.NoError(t, err)

	statuses := prune.Result{
		a.Hash(): prune.PrunedAvailable,
		b.Hash(): prune.PrunedBroken,
	}

	deps := generator.KeepDependencies(g, statuses, r.Hash())
	assert.Equal(t, []string{c.Hash()}, deps)
}

func TestKeepDependenciesDeduplicates(t *testing.T) {
	t.Parallel()

	// R depends on A and B, both pruned and both depending on the same leaf:
	// the leaf must appear once.
	leaf := spec.New("zlib", "1.3.1", "gcc@12", nil, nil)
	a := spec.New("pkg-a", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{leaf})
	b := spec.New("pkg-b", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{leaf})
	r := spec.New("pkg-r", "1.0.0", "gcc@12", nil, []*spec.ConcreteSpec{a, b})

	g, err := pipeline.Build(context.Background(), []*spec.ConcreteSpec{r})
	require.NoError(t, err)

	statuses := prune.Result{
		a.Hash(): prune.PrunedAvailable,
		b.Hash(): prune.PrunedAvailable,
	}

	deps := generator.KeepDependencies(g, statuses, r.Hash())
	assert.Equal(t, []string{leaf.Hash()}, deps)
}
