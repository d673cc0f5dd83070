package hclcfg_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packsmith/pipegen/internal/attr"
	"github.com/packsmith/pipegen/internal/hclcfg"
	"github.com/packsmith/pipegen/internal/spec"
	"github.com/packsmith/pipegen/internal/testutil"
)

const validManifest = `
pipeline {
  platform         = "gitlab"
  output           = "pipeline.yml"
  prune_up_to_date = true
  changed          = ["zlib"]
}

spec "zlib" {
  version  = "1.3.1"
  compiler = "gcc@12"
  variants = { shared = true, pic = "true" }
  available = true
}

spec "curl" {
  version  = "8.8.0"
  compiler = "gcc@12"
  deps     = ["zlib"]
  root     = true
}

rule {
  tags = ["small"]
}

rule {
  match {
    package = "curl"
  }
  tags  = ["large"]
  stage = 3
  variables = {
    CURL_TLS = "openssl"
  }
}
`

func TestLoadValidManifest(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": validManifest})

	model, err := hclcfg.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "gitlab", model.Options.Platform)
	assert.Equal(t, "pipeline.yml", model.Options.OutputPath)
	assert.True(t, model.Options.PruneUpToDate)
	assert.False(t, model.Options.PruneBroken)
	assert.Equal(t, map[string]bool{"zlib": true}, model.ChangedPackages)

	require.Len(t, model.Roots, 1)
	root := model.Roots[0]
	assert.Equal(t, "curl", root.Name())
	require.Len(t, root.Dependencies(), 1)

	dep := root.Dependencies()[0]
	assert.Equal(t, "zlib", dep.Name())
	// Bare true and a quoted "true" both normalize to the string form.
	assert.Equal(t, map[string]string{"shared": "true", "pic": "true"}, dep.Variants())
	assert.Equal(t, map[string]bool{dep.Hash(): true}, model.Available)
	assert.Empty(t, model.Broken)

	require.Len(t, model.Rules, 2)
	assert.Equal(t, 0, model.Rules[0].DeclIndex)
	assert.Equal(t, attr.Predicate{}, model.Rules[0].Match)
	assert.Equal(t, []string{"small"}, model.Rules[0].Tags)

	second := model.Rules[1]
	assert.Equal(t, "curl", second.Match.Package)
	require.NotNil(t, second.Stage)
	assert.Equal(t, 3, *second.Stage)
	assert.Equal(t, map[string]string{"CURL_TLS": "openssl"}, second.Variables)
}

func TestLoadSingleFile(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": validManifest})

	model, err := hclcfg.NewLoader().Load(context.Background(), filepath.Join(dir, "ci.hcl"))
	require.NoError(t, err)
	assert.Len(t, model.Roots, 1)
}

func TestLoadSplitAcrossFiles(t *testing.T) {
	t.Parallel()

	// Blocks may be split across files; declaration order for rules follows
	// the sorted file order, so a_rules.hcl comes before b_rules.hcl.
	dir := testutil.WriteManifest(t, map[string]string{
		"a_rules.hcl": `
rule {
  tags = ["small"]
}
`,
		"b_rules.hcl": `
rule {
  tags = ["large"]
}
`,
		"specs.hcl": `
pipeline {
  platform = "gitlab"
  output   = "pipeline.yml"
}

spec "zlib" {
  version = "1.3.1"
}
`,
	})

	model, err := hclcfg.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, model.Rules, 2)
	assert.Equal(t, []string{"small"}, model.Rules[0].Tags)
	assert.Equal(t, []string{"large"}, model.Rules[1].Tags)
	assert.Equal(t, 0, model.Rules[0].DeclIndex)
	assert.Equal(t, 1, model.Rules[1].DeclIndex)
}

func TestLoadSharedDependencyIsOneSpec(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
spec "zlib" {
  version = "1.3.1"
}

spec "curl" {
  version = "8.8.0"
  deps    = ["zlib"]
}

spec "libpng" {
  version = "1.6.43"
  deps    = ["zlib"]
}
`})

	model, err := hclcfg.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	// No explicit roots: curl and libpng are inferred, zlib is not.
	require.Len(t, model.Roots, 2)
	var names []string
	for _, r := range model.Roots {
		names = append(names, r.Name())
	}
	assert.ElementsMatch(t, []string{"curl", "libpng"}, names)

	// Both roots must share the identical dependency object graph.
	assert.Equal(t,
		model.Roots[0].Dependencies()[0].Hash(),
		model.Roots[1].Dependencies()[0].Hash())
}

func TestLoadInferredRootsIgnoredWhenExplicit(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
spec "zlib" {
  version = "1.3.1"
  root    = true
}

spec "curl" {
  version = "8.8.0"
}
`})

	model, err := hclcfg.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	// curl depends on nothing and nothing depends on it, but an explicit root
	// marker disables inference entirely.
	require.Len(t, model.Roots, 1)
	assert.Equal(t, "zlib", model.Roots[0].Name())
}

func TestLoadDependencyHashesMatchDirectConstruction(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
spec "zlib" {
  version  = "1.3.1"
  compiler = "gcc@12"
}
`})

	model, err := hclcfg.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	want := spec.New("zlib", "1.3.1", "gcc@12", nil, nil)
	require.Len(t, model.Roots, 1)
	assert.Equal(t, want.Hash(), model.Roots[0].Hash())
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "no manifest files",
			files:   map[string]string{"readme.txt": "not a manifest"},
			wantErr: "no .hcl manifest files found",
		},
		{
			name:    "syntax error",
			files:   map[string]string{"ci.hcl": `spec "zlib" {`},
			wantErr: "failed to parse manifest file",
		},
		{
			name: "missing required attribute",
			files: map[string]string{"ci.hcl": `
spec "zlib" {
}
`},
			wantErr: "failed to decode manifest file",
		},
		{
			name: "duplicate spec label",
			files: map[string]string{"ci.hcl": `
spec "zlib" {
  version = "1.3.1"
}

spec "zlib" {
  version = "1.3.2"
}
`},
			wantErr: `duplicate spec label "zlib"`,
		},
		{
			name: "unknown dependency label",
			files: map[string]string{"ci.hcl": `
spec "curl" {
  version = "8.8.0"
  deps    = ["no-such-spec"]
}
`},
			wantErr: `references unknown dep "no-such-spec"`,
		},
		{
			name: "dependency cycle",
			files: map[string]string{"ci.hcl": `
spec "a" {
  version = "1.0.0"
  deps    = ["b"]
}

spec "b" {
  version = "1.0.0"
  deps    = ["a"]
}
`},
			wantErr: "dependency cycle in manifest",
		},
		{
			name: "multiple pipeline blocks",
			files: map[string]string{
				"a.hcl": `
pipeline {
  platform = "gitlab"
}
`,
				"b.hcl": `
pipeline {
  platform = "gitlab"
}
`,
			},
			wantErr: "expected at most one",
		},
		{
			name: "variants not a map",
			files: map[string]string{"ci.hcl": `
spec "zlib" {
  version  = "1.3.1"
  variants = ["shared"]
}
`},
			wantErr: `invalid variants for spec "zlib"`,
		},
		{
			name: "rule variables not a map",
			files: map[string]string{"ci.hcl": `
spec "zlib" {
  version = "1.3.1"
}

rule {
  tags      = ["small"]
  variables = 42
}
`},
			wantErr: "invalid variables in rule 0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := testutil.WriteManifest(t, tc.files)
			_, err := hclcfg.NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
