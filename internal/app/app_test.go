package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/packsmith/pipegen/internal/app"
	"github.com/packsmith/pipegen/internal/hclcfg"
	"github.com/packsmith/pipegen/internal/testutil"
)

const appManifest = `
pipeline {
  platform = "gitlab"
  output   = "%OUT%"
}

spec "zlib" {
  version  = "1.3.1"
  compiler = "gcc@12"
}

spec "curl" {
  version  = "8.8.0"
  compiler = "gcc@12"
  deps     = ["zlib"]
}

rule {
  tags = ["small"]
}
`

func writeAppManifest(t *testing.T, manifest string) (dir, outPath string) {
	t.Helper()
	outPath = filepath.Join(t.TempDir(), "pipeline.yml")
	content := strings.ReplaceAll(manifest, "%OUT%", outPath)
	dir = testutil.WriteManifest(t, map[string]string{"ci.hcl": content})
	return dir, outPath
}

func newTestConfig(t *testing.T, manifestPath string) *app.Config {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{
		ManifestPath: manifestPath,
		LogFormat:    "text",
		LogLevel:     "error",
		Workers:      4,
	})
	require.NoError(t, err)
	return cfg
}

func TestAppEndToEnd(t *testing.T) {
	t.Parallel()

	dir, outPath := writeAppManifest(t, appManifest)

	logBuf := &testutil.SafeBuffer{}
	a, err := app.NewApp(logBuf, newTestConfig(t, dir), hclcfg.NewLoader())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	// Two jobs plus stages, variables, and workflow.
	assert.Len(t, doc, 5)
	assert.Contains(t, doc, "stages")
	assert.Contains(t, doc, "workflow")
}

func TestAppCLIOverrides(t *testing.T) {
	t.Parallel()

	dir, _ := writeAppManifest(t, appManifest)

	override := filepath.Join(t.TempDir(), "override.yml")
	cfg, err := app.NewConfig(app.Config{
		ManifestPath: dir,
		OutputPath:   override,
		LogFormat:    "text",
		LogLevel:     "error",
		Workers:      2,
	})
	require.NoError(t, err)

	a, err := app.NewApp(&testutil.SafeBuffer{}, cfg, hclcfg.NewLoader())
	require.NoError(t, err)
	assert.Equal(t, override, a.Model().Options.OutputPath)

	require.NoError(t, a.Run(context.Background()))
	_, err = os.Stat(override)
	assert.NoError(t, err)
}

func TestAppCoreGeneratorsRegistered(t *testing.T) {
	t.Parallel()

	dir, _ := writeAppManifest(t, appManifest)

	a, err := app.NewApp(&testutil.SafeBuffer{}, newTestConfig(t, dir), hclcfg.NewLoader())
	require.NoError(t, err)
	assert.Equal(t, []string{"gitlab"}, a.Registry().Names())
}

func TestAppValidationFailures(t *testing.T) {
	t.Parallel()

	t.Run("unknown platform surfaces at run time", func(t *testing.T) {
		t.Parallel()
		dir, _ := writeAppManifest(t, appManifest)

		cfg := newTestConfig(t, dir)
		cfg.Platform = "jenkins"
		a, err := app.NewApp(&testutil.SafeBuffer{}, cfg, hclcfg.NewLoader())
		require.NoError(t, err)

		err = a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no registered generator for platform "jenkins"`)
	})

	t.Run("missing platform fails construction", func(t *testing.T) {
		t.Parallel()
		outPath := filepath.Join(t.TempDir(), "pipeline.yml")
		dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
pipeline {
  output = "` + outPath + `"
}

spec "zlib" {
  version = "1.3.1"
}
`})

		_, err := app.NewApp(&testutil.SafeBuffer{}, newTestConfig(t, dir), hclcfg.NewLoader())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no target platform configured")
	})

	t.Run("missing manifest fails construction", func(t *testing.T) {
		t.Parallel()
		_, err := app.NewApp(&testutil.SafeBuffer{}, newTestConfig(t, filepath.Join(t.TempDir(), "nope")), hclcfg.NewLoader())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load manifest")
	})

	t.Run("missing tags rule fails the run", func(t *testing.T) {
		t.Parallel()
		outPath := filepath.Join(t.TempDir(), "pipeline.yml")
		dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
pipeline {
  platform = "gitlab"
  output   = "` + outPath + `"
}

spec "zlib" {
  version = "1.3.1"
}
`})

		a, err := app.NewApp(&testutil.SafeBuffer{}, newTestConfig(t, dir), hclcfg.NewLoader())
		require.NoError(t, err)

		err = a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "attribute resolution failed")
	})
}

func TestAppPruningFromManifest(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "pipeline.yml")
	dir := testutil.WriteManifest(t, map[string]string{"ci.hcl": `
pipeline {
  platform         = "gitlab"
  output           = "` + outPath + `"
  prune_up_to_date = true
}

spec "zlib" {
  version   = "1.3.1"
  available = true
}

spec "curl" {
  version = "8.8.0"
  deps    = ["zlib"]
}

rule {
  tags = ["small"]
}
`})

	a, err := app.NewApp(&testutil.SafeBuffer{}, newTestConfig(t, dir), hclcfg.NewLoader())
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	// Only curl survives, so exactly one job key is present.
	jobs := 0
	for key := range doc {
		switch key {
		case "stages", "variables", "workflow":
		default:
			jobs++
			assert.Contains(t, key, "curl@8.8.0")
		}
	}
	assert.Equal(t, 1, jobs)
}
