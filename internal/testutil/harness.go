// Package testutil provides shared fixtures and harnesses for pipegen tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packsmith/pipegen/internal/pipeline"
	"github.com/packsmith/pipegen/internal/spec"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// DiamondSpecs is the canonical four-node fixture used across the test
// suite: root R depends on A and B, and A depends on C.
type DiamondSpecs struct {
	R, A, B, C *spec.ConcreteSpec
}

// NewDiamondSpecs constructs the fixture with fresh specs.
func NewDiamondSpecs() DiamondSpecs {
	c := spec.New("pkg-c", "1.0.0", "gcc@12", nil, nil)
	a := spec.New("pkg-a", "2.1.0", "gcc@12", nil, []*spec.ConcreteSpec{c})
	b := spec.New("pkg-b", "0.9.4", "gcc@12", nil, nil)
	r := spec.New("pkg-r", "3.0.0", "gcc@12", nil, []*spec.ConcreteSpec{a, b})
	return DiamondSpecs{R: r, A: a, B: b, C: c}
}

// BuildDiamond builds the pipeline graph for the fixture.
func BuildDiamond(t *testing.T) (DiamondSpecs, *pipeline.Graph) {
	t.Helper()
	specs := NewDiamondSpecs()
	g, err := pipeline.Build(context.Background(), []*spec.ConcreteSpec{specs.R})
	require.NoError(t, err)
	return specs, g
}

// WriteManifest writes the given files (relative path to content) into a
// fresh temporary directory and returns its path.
func WriteManifest(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(tmpDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return tmpDir
}
