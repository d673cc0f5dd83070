package spec

import (
	"fmt"
	"sort"
	"strings"
)

// ConcreteSpec is a single fully resolved package build unit: a name, a
// version, a toolchain, a set of variants, and edges to the concrete specs it
// depends on. Instances are immutable after construction; the content hash is
// computed once by New and never changes.
type ConcreteSpec struct {
	name     string
	version  string
	compiler string
	variants map[string]string
	deps     []*ConcreteSpec
	hash     string
}

// New builds a ConcreteSpec from its resolved attributes and dependency
// edges. The variants map and the dependency slice are copied, so later
// mutation of the arguments cannot affect the spec or its identity.
func New(name, version, compiler string, variants map[string]string, deps []*ConcreteSpec) *ConcreteSpec {
	s := &ConcreteSpec{
		name:     name,
		version:  version,
		compiler: compiler,
		variants: make(map[string]string, len(variants)),
		deps:     make([]*ConcreteSpec, len(deps)),
	}
	for k, v := range variants {
		s.variants[k] = v
	}
	copy(s.deps, deps)
	s.hash = contentHash(s)
	return s
}

// Name returns the package name.
func (s *ConcreteSpec) Name() string { return s.name }

// Version returns the resolved package version.
func (s *ConcreteSpec) Version() string { return s.version }

// Compiler returns the toolchain identifier the spec was concretized with.
func (s *ConcreteSpec) Compiler() string { return s.compiler }

// Variant returns the value of a single variant and whether it is set.
func (s *ConcreteSpec) Variant(key string) (string, bool) {
	v, ok := s.variants[key]
	return v, ok
}

// Variants returns a copy of the variant mapping.
func (s *ConcreteSpec) Variants() map[string]string {
	out := make(map[string]string, len(s.variants))
	for k, v := range s.variants {
		out[k] = v
	}
	return out
}

// Dependencies returns a copy of the direct dependency edges.
func (s *ConcreteSpec) Dependencies() []*ConcreteSpec {
	out := make([]*ConcreteSpec, len(s.deps))
	copy(out, s.deps)
	return out
}

// Hash returns the spec's content hash: its stable identity within a
// pipeline graph. Two specs with equal hashes are the same build unit.
func (s *ConcreteSpec) Hash() string { return s.hash }

// ShortHash returns the first eight characters of the content hash, used in
// human-readable job names and log lines.
func (s *ConcreteSpec) ShortHash() string { return s.hash[:8] }

// VariantString renders the variants in canonical "+k=v" form, sorted by
// key, so the same variant set always formats identically.
func (s *ConcreteSpec) VariantString() string {
	if len(s.variants) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.variants))
	for k := range s.variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("+%s=%s", k, s.variants[k]))
	}
	return sb.String()
}

// String renders the spec in "name@version%compiler /hash" form.
func (s *ConcreteSpec) String() string {
	return fmt.Sprintf("%s@%s%%%s /%s", s.name, s.version, s.compiler, s.ShortHash())
}
