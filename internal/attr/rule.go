package attr

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/packsmith/pipegen/internal/spec"
)

// JobAttributes is the merged attribute set attached to one surviving node.
// It is created once by the resolver and read-only afterwards.
type JobAttributes struct {
	// Tags select which build-farm runners may pick up the job.
	Tags []string
	// Variables are exported into the job's environment.
	Variables map[string]string
	// Stage is the ordering hint the generator groups jobs by.
	Stage int
	// AllowFailure marks the job as non-fatal to the pipeline.
	AllowFailure bool
}

// Predicate is the match side of a configuration rule. An empty field is
// unconstrained; every constrained field must match for the rule to apply.
type Predicate struct {
	// Package is a glob pattern matched against the package name.
	Package string
	// VariantKey/VariantValue constrain one variant to an exact value.
	VariantKey   string
	VariantValue string
	// Platform constrains the rule to one generator platform.
	Platform string
}

// Specificity counts the constrained fields of the predicate. More
// constrained predicates take precedence over less constrained ones.
func (p Predicate) Specificity() int {
	n := 0
	if p.Package != "" {
		n++
	}
	if p.VariantKey != "" {
		n++
	}
	if p.Platform != "" {
		n++
	}
	return n
}

// Matches reports whether the predicate applies to the given spec under the
// given target platform.
func (p Predicate) Matches(s *spec.ConcreteSpec, platform string) bool {
	if p.Package != "" {
		ok, err := doublestar.Match(p.Package, s.Name())
		if err != nil || !ok {
			return false
		}
	}
	if p.VariantKey != "" {
		v, ok := s.Variant(p.VariantKey)
		if !ok || v != p.VariantValue {
			return false
		}
	}
	if p.Platform != "" && p.Platform != platform {
		return false
	}
	return true
}

// Rule binds a predicate to a partial attribute set. Nil fields are unset
// and leave the corresponding attribute untouched when the rule applies.
// DeclIndex is the rule's position in declaration order and breaks
// precedence ties: among equally specific rules, the later declaration wins.
type Rule struct {
	Match     Predicate
	DeclIndex int

	Tags         []string
	Variables    map[string]string
	Stage        *int
	AllowFailure *bool
}

// sortRules orders rules so that applying them front to back yields the
// documented precedence: ascending specificity, then ascending declaration
// index, so the most specific and most recently declared rule is applied
// last and wins field-by-field. Sorting is stable data, not evaluation
// order: the same rule slice always sorts identically.
func sortRules(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].Match.Specificity(), sorted[j].Match.Specificity()
		if si != sj {
			return si < sj
		}
		return sorted[i].DeclIndex < sorted[j].DeclIndex
	})
	return sorted
}
