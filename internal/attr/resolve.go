package attr

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/pipeline"
	"github.com/packsmith/pipegen/internal/prune"
)

// Built-in variable names injected into every job after rule merging, so
// downstream job scripts can recover the spec they are building.
const (
	VarSpecHash     = "PIPEGEN_SPEC_HASH"
	VarSpecName     = "PIPEGEN_SPEC_NAME"
	VarSpecVersion  = "PIPEGEN_SPEC_VERSION"
	VarSpecCompiler = "PIPEGEN_SPEC_COMPILER"
	VarSpecVariants = "PIPEGEN_SPEC_VARIANTS"
)

// MissingAttributeError reports that a surviving node's merged attributes
// lack a mandatory field. It carries the node identity so the offending
// configuration can be located.
type MissingAttributeError struct {
	NodeID string
	Spec   string
	Field  string
}

// Error implements the error interface for MissingAttributeError.
func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("no rule supplies required attribute %q for spec %s (%s)", e.Field, e.Spec, e.NodeID)
}

// Resolve merges the configuration rules into one attribute set per node
// with status Keep. Rules are sorted once by (specificity, declaration
// index); every matching rule is applied in that order, field-by-field, so
// the most specific and latest-declared rule wins.
//
// A node with no tags after merging fails with *MissingAttributeError, as
// does a rule-supplied negative stage. When no rule sets a stage, the
// node's topological level is used, which always yields a valid ordering
// hint.
//
// Per-node merging only reads the shared rule slice and the immutable graph,
// so nodes are resolved in parallel up to the given worker count. The result
// is deterministic for fixed inputs.
func Resolve(ctx context.Context, g *pipeline.Graph, statuses prune.Result, rules []Rule, platform string, workers int) (map[string]JobAttributes, error) {
	logger := ctxlog.FromContext(ctx)

	sorted := sortRules(rules)
	levels := g.LevelIndex()

	var keepIDs []string
	for _, id := range g.IDs() {
		if statuses.IsKeep(id) {
			keepIDs = append(keepIDs, id)
		}
	}

	merged := make([]JobAttributes, len(keepIDs))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 1 {
		group.SetLimit(workers)
	} else {
		group.SetLimit(1)
	}

	for i, id := range keepIDs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			node, _ := g.Node(id)
			attrs, err := mergeNode(node, sorted, platform, levels[id])
			if err != nil {
				return err
			}
			merged[i] = attrs
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]JobAttributes, len(keepIDs))
	for i, id := range keepIDs {
		result[id] = merged[i]
	}

	logger.Debug("Attribute resolution complete.", "jobs", len(result), "rules", len(rules))
	return result, nil
}

// mergeNode computes the final attribute set for a single node.
func mergeNode(node *pipeline.Node, sorted []Rule, platform string, topoLevel int) (JobAttributes, error) {
	s := node.Spec()

	attrs := JobAttributes{
		Variables: make(map[string]string),
	}

	var stage *int
	for _, rule := range sorted {
		if !rule.Match.Matches(s, platform) {
			continue
		}
		if rule.Tags != nil {
			attrs.Tags = append([]string(nil), rule.Tags...)
		}
		for k, v := range rule.Variables {
			attrs.Variables[k] = v
		}
		if rule.Stage != nil {
			stage = rule.Stage
		}
		if rule.AllowFailure != nil {
			attrs.AllowFailure = *rule.AllowFailure
		}
	}

	if len(attrs.Tags) == 0 {
		return JobAttributes{}, &MissingAttributeError{NodeID: node.ID(), Spec: s.String(), Field: "tags"}
	}
	switch {
	case stage == nil:
		attrs.Stage = topoLevel
	case *stage < 0:
		return JobAttributes{}, &MissingAttributeError{NodeID: node.ID(), Spec: s.String(), Field: "stage"}
	default:
		attrs.Stage = *stage
	}

	attrs.Variables[VarSpecHash] = s.Hash()
	attrs.Variables[VarSpecName] = s.Name()
	attrs.Variables[VarSpecVersion] = s.Version()
	attrs.Variables[VarSpecCompiler] = s.Compiler()
	attrs.Variables[VarSpecVariants] = s.VariantString()

	return attrs, nil
}
