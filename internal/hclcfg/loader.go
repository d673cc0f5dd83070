package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/packsmith/pipegen/internal/attr"
	"github.com/packsmith/pipegen/internal/config"
	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all recognized top-level blocks from
// any manifest file.
type fileRoot struct {
	Specs     []*specBlock     `hcl:"spec,block"`
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Rules     []*ruleBlock     `hcl:"rule,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type specBlock struct {
	Label     string         `hcl:"name,label"`
	Version   string         `hcl:"version"`
	Compiler  string         `hcl:"compiler,optional"`
	Variants  hcl.Expression `hcl:"variants,optional"`
	Deps      []string       `hcl:"deps,optional"`
	Root      bool           `hcl:"root,optional"`
	Available bool           `hcl:"available,optional"`
	Broken    bool           `hcl:"broken,optional"`
}

type pipelineBlock struct {
	Platform      string   `hcl:"platform,optional"`
	Output        string   `hcl:"output,optional"`
	PruneUpToDate bool     `hcl:"prune_up_to_date,optional"`
	PruneBroken   bool     `hcl:"prune_broken,optional"`
	AffectedOnly  bool     `hcl:"affected_only,optional"`
	Changed       []string `hcl:"changed,optional"`
}

type ruleBlock struct {
	Match        *matchBlock    `hcl:"match,block"`
	Tags         []string       `hcl:"tags,optional"`
	Variables    hcl.Expression `hcl:"variables,optional"`
	Stage        *int           `hcl:"stage,optional"`
	AllowFailure *bool          `hcl:"allow_failure,optional"`
}

type matchBlock struct {
	Package  string        `hcl:"package,optional"`
	Platform string        `hcl:"platform,optional"`
	Variant  *variantBlock `hcl:"variant,block"`
}

type variantBlock struct {
	Key   string `hcl:"key,label"`
	Value string `hcl:"value"`
}

// Load reads every .hcl file under path, decodes the recognized blocks, and
// translates them into the format-agnostic config model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifest files found under %s", path)
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	parser := hclparse.NewParser()

	var specs []*specBlock
	var pipelines []*pipelineBlock
	var rules []*ruleBlock

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest file %s: %w", file, diags)
		}

		specs = append(specs, root.Specs...)
		pipelines = append(pipelines, root.Pipelines...)
		rules = append(rules, root.Rules...)
	}

	if len(pipelines) > 1 {
		return nil, fmt.Errorf("manifest declares %d pipeline blocks, expected at most one", len(pipelines))
	}

	model := &config.Model{
		Broken:          make(map[string]bool),
		Available:       make(map[string]bool),
		ChangedPackages: make(map[string]bool),
	}

	if len(pipelines) == 1 {
		p := pipelines[0]
		model.Options = config.Options{
			Platform:      p.Platform,
			OutputPath:    p.Output,
			PruneUpToDate: p.PruneUpToDate,
			PruneBroken:   p.PruneBroken,
			AffectedOnly:  p.AffectedOnly,
		}
		for _, name := range p.Changed {
			model.ChangedPackages[name] = true
		}
	}

	if err := linkSpecs(specs, model); err != nil {
		return nil, err
	}

	model.Rules = make([]attr.Rule, 0, len(rules))
	for i, rb := range rules {
		rule, err := translateRule(rb, i)
		if err != nil {
			return nil, err
		}
		model.Rules = append(model.Rules, rule)
	}

	logger.Debug("Manifest loaded.",
		"specs", len(specs), "roots", len(model.Roots), "rules", len(model.Rules))
	return model, nil
}

// translateRule converts a decoded rule block into the resolver's rule
// record, assigning the declaration index used for precedence tie-breaks.
func translateRule(rb *ruleBlock, declIndex int) (attr.Rule, error) {
	rule := attr.Rule{
		DeclIndex:    declIndex,
		Tags:         rb.Tags,
		Stage:        rb.Stage,
		AllowFailure: rb.AllowFailure,
	}

	if rb.Match != nil {
		rule.Match = attr.Predicate{
			Package:  rb.Match.Package,
			Platform: rb.Match.Platform,
		}
		if rb.Match.Variant != nil {
			rule.Match.VariantKey = rb.Match.Variant.Key
			rule.Match.VariantValue = rb.Match.Variant.Value
		}
	}

	variables, err := decodeStringMap(rb.Variables)
	if err != nil {
		return attr.Rule{}, fmt.Errorf("invalid variables in rule %d: %w", declIndex, err)
	}
	rule.Variables = variables

	return rule, nil
}
