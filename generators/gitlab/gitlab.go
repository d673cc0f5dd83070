// Package gitlab is the reference pipeline generator. It renders the pruned
// and annotated pipeline graph as a GitLab CI YAML definition.
package gitlab

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/generator"
)

// Platform is the registry name this generator registers under.
const Platform = "gitlab"

// retryConditions are the transient failure classes a build job is retried
// on. See https://docs.gitlab.com/ee/ci/yaml/#retry for the full list.
var retryConditions = []string{
	"unknown_failure",
	"script_failure",
	"api_failure",
	"stuck_or_timeout_failure",
	"runner_system_failure",
	"scheduler_failure",
}

// defaultScript is the rebuild command each emitted job runs. What the
// command does with the spec variables is the build farm's concern, not the
// generator's.
var defaultScript = []string{"pipegen ci rebuild"}

// job is one GitLab job entry. Field order here controls field order in the
// rendered YAML.
type job struct {
	Stage         string            `yaml:"stage"`
	Tags          []string          `yaml:"tags,omitempty"`
	Variables     map[string]string `yaml:"variables,omitempty"`
	Script        []string          `yaml:"script"`
	Needs         []need            `yaml:"needs,omitempty"`
	AllowFailure  bool              `yaml:"allow_failure,omitempty"`
	Retry         *retry            `yaml:"retry,omitempty"`
	Interruptible bool              `yaml:"interruptible,omitempty"`
}

type need struct {
	Job       string `yaml:"job"`
	Artifacts bool   `yaml:"artifacts"`
}

type retry struct {
	Max  int      `yaml:"max"`
	When []string `yaml:"when"`
}

// Generator writes GitLab CI pipeline definitions.
type Generator struct{}

// New creates the GitLab generator.
func New() *Generator {
	return &Generator{}
}

// Platform implements the generator.Generator interface.
func (g *Generator) Platform() string { return Platform }

// JobName returns the stable job identifier for a node: the spec rendered
// with its short hash, so the name survives regeneration of an unchanged
// graph and never collides across distinct specs.
func JobName(in *generator.Input, id string) string {
	n, _ := in.Graph.Node(id)
	s := n.Spec()
	return fmt.Sprintf("%s@%s /%s", s.Name(), s.Version(), s.ShortHash())
}

// Generate implements the generator.Generator interface. The output is a
// sorted-key YAML document, so generating twice from unchanged inputs
// produces a byte-identical artifact.
func (g *Generator) Generate(ctx context.Context, in *generator.Input) error {
	logger := ctxlog.FromContext(ctx)

	document := make(map[string]any)

	// Stage grouping follows the graph's topological levels; a job can then
	// never share a stage with, or precede, anything it depends on. The
	// resolved stage attribute is carried through as an ordering-hint
	// variable.
	levels := in.Graph.LevelIndex()
	usedLevels := make(map[int]bool)

	jobCount := 0
	for _, id := range in.Graph.IDs() {
		if !in.Statuses.IsKeep(id) {
			continue
		}
		attrs := in.Attributes[id]

		variables := make(map[string]string, len(attrs.Variables)+1)
		for k, v := range attrs.Variables {
			variables[k] = v
		}
		variables["PIPEGEN_STAGE_HINT"] = strconv.Itoa(attrs.Stage)

		var needs []need
		for _, depID := range generator.KeepDependencies(in.Graph, in.Statuses, id) {
			needs = append(needs, need{Job: JobName(in, depID), Artifacts: false})
		}
		sort.Slice(needs, func(i, j int) bool { return needs[i].Job < needs[j].Job })

		level := levels[id]
		usedLevels[level] = true

		document[JobName(in, id)] = job{
			Stage:         stageName(level),
			Tags:          attrs.Tags,
			Variables:     variables,
			Script:        defaultScript,
			Needs:         needs,
			AllowFailure:  attrs.AllowFailure,
			Retry:         &retry{Max: 2, When: retryConditions},
			Interruptible: true,
		}
		jobCount++
	}

	if jobCount == 0 {
		// Nothing survived pruning; emit a single no-op so the child
		// pipeline still has something to run.
		document["no-specs-to-rebuild"] = job{
			Stage:        stageName(0),
			Script:       []string{`echo "All specs already up to date, nothing to rebuild."`},
			AllowFailure: true,
		}
		document["stages"] = []string{stageName(0)}
	} else {
		var stageLevels []int
		for level := range usedLevels {
			stageLevels = append(stageLevels, level)
		}
		sort.Ints(stageLevels)
		stages := make([]string, 0, len(stageLevels))
		for _, level := range stageLevels {
			stages = append(stages, stageName(level))
		}
		document["stages"] = stages
	}

	rebuildEverything := !in.Options.PruneUpToDate && !in.Options.AffectedOnly
	document["variables"] = map[string]string{
		"PIPEGEN_PIPELINE_PLATFORM":  Platform,
		"PIPEGEN_PRUNE_UP_TO_DATE":   strconv.FormatBool(in.Options.PruneUpToDate),
		"PIPEGEN_REBUILD_EVERYTHING": strconv.FormatBool(rebuildEverything),
	}

	// The child pipeline always runs, even when triggered indirectly.
	document["workflow"] = map[string]any{"rules": []map[string]string{{"when": "always"}}}

	data, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to render gitlab pipeline: %w", err)
	}

	if err := generator.WriteFileAtomic(in.Options.OutputPath, data); err != nil {
		return err
	}

	logger.Debug("GitLab pipeline written.", "jobs", jobCount, "output", in.Options.OutputPath)
	return nil
}

// stageName formats the stage identifier for one topological level.
func stageName(level int) string {
	return fmt.Sprintf("stage-%d", level)
}
