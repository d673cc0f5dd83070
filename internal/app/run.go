package app

import (
	"context"
	"fmt"

	"github.com/packsmith/pipegen/internal/attr"
	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/generator"
	"github.com/packsmith/pipegen/internal/pipeline"
	"github.com/packsmith/pipegen/internal/prune"
)

// Run executes one pipeline generation: build the graph, prune it, resolve
// job attributes, and hand everything to the configured platform generator.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	opts := a.model.Options

	graph, err := pipeline.Build(ctx, a.model.Roots)
	if err != nil {
		return fmt.Errorf("failed to build pipeline graph: %w", err)
	}
	a.logger.Info("Pipeline graph built.", "nodes", graph.Len(), "roots", len(graph.Roots()))

	statuses, err := prune.Run(ctx, graph, prune.Options{
		PruneBroken:   opts.PruneBroken,
		PruneUpToDate: opts.PruneUpToDate,
		AffectedOnly:  opts.AffectedOnly,
		Workers:       a.cfg.Workers,
	}, prune.Signals{
		Broken:          a.model.Broken,
		Available:       a.model.Available,
		ChangedPackages: a.model.ChangedPackages,
	})
	if err != nil {
		return fmt.Errorf("pruning failed: %w", err)
	}
	a.logger.Info("Pruning complete.", "keep", statuses.KeepCount(), "total", graph.Len())

	attributes, err := attr.Resolve(ctx, graph, statuses, a.model.Rules, opts.Platform, a.cfg.Workers)
	if err != nil {
		return fmt.Errorf("attribute resolution failed: %w", err)
	}

	gen, err := a.registry.Resolve(opts.Platform)
	if err != nil {
		return err
	}

	input := &generator.Input{
		Graph:      graph,
		Statuses:   statuses,
		Attributes: attributes,
		Options:    opts,
	}
	if err := gen.Generate(ctx, input); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	a.logger.Info("Pipeline definition written.", "platform", opts.Platform, "output", opts.OutputPath)
	a.logger.Debug("App.Run method finished.")
	return nil
}
