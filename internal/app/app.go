package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/packsmith/pipegen/internal/config"
	"github.com/packsmith/pipegen/internal/ctxlog"
	"github.com/packsmith/pipegen/internal/generator"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *generator.Registry
	model    *config.Model
	cfg      *Config
}

// NewApp is the constructor for the main application. It loads the manifest
// through the given loader, applies CLI overrides, and populates the
// generator registry. When no generators are passed explicitly, the
// compiled-in core set is registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, generators ...generator.Generator) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Debug("Manifest loaded and translated into unified model.")

	// CLI flags win over the pipeline block.
	if cfg.Platform != "" {
		model.Options.Platform = cfg.Platform
	}
	if cfg.OutputPath != "" {
		model.Options.OutputPath = cfg.OutputPath
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	reg := generator.NewRegistry()
	if len(generators) == 0 {
		generators = coreGenerators
	}
	for _, gen := range generators {
		if err := reg.Register(gen); err != nil {
			return nil, err
		}
	}
	logger.Debug("All generators registered.", "platforms", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		cfg:      cfg,
	}, nil
}

// Registry returns the application's generator registry. This is primarily
// for testing.
func (a *App) Registry() *generator.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
