// Package config defines the format-agnostic configuration model for a
// pipeline generation run, along with the Loader interface implemented by
// format-specific packages.
//
// The config.Model is the single source of truth for the pipeline, prune,
// attr and generator packages. The concrete HCL implementation lives in
// internal/hclcfg.
package config
