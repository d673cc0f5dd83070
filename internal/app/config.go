package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // hcl manifest file or directory

	// OutputPath and Platform override the values from the pipeline block
	// when non-empty.
	OutputPath string
	Platform   string

	LogFormat string
	LogLevel  string
	Workers   int
}

// NewConfig validates the configuration and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
