package tsinfer

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// RunConfig is the TOML-encoded configuration for a CLI invocation of any
// of the bin/ commands, loaded the way the teacher loads its simulation
// configs (_examples/kentwait-contagion/evoepi_config_loader.go,
// utils.go:LoadSingleHostConfig).
type RunConfig struct {
	NumThreads        int    `toml:"num_threads"`
	PathCompression   bool   `toml:"path_compression"`
	ExtendedChecks    bool   `toml:"extended_checks"`
	LoggerType        string `toml:"logger"` // csv | sqlite
	InputPath         string `toml:"input_path"`
	OutputPath        string `toml:"output_path"`
	AncestorsPath     string `toml:"ancestors_path"`
	TelemetryPath     string `toml:"telemetry_path"`
	PathCacheSize     int    `toml:"path_cache_size"`

	validated bool
}

// DefaultRunConfig returns a RunConfig with the same defaults the CLI
// commands fall back on when no TOML file overrides them.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		NumThreads:      1,
		PathCompression: true,
		LoggerType:      "csv",
		PathCacheSize:   256,
	}
}

// LoadRunConfig decodes a TOML file into a RunConfig, applying defaults for
// any field the file does not set.
func LoadRunConfig(path string) (*RunConfig, error) {
	conf := DefaultRunConfig()
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, errors.Wrapf(err, "loading run config from %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks the configuration is usable.
func (c *RunConfig) Validate() error {
	if c.NumThreads < 1 {
		return invalidInputf("num_threads must be >= 1, got %d", c.NumThreads)
	}
	if c.InputPath == "" {
		return invalidInputf("input_path is required")
	}
	switch c.LoggerType {
	case "csv", "sqlite", "":
	default:
		return invalidInputf("logger %q is not one of csv|sqlite", c.LoggerType)
	}
	if c.PathCacheSize <= 0 {
		c.PathCacheSize = 256
	}
	c.validated = true
	return nil
}
