package app

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPaths    []string // hcl files or directories
	VariablesPath string   // optional yaml file of context variables

	// Plugs to evaluate, e.g. "b.out". Empty means every unconnected
	// output.
	Plugs      []string
	FrameStart float64
	FrameEnd   float64
	FrameStep  float64
	// Overrides are `node.plug=value` assignments applied before
	// evaluation.
	Overrides []string

	WorkerCount     int
	MemoryLimit     int64
	HashCacheSize   int
	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	NotifyURL       string
	NotifyNamespace string
}

func NewConfig(cfg Config) (*Config, error) {
	var result *multierror.Error
	if len(cfg.GraphPaths) == 0 {
		result = multierror.Append(result, errors.New("GraphPaths is a required configuration field and cannot be empty"))
	}
	if cfg.FrameEnd < cfg.FrameStart {
		result = multierror.Append(result, fmt.Errorf("frame end %g is before frame start %g", cfg.FrameEnd, cfg.FrameStart))
	}
	if cfg.FrameStep < 0 {
		result = multierror.Append(result, fmt.Errorf("frame step must not be negative, got %g", cfg.FrameStep))
	}
	if cfg.MemoryLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("memory limit must not be negative, got %d", cfg.MemoryLimit))
	}
	if cfg.HashCacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("hash cache size must not be negative, got %d", cfg.HashCacheSize))
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
