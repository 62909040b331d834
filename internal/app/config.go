package app

import (
	"errors"
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/config"
)

// Config holds everything an App instance needs to run one build invocation.
type Config struct {
	ModelPath   string
	ProfilePath string

	FP16            bool
	Debug           bool
	MaxBatchSize    int
	MaxWorkspaceMiB int64
	Severity        string

	CalibrationCache string

	LogFormat string
	LogLevel  string

	EngineCacheSize int
	PrintVersion    bool

	// Explicit names the flags the user set on the command line; those win
	// over profile values during merge.
	Explicit map[string]bool
}

// NewConfig validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" && !cfg.PrintVersion {
		return nil, errors.New("a model path is required unless -version is given")
	}
	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("max batch size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.MaxWorkspaceMiB <= 0 {
		return nil, fmt.Errorf("max workspace size must be positive, got %d MiB", cfg.MaxWorkspaceMiB)
	}
	if _, err := backend.ParseSeverity(cfg.Severity); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyProfile merges profile values into the config. A flag the user set
// explicitly keeps its command-line value; everything else defers to the
// profile when the profile carries it.
func (c *Config) ApplyProfile(p *config.Profile) {
	set := func(name string) bool { return !c.Explicit[name] }

	if p.FP16 != nil && set("fp16") {
		c.FP16 = *p.FP16
	}
	if p.Debug != nil && set("debug") {
		c.Debug = *p.Debug
	}
	if p.MaxBatchSize != nil && set("batch") {
		c.MaxBatchSize = *p.MaxBatchSize
	}
	if p.MaxWorkspaceMiB != nil && set("workspace-mib") {
		c.MaxWorkspaceMiB = *p.MaxWorkspaceMiB
	}
	if p.Severity != nil && set("severity") {
		c.Severity = *p.Severity
	}
	if p.CalibrationCache != nil && set("calibration-cache") {
		c.CalibrationCache = *p.CalibrationCache
	}
}
