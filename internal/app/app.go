// Package app wires configuration, logging, the backend toolkit, and the
// build pipeline into a runnable application.
package app

import (
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/tensorgridgo/internal/backend"
)

// App encapsulates one configured instance of the engine builder.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	toolkit backend.Toolkit
	engines *lru.Cache[string, backend.Engine]
}

// New constructs an App around the given toolkit. The engine cache is
// created only when the config opts into it.
func New(outW io.Writer, cfg *Config, toolkit backend.Toolkit) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	a := &App{
		outW:    outW,
		logger:  logger,
		toolkit: toolkit,
	}
	if cfg.EngineCacheSize > 0 {
		cache, err := lru.New[string, backend.Engine](cfg.EngineCacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating engine cache: %w", err)
		}
		a.engines = cache
		logger.Debug("Engine cache enabled.", "size", cfg.EngineCacheSize)
	}
	return a, nil
}

// Logger returns the app's logger. Primarily for testing.
func (a *App) Logger() *slog.Logger { return a.logger }
