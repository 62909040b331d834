// Package build runs a single engine build to completion on the calling
// goroutine. The same primitive serves both the primary build and the
// calibration build; which one it is depends only on the configuration and
// calibrator attached beforehand, and on which goroutine it runs.
package build

import (
	"context"
	"errors"
	"time"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// ErrNullEngine reports that the builder finished without producing a usable
// artifact. A nil engine is never returned as success.
var ErrNullEngine = errors.New("builder returned no engine")

// Resources bundles the builder-side objects one build needs. A bundle is
// owned by exactly one goroutine at a time; launching a calibration build
// moves the whole bundle to the spawned goroutine.
type Resources struct {
	Builder backend.Builder
	Network backend.Network

	// Config is nil under the legacy builder surface, where the flags live
	// on the builder itself.
	Config backend.Config
}

// Run drives one build to completion. Blocking: the calling goroutine is
// suspended until the builder finishes. There is no mid-build abort; the
// context is used for logging only.
func Run(ctx context.Context, res *Resources) (backend.Engine, error) {
	logger := ctxlog.FromContext(ctx)

	logger.Debug("Engine build starting.", "layers", res.Network.LayerCount())
	start := time.Now()
	engine := buildEngine(res)
	if engine == nil {
		return nil, ErrNullEngine
	}
	logger.Info("Engine build finished.",
		"elapsed", time.Since(start),
		"device_memory_bytes", engine.DeviceMemorySize(),
	)
	return engine, nil
}
