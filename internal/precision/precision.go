// Package precision selects the precision modes a build actually runs with.
// Requested modes the platform cannot accelerate are downgraded with a
// warning, never failed: a slower engine beats no engine.
//
// Two builder API generations expose precision switches differently: a
// structured configuration object on current builders, flag setters directly
// on the builder on older ones. The resolution rules live here once; the
// surface-specific apply step is chosen at compile time (see apply.go and
// apply_legacy.go).
package precision

import (
	"context"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// Capabilities is the slice of backend.Builder the resolver needs.
type Capabilities interface {
	PlatformHasFastFP16() bool
	PlatformHasFastInt8() bool
}

// Request carries the caller's precision wishes. Int8 is requested by
// supplying a calibrator, matching the toolkit convention.
type Request struct {
	FP16              bool
	Debug             bool
	MaxBatchSize      int
	MaxWorkspaceBytes int64
	Severity          backend.Severity
}

// Config is the finalized build configuration. Read-only once Resolve
// returns; the downgrade paths are the only writes and they happen inside
// Resolve, before any build starts.
type Config struct {
	FP16              bool
	INT8              bool
	Debug             bool
	MaxBatchSize      int
	MaxWorkspaceBytes int64
	Severity          backend.Severity
}

// Resolve applies the downgrade rules against the builder's capabilities and
// returns the final configuration plus the calibrator that survives it (nil
// when int8 was not requested or was downgraded).
func Resolve(ctx context.Context, caps Capabilities, req Request, cal backend.Calibrator) (Config, backend.Calibrator) {
	logger := ctxlog.FromContext(ctx)

	cfg := Config{
		FP16:              req.FP16,
		Debug:             req.Debug,
		MaxBatchSize:      req.MaxBatchSize,
		MaxWorkspaceBytes: req.MaxWorkspaceBytes,
		Severity:          req.Severity,
	}

	if cfg.FP16 && !caps.PlatformHasFastFP16() {
		logger.Warn("Platform has no fast fp16 support, building at full precision.")
		cfg.FP16 = false
	}

	if cal != nil {
		if caps.PlatformHasFastInt8() {
			cfg.INT8 = true
		} else {
			logger.Warn("Platform has no fast int8 support, skipping calibration.")
			// Retire the calibrator so no batch producer keeps waiting on a
			// build that will never pull from it.
			cal.SetDone()
			cal = nil
		}
	}

	return cfg, cal
}
