// Package calibrate owns the optional second build path: the int8
// calibration build that runs on its own goroutine while the caller gets on
// with using the primary engine.
package calibrate

import (
	"context"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/build"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// MaybeLaunch decides whether a calibration build is needed and, if so,
// starts it on a new goroutine. Returns nil when no build was launched:
// either no calibrator was supplied, or its cache already holds calibration
// data and the primary build's int8 flag plus the existing cache suffice.
//
// On launch, ownership of the resource bundle moves entirely to the spawned
// goroutine; the caller must not touch the bundle afterwards. The primary
// build has already completed on these resources by the time this is called,
// so the two builds never run on them concurrently.
//
// At most one build is launched per invocation. There is no cancellation:
// once launched, the build runs to completion or failure, and the calibrator
// must stay valid until the returned Deferred resolves.
func MaybeLaunch(ctx context.Context, res *build.Resources, cal backend.Calibrator) *Deferred {
	logger := ctxlog.FromContext(ctx)

	if cal == nil {
		return nil
	}
	if !cal.CacheEmpty() {
		logger.Debug("Calibration cache already populated, no calibration build needed.")
		return nil
	}

	logger.Info("Calibration cache is empty, launching calibration build.")
	attachCalibrator(res, cal)
	d := newDeferred()
	go func(res *build.Resources) {
		// The builder pulls batches from the calibrator itself for the
		// duration; this goroutine just hosts the blocking build.
		engine, err := build.Run(ctx, res)
		if err != nil {
			logger.Error("Calibration build failed.", "error", err)
		}
		d.resolve(engine, err)
	}(res)
	return d
}
