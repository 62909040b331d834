package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/calibrate"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/pipeline"
)

// Run executes one build invocation: read the model, build the primary
// engine, and wait out any calibration build the pipeline launched.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.")

	if cfg.PrintVersion {
		fmt.Fprint(a.outW, pipeline.Versions(a.toolkit))
		return nil
	}

	model, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("reading model: %w", err)
	}

	severity, err := backend.ParseSeverity(cfg.Severity)
	if err != nil {
		return err
	}

	var calibrator backend.Calibrator
	if cfg.CalibrationCache != "" {
		calibrator = calibrate.NewFileCache(cfg.CalibrationCache)
	}

	params := pipeline.Params{
		FP16:              cfg.FP16,
		Debug:             cfg.Debug,
		MaxBatchSize:      cfg.MaxBatchSize,
		MaxWorkspaceBytes: cfg.MaxWorkspaceMiB << 20,
		Severity:          severity,
		Calibrator:        calibrator,
	}

	key := cacheKey(model, params, cfg.CalibrationCache)
	// An empty calibration cache means a calibration launch is due; serving a
	// cached engine would skip it, so only populated-cache runs may hit.
	if a.engines != nil && (calibrator == nil || !calibrator.CacheEmpty()) {
		if engine, ok := a.engines.Get(key); ok {
			a.logger.Info("Engine cache hit, reusing built engine.",
				"device_memory_bytes", engine.DeviceMemorySize())
			return nil
		}
	}

	outcome, err := pipeline.Run(ctx, a.toolkit, model, params)
	if err != nil {
		return fmt.Errorf("engine build failed: %w", err)
	}
	a.logger.Info("Primary engine built.",
		"device_memory_bytes", outcome.Engine.DeviceMemorySize(),
		"calibration_launched", outcome.Calibrated != nil,
	)

	if a.engines != nil {
		a.engines.Add(key, outcome.Engine)
	}

	// A CLI invocation has nothing else to overlap with the calibration
	// build, so wait for it here; library callers hold the Deferred and
	// choose their own moment.
	if outcome.Calibrated != nil {
		engine, err := outcome.Calibrated.Await()
		if err != nil {
			return fmt.Errorf("calibration build failed: %w", err)
		}
		a.logger.Info("Calibrated engine built.",
			"device_memory_bytes", engine.DeviceMemorySize())
	}

	a.logger.Debug("App.Run finished.")
	return nil
}

// cacheKey fingerprints the model bytes together with every parameter that
// changes what the builder would produce, including which calibration cache
// an int8 build draws its ranges from.
func cacheKey(model []byte, p pipeline.Params, calCachePath string) string {
	h := sha256.New()
	h.Write(model)
	int8 := p.Calibrator != nil
	fmt.Fprintf(h, "|fp16=%t|debug=%t|batch=%d|ws=%d|int8=%t",
		p.FP16, p.Debug, p.MaxBatchSize, p.MaxWorkspaceBytes, int8)
	if int8 {
		fmt.Fprintf(h, "|calcache=%s", calCachePath)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
