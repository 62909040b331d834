//go:build !legacyapi

package precision

import (
	"context"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// Apply writes a resolved configuration onto a current-generation builder via
// its structured configuration object and returns that object for the build
// call. The calibrator, when present, is attached here.
func Apply(ctx context.Context, b backend.Builder, cfg Config, cal backend.Calibrator) (backend.Config, error) {
	logger := ctxlog.FromContext(ctx)

	bc := b.NewConfig()
	bc.SetMaxWorkspaceSize(cfg.MaxWorkspaceBytes)
	b.SetMaxBatchSize(cfg.MaxBatchSize)
	if cfg.FP16 {
		bc.SetFlag(backend.FlagFP16)
	}
	if cfg.INT8 {
		bc.SetFlag(backend.FlagINT8)
		if cal != nil {
			bc.SetInt8Calibrator(cal)
		}
	}
	if cfg.Debug {
		bc.SetFlag(backend.FlagDebug)
	}

	logger.Debug("Builder configuration applied.",
		"surface", "config",
		"fp16", cfg.FP16,
		"int8", cfg.INT8,
		"debug", cfg.Debug,
		"max_batch_size", cfg.MaxBatchSize,
		"max_workspace_bytes", cfg.MaxWorkspaceBytes,
	)
	return bc, nil
}
