//go:build legacyapi

package precision

import (
	"context"
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// Apply writes a resolved configuration onto an older-generation builder via
// its flag setters. The returned backend.Config is nil: legacy builds read
// everything off the builder itself. Precision semantics are identical to the
// structured surface; only the write path differs.
func Apply(ctx context.Context, b backend.Builder, cfg Config, cal backend.Calibrator) (backend.Config, error) {
	logger := ctxlog.FromContext(ctx)

	lb, ok := b.(backend.LegacyBuilder)
	if !ok {
		return nil, fmt.Errorf("builder %T does not expose the legacy flag-setter surface", b)
	}

	lb.SetMaxWorkspaceSize(cfg.MaxWorkspaceBytes)
	lb.SetMaxBatchSize(cfg.MaxBatchSize)
	lb.SetFP16Mode(cfg.FP16)
	lb.SetDebugSync(cfg.Debug)
	if cfg.INT8 {
		lb.SetInt8Mode(true)
		if cal != nil {
			lb.SetInt8Calibrator(cal)
		}
	}

	logger.Debug("Builder configuration applied.",
		"surface", "legacy",
		"fp16", cfg.FP16,
		"int8", cfg.INT8,
		"debug", cfg.Debug,
		"max_batch_size", cfg.MaxBatchSize,
		"max_workspace_bytes", cfg.MaxWorkspaceBytes,
	)
	return nil, nil
}
