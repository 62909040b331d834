// Package pipeline wires the build stages together: parse, precision
// resolution, the primary synchronous build, and the optional concurrent
// calibration build.
package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/build"
	"github.com/vk/tensorgridgo/internal/calibrate"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/parse"
	"github.com/vk/tensorgridgo/internal/precision"
)

// Params are the caller-supplied build parameters. Int8 is requested by
// supplying a Calibrator; the calibrator is referenced, not owned, and must
// stay valid until any launched calibration build resolves.
type Params struct {
	FP16              bool
	Debug             bool
	MaxBatchSize      int
	MaxWorkspaceBytes int64
	Severity          backend.Severity
	Calibrator        backend.Calibrator
}

// Outcome bundles the primary engine with the handles that must outlive it.
//
// Keep-alive contract: some builder generations tie engine validity to the
// importer and diagnostic logger that produced it. Callers must hold Parser
// and Logger at least as long as they use Engine. Calibrated is nil unless a
// calibration build was launched; it resolves exactly once and repeated
// awaits return the same terminal result.
type Outcome struct {
	Engine     backend.Engine
	Parser     backend.Importer
	Logger     backend.Logger
	Calibrated *calibrate.Deferred
}

// Run executes the whole build. The call blocks for the duration of the
// primary build; a launched calibration build keeps running after Run
// returns, on its own goroutine, with exclusive ownership of the builder and
// network objects.
func Run(ctx context.Context, toolkit backend.Toolkit, model []byte, p Params) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	if p.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("max batch size must be positive, got %d", p.MaxBatchSize)
	}
	if p.MaxWorkspaceBytes <= 0 {
		return nil, fmt.Errorf("max workspace size must be positive, got %d", p.MaxWorkspaceBytes)
	}

	diag := newDiagLogger(logger, p.Severity)
	builder, err := toolkit.NewBuilder(diag)
	if err != nil {
		return nil, fmt.Errorf("creating builder: %w", err)
	}
	network := builder.NewNetwork()
	importer := toolkit.NewImporter(network, diag)

	// Parse must succeed before any build is attempted.
	parser := parse.New(importer, p.Severity)
	if _, err := parser.Parse(ctx, model); err != nil {
		return nil, err
	}

	// Finalize precision flags. The two downgrade paths happen here, before
	// any build starts; the configuration is read-only afterwards.
	cfg, calibrator := precision.Resolve(ctx, builder, precision.Request{
		FP16:              p.FP16,
		Debug:             p.Debug,
		MaxBatchSize:      p.MaxBatchSize,
		MaxWorkspaceBytes: p.MaxWorkspaceBytes,
		Severity:          p.Severity,
	}, p.Calibrator)

	// The primary build carries the calibrator only when its cache already
	// holds data: int8 ranges come straight from the cache. With an empty
	// cache the calibrator instead rides with the calibration build, which
	// is the one that pulls batches.
	primaryCal := calibrator
	if calibrator != nil && calibrator.CacheEmpty() {
		primaryCal = nil
	}
	builderCfg, err := precision.Apply(ctx, builder, cfg, primaryCal)
	if err != nil {
		return nil, err
	}

	res := &build.Resources{Builder: builder, Network: network, Config: builderCfg}
	engine, err := build.Run(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("primary engine build: %w", err)
	}

	// The primary build is done with the bundle; if calibration launches,
	// the spawned goroutine owns it exclusively from here on.
	deferred := calibrate.MaybeLaunch(ctx, res, calibrator)

	return &Outcome{
		Engine:     engine,
		Parser:     importer,
		Logger:     diag,
		Calibrated: deferred,
	}, nil
}
