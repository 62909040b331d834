package soft

import (
	"fmt"
	"time"

	"github.com/vk/tensorgridgo/internal/backend"
)

// BatchSource is implemented by calibrators that stream representative
// batches. The soft builder drains it during an int8 calibration build, the
// way a real builder pulls batches until the source is exhausted.
type BatchSource interface {
	NextBatch() ([]float32, bool)
}

// cacheWriter is implemented by calibrators that persist derived scales once
// calibration finishes.
type cacheWriter interface {
	WriteCache(scales []byte) error
}

type config struct {
	flags      map[backend.BuilderFlag]bool
	workspace  int64
	calibrator backend.Calibrator
}

func newConfig() *config {
	return &config{flags: make(map[backend.BuilderFlag]bool)}
}

func (c *config) SetFlag(f backend.BuilderFlag)            { c.flags[f] = true }
func (c *config) SetMaxWorkspaceSize(bytes int64)          { c.workspace = bytes }
func (c *config) SetInt8Calibrator(cal backend.Calibrator) { c.calibrator = cal }

// builder implements both the structured and the legacy flag-setter
// surfaces. Legacy setters write into a builder-held config so both paths
// funnel into the same build.
type builder struct {
	opts     Options
	log      backend.Logger
	maxBatch int
	legacy   *config
}

func (b *builder) PlatformHasFastFP16() bool { return b.opts.FastFP16 }
func (b *builder) PlatformHasFastInt8() bool { return b.opts.FastInt8 }

func (b *builder) NewNetwork() backend.Network { return &network{} }
func (b *builder) NewConfig() backend.Config   { return newConfig() }

func (b *builder) SetMaxBatchSize(n int) { b.maxBatch = n }

func (b *builder) Build(net backend.Network, cfg backend.Config) backend.Engine {
	c, _ := cfg.(*config)
	return b.buildWith(net.(*network), c)
}

// Legacy flag-setter surface.

func (b *builder) legacyConfig() *config {
	if b.legacy == nil {
		b.legacy = newConfig()
	}
	return b.legacy
}

func (b *builder) SetFP16Mode(on bool)                      { b.legacyConfig().flags[backend.FlagFP16] = on }
func (b *builder) SetInt8Mode(on bool)                      { b.legacyConfig().flags[backend.FlagINT8] = on }
func (b *builder) SetInt8Calibrator(cal backend.Calibrator) { b.legacyConfig().calibrator = cal }
func (b *builder) SetMaxWorkspaceSize(bytes int64)          { b.legacyConfig().workspace = bytes }
func (b *builder) SetDebugSync(on bool)                     { b.legacyConfig().flags[backend.FlagDebug] = on }

func (b *builder) BuildNetwork(net backend.Network) backend.Engine {
	return b.buildWith(net.(*network), b.legacyConfig())
}

func (b *builder) buildWith(net *network, cfg *config) backend.Engine {
	if b.opts.FailBuilds {
		b.log.Log(backend.SeverityError, "build failed: simulated fault injected")
		return nil
	}
	if net.model == nil {
		b.log.Log(backend.SeverityError, "build failed: network has no imported model")
		return nil
	}
	if cfg == nil || cfg.workspace <= 0 {
		b.log.Log(backend.SeverityError, "build failed: no workspace configured")
		return nil
	}
	if b.maxBatch <= 0 {
		b.log.Log(backend.SeverityError, "build failed: max batch size not set")
		return nil
	}

	if b.opts.BuildDelay > 0 {
		time.Sleep(b.opts.BuildDelay)
	}

	precision := "fp32"
	if cfg.flags[backend.FlagFP16] {
		precision = "fp16"
	}
	if cfg.flags[backend.FlagINT8] {
		precision = "int8"
		b.calibrateInt8(cfg)
	}

	layers := net.model.Nodes
	eng := &engine{
		layers:    len(layers),
		precision: precision,
		deviceMem: cfg.workspace/2 + int64(len(layers))*4096,
	}
	b.log.Log(backend.SeverityInfo, fmt.Sprintf("built %s engine with %d layer(s)", precision, eng.layers))
	return eng
}

// calibrateInt8 runs the batch-pull protocol: drain the calibrator's batch
// source, then persist the derived scales when the calibrator accepts them.
func (b *builder) calibrateInt8(cfg *config) {
	cal := cfg.calibrator
	if cal == nil || !cal.CacheEmpty() {
		return
	}

	batches := 0
	var acc float64
	if src, ok := cal.(BatchSource); ok {
		for {
			batch, more := src.NextBatch()
			if !more {
				break
			}
			batches++
			for _, v := range batch {
				acc += float64(v)
			}
		}
	}
	b.log.Log(backend.SeverityInfo, fmt.Sprintf("calibration consumed %d batch(es)", batches))

	if w, ok := cal.(cacheWriter); ok {
		scales := fmt.Appendf(nil, "soft-calibration batches=%d acc=%.6f\n", batches, acc)
		if err := w.WriteCache(scales); err != nil {
			b.log.Log(backend.SeverityWarning, fmt.Sprintf("could not persist calibration cache: %v", err))
		}
	}
}

type engine struct {
	layers    int
	precision string
	deviceMem int64
}

func (e *engine) DeviceMemorySize() int64 { return e.deviceMem }

// Precision reports the mode the engine was built with.
func (e *engine) Precision() string { return e.precision }

// LayerCount reports the number of compiled layers.
func (e *engine) LayerCount() int { return e.layers }
