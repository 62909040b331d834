// Package soft is an in-process reference backend. It builds no real
// hardware engine; it validates the network against a small operator
// registry and produces a deterministic artifact, which is enough to run the
// whole pipeline end-to-end and to exercise every capability path in tests.
package soft

import (
	"fmt"
	"runtime"
	"time"

	"github.com/vk/tensorgridgo/internal/backend"
)

// Toolkit version triple reported by this backend.
const (
	versionMajor = 7
	versionMinor = 2
	versionPatch = 1
)

// Import error codes.
const (
	codeInvalidModel = 7
	codeInvalidGraph = 9
)

// Options configure the simulated hardware.
type Options struct {
	// FastFP16 / FastInt8 report the platform capability flags.
	FastFP16 bool
	FastInt8 bool

	// BuildDelay stretches each build, letting tests observe the primary
	// and calibration builds overlapping in wall-clock time.
	BuildDelay time.Duration

	// FailBuilds makes every build return a null artifact.
	FailBuilds bool
}

// Toolkit implements backend.Toolkit.
type Toolkit struct {
	opts Options
}

// New creates a toolkit with the given simulated capabilities.
func New(opts Options) *Toolkit { return &Toolkit{opts: opts} }

// Default returns a toolkit with every capability enabled.
func Default() *Toolkit {
	return New(Options{FastFP16: true, FastInt8: true})
}

func (t *Toolkit) Version() (major, minor, patch int) {
	return versionMajor, versionMinor, versionPatch
}

func (t *Toolkit) NewBuilder(log backend.Logger) (backend.Builder, error) {
	if log == nil {
		return nil, fmt.Errorf("soft: builder requires a diagnostic logger")
	}
	log.Log(backend.SeverityVerbose, "soft builder created")
	return &builder{opts: t.opts, log: log}, nil
}

func (t *Toolkit) NewImporter(net backend.Network, log backend.Logger) backend.Importer {
	return &importer{net: net.(*network), log: log}
}

// here reports the caller's source location for import-error records.
func here() (file string, line int, fn string) {
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return "soft", 0, "unknown"
	}
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return file, line, fn
}
