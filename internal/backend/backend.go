// Package backend defines the capability surface of an engine-building
// toolkit. The pipeline only ever talks to these interfaces; a concrete
// toolkit (hardware-accelerated or the in-process soft backend) plugs in
// underneath without the pipeline knowing which one it got.
package backend

import "fmt"

// Severity levels for toolkit diagnostics, most severe first.
type Severity int

const (
	SeverityInternalError Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityVerbose
)

// String returns the lowercase name used in flags and profiles.
func (s Severity) String() string {
	switch s {
	case SeverityInternalError:
		return "internal_error"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityVerbose:
		return "verbose"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity maps a flag or profile string onto a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	case "verbose", "debug":
		return SeverityVerbose, nil
	default:
		return 0, fmt.Errorf("unknown severity %q: must be 'error', 'warning', 'info', or 'verbose'", s)
	}
}

// Logger receives diagnostics emitted by the toolkit itself while it works.
// The pipeline adapts this onto slog; toolkits must treat it as fire-and-forget.
type Logger interface {
	Log(sev Severity, msg string)
}

// Toolkit is the root handle of a builder implementation.
type Toolkit interface {
	// Version reports the toolkit's own version triple. Pure; allocates no
	// builder resources.
	Version() (major, minor, patch int)

	// NewBuilder creates a builder bound to the given diagnostic logger.
	// The logger must stay valid for as long as the builder and any engine
	// it produced are in use.
	NewBuilder(log Logger) (Builder, error)

	// NewImporter creates an importer that populates the given network from
	// serialized model bytes. The importer is the acceptance authority for
	// the model format.
	NewImporter(net Network, log Logger) Importer
}

// Builder drives engine construction. A builder and the network it created
// are owned by exactly one goroutine at a time; ownership of both moves to
// the calibration goroutine when a calibration build is launched.
type Builder interface {
	PlatformHasFastFP16() bool
	PlatformHasFastInt8() bool

	NewNetwork() Network
	NewConfig() Config

	SetMaxBatchSize(n int)

	// Build compiles the network under the given configuration. It blocks
	// the calling goroutine for the duration and returns nil when no usable
	// engine could be produced; callers must treat nil as a build failure.
	Build(net Network, cfg Config) Engine
}

// BuilderFlag is a precision or instrumentation switch on a build configuration.
type BuilderFlag int

const (
	FlagFP16 BuilderFlag = iota
	FlagINT8
	FlagDebug
)

// Config is the structured configuration surface of current-generation
// builders. Older builders expose the same switches directly on the builder;
// see LegacyBuilder.
type Config interface {
	SetFlag(f BuilderFlag)
	SetMaxWorkspaceSize(bytes int64)
	SetInt8Calibrator(c Calibrator)
}

// LegacyBuilder is the flag-setter configuration surface of older builder
// generations. Builders that support it implement it in addition to Builder;
// the precision layer selects which surface to use at compile time.
type LegacyBuilder interface {
	Builder

	SetFP16Mode(on bool)
	SetInt8Mode(on bool)
	SetInt8Calibrator(c Calibrator)
	SetMaxWorkspaceSize(bytes int64)
	SetDebugSync(on bool)

	// BuildNetwork compiles the network using the flags previously set on
	// the builder. Same blocking and nil-return contract as Builder.Build.
	BuildNetwork(net Network) Engine
}

// Network is the toolkit-side representation of the model under construction.
// Opaque to the pipeline; populated by an Importer, consumed by Build.
type Network interface {
	LayerCount() int
}

// Importer feeds serialized model bytes into a Network.
type Importer interface {
	// Import parses the model. A false return means the model was rejected;
	// Errors then reports why, in the order the failures were found.
	Import(model []byte) bool

	// Errors returns the accumulated import errors. Empty on acceptance.
	Errors() []ImportError
}

// ImportError is one structured failure reported by an Importer.
type ImportError struct {
	// Node is the index of the offending node in the model's node sequence,
	// or -1 when the failure is not attributable to a single node.
	Node int
	Code int
	File string
	Line int
	Func string
	Desc string
}

// Engine is a compiled, configuration-specific artifact. Its validity may be
// tied to the importer and logger it was built with; see pipeline.Outcome.
type Engine interface {
	// DeviceMemorySize reports the scratch memory the engine reserves at
	// execution time, in bytes.
	DeviceMemorySize() int64
}

// Calibrator supplies reduced-precision calibration state. The pipeline
// references it, never owns it: the caller must keep it valid until any
// launched calibration build has resolved.
type Calibrator interface {
	// CacheEmpty reports whether no usable calibration cache exists yet.
	// An empty cache is what triggers a separate calibration build.
	CacheEmpty() bool

	// SetDone marks the calibrator as retired. Idempotent. Called when a
	// requested int8 build is downgraded so no batch producer keeps waiting.
	SetDone()
}
