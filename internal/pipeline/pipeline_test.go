package pipeline_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/backend/soft"
	"github.com/vk/tensorgridgo/internal/build"
	"github.com/vk/tensorgridgo/internal/calibrate"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/graph/modeltest"
	"github.com/vk/tensorgridgo/internal/parse"
	"github.com/vk/tensorgridgo/internal/pipeline"
)

func params() pipeline.Params {
	return pipeline.Params{
		MaxBatchSize:      1,
		MaxWorkspaceBytes: 1 << 20,
		Severity:          backend.SeverityWarning,
	}
}

func TestRun_MinimalModel(t *testing.T) {
	t.Parallel()

	// One operator, one output, no calibrator, fp16 off.
	out, err := pipeline.Run(context.Background(), soft.Default(), modeltest.SingleNode("Relu", "y"), params())
	require.NoError(t, err)

	require.NotNil(t, out.Engine)
	assert.NotNil(t, out.Parser)
	assert.NotNil(t, out.Logger)
	assert.Nil(t, out.Calibrated)
}

func TestRun_MalformedModel(t *testing.T) {
	t.Parallel()

	tk := &countingToolkit{Toolkit: soft.Default()}
	_, err := pipeline.Run(context.Background(), tk, []byte{0xFF, 0xFF, 0xFF}, params())
	require.ErrorIs(t, err, graph.ErrMalformed)
	assert.Zero(t, tk.builds(), "no build may be attempted after a parse failure")
}

func TestRun_RejectedModel(t *testing.T) {
	t.Parallel()

	model := modeltest.Bytes(graph.IRVersion,
		graph.Node{OpType: "Relu", Outputs: []string{"a"}},
		graph.Node{OpType: "Swizzle", Outputs: []string{"b"}},
	)
	tk := &countingToolkit{Toolkit: soft.Default()}
	_, err := pipeline.Run(context.Background(), tk, model, params())

	var report *parse.Report
	require.ErrorAs(t, err, &report)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].Node)
	assert.Equal(t, "Swizzle", report.Errors[0].OpType)
	assert.Zero(t, tk.builds())
}

func TestRun_FP16Downgrade(t *testing.T) {
	t.Parallel()

	tk := soft.New(soft.Options{FastFP16: false, FastInt8: true})
	p := params()
	p.FP16 = true

	out, err := pipeline.Run(context.Background(), tk, modeltest.SingleNode("Relu", "y"), p)
	require.NoError(t, err, "a capability downgrade is recoverable; the build still succeeds")
	require.NotNil(t, out.Engine)
	assert.Equal(t, "fp32", enginePrecision(t, out.Engine))
}

func TestRun_Int8Downgrade(t *testing.T) {
	t.Parallel()

	tk := soft.New(soft.Options{FastFP16: true, FastInt8: false})
	cal := calibrate.NewFileCache(filepath.Join(t.TempDir(), "calib.cache"))
	p := params()
	p.Calibrator = cal

	out, err := pipeline.Run(context.Background(), tk, modeltest.SingleNode("Relu", "y"), p)
	require.NoError(t, err)
	assert.Nil(t, out.Calibrated)
	assert.True(t, cal.Done(), "downgrade must retire the calibrator")
	assert.Equal(t, "fp32", enginePrecision(t, out.Engine))
}

func TestRun_CalibrationCachePopulated(t *testing.T) {
	t.Parallel()

	cal := calibrate.NewFileCache(filepath.Join(t.TempDir(), "calib.cache"))
	require.NoError(t, cal.WriteCache([]byte("existing scales")))
	p := params()
	p.Calibrator = cal

	tk := &countingToolkit{Toolkit: soft.Default()}
	out, err := pipeline.Run(context.Background(), tk, modeltest.SingleNode("Relu", "y"), p)
	require.NoError(t, err)

	// Existing calibration data: the primary int8 build suffices.
	assert.Nil(t, out.Calibrated)
	assert.Equal(t, "int8", enginePrecision(t, out.Engine))
	assert.Equal(t, 1, tk.builds())
}

func TestRun_CalibrationLaunch(t *testing.T) {
	t.Parallel()

	cal := calibrate.NewFileCache(filepath.Join(t.TempDir(), "calib.cache"))
	batches := [][]float32{{0.5, 1.5}, {2.5}}
	cal.Batches = func() ([]float32, bool) {
		if len(batches) == 0 {
			return nil, false
		}
		b := batches[0]
		batches = batches[1:]
		return b, true
	}
	p := params()
	p.Calibrator = cal

	tk := &countingToolkit{Toolkit: soft.New(soft.Options{FastFP16: true, FastInt8: true, BuildDelay: 5 * time.Millisecond})}
	out, err := pipeline.Run(context.Background(), tk, modeltest.SingleNode("Relu", "y"), p)
	require.NoError(t, err)
	require.NotNil(t, out.Calibrated, "empty cache must launch a calibration build")

	eng, err := out.Calibrated.Await()
	require.NoError(t, err)
	require.NotNil(t, eng)
	assert.Equal(t, 2, tk.builds(), "primary plus exactly one calibration build")

	// The calibration pass persisted the cache.
	assert.False(t, cal.CacheEmpty())

	// Second await: same terminal result, no third build.
	again, err := out.Calibrated.Await()
	require.NoError(t, err)
	assert.Equal(t, eng, again)
	assert.Equal(t, 2, tk.builds())
}

func TestRun_NullArtifact(t *testing.T) {
	t.Parallel()

	tk := soft.New(soft.Options{FastFP16: true, FastInt8: true, FailBuilds: true})
	_, err := pipeline.Run(context.Background(), tk, modeltest.SingleNode("Relu", "y"), params())
	require.ErrorIs(t, err, build.ErrNullEngine)
}

func TestRun_InvalidParams(t *testing.T) {
	t.Parallel()

	p := params()
	p.MaxBatchSize = 0
	_, err := pipeline.Run(context.Background(), soft.Default(), modeltest.SingleNode("Relu", "y"), p)
	require.Error(t, err)

	p = params()
	p.MaxWorkspaceBytes = -1
	_, err = pipeline.Run(context.Background(), soft.Default(), modeltest.SingleNode("Relu", "y"), p)
	require.Error(t, err)
}

func TestVersions(t *testing.T) {
	t.Parallel()

	tk := &countingToolkit{Toolkit: soft.Default()}
	first := pipeline.Versions(tk)
	second := pipeline.Versions(tk)

	assert.Equal(t, first, second)
	assert.Contains(t, first, graph.IRVersionString(graph.IRVersion))
	assert.Contains(t, first, "7.2.1")
	assert.Zero(t, tk.buildersCreated, "version reporting must not allocate builder resources")
}

// countingToolkit wraps a toolkit and counts builder creations and builds.
type countingToolkit struct {
	backend.Toolkit

	mu              sync.Mutex
	buildersCreated int
	buildCount      int
}

func (t *countingToolkit) NewBuilder(log backend.Logger) (backend.Builder, error) {
	t.mu.Lock()
	t.buildersCreated++
	t.mu.Unlock()
	b, err := t.Toolkit.NewBuilder(log)
	if err != nil {
		return nil, err
	}
	return &countingBuilder{Builder: b, owner: t}, nil
}

func (t *countingToolkit) builds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buildCount
}

type countingBuilder struct {
	backend.Builder
	owner *countingToolkit
}

func (b *countingBuilder) Build(net backend.Network, cfg backend.Config) backend.Engine {
	b.owner.mu.Lock()
	b.owner.buildCount++
	b.owner.mu.Unlock()
	return b.Builder.Build(net, cfg)
}

// The wrapped soft builder exposes both configuration surfaces; forward the
// flag setters so the wrapper does too.
func (b *countingBuilder) legacy() backend.LegacyBuilder { return b.Builder.(backend.LegacyBuilder) }

func (b *countingBuilder) SetFP16Mode(on bool)                      { b.legacy().SetFP16Mode(on) }
func (b *countingBuilder) SetInt8Mode(on bool)                      { b.legacy().SetInt8Mode(on) }
func (b *countingBuilder) SetInt8Calibrator(cal backend.Calibrator) { b.legacy().SetInt8Calibrator(cal) }
func (b *countingBuilder) SetMaxWorkspaceSize(bytes int64)          { b.legacy().SetMaxWorkspaceSize(bytes) }
func (b *countingBuilder) SetDebugSync(on bool)                     { b.legacy().SetDebugSync(on) }
func (b *countingBuilder) BuildNetwork(net backend.Network) backend.Engine {
	b.owner.mu.Lock()
	b.owner.buildCount++
	b.owner.mu.Unlock()
	return b.legacy().BuildNetwork(net)
}

func enginePrecision(t *testing.T, e backend.Engine) string {
	t.Helper()
	p, ok := e.(interface{ Precision() string })
	require.True(t, ok, "soft engines report their precision")
	return p.Precision()
}
