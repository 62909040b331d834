package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgridgo/internal/graph/modeltest"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})
	require.NoError(t, err, "run() should return a nil error when exiting for help")
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-version"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Parser built against:")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	modelPath := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(modelPath, modeltest.SingleNode("Relu", "y"), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", modelPath})
	require.NoError(t, err)
}

func TestRun_ProfileOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(modelPath, modeltest.SingleNode("Relu", "y"), 0o600))

	profilePath := filepath.Join(dir, "profile.hcl")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
build {
  max_batch_size = 8
}
`), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", "-profile", profilePath, modelPath})
	require.NoError(t, err)
}

func TestRun_ProfileDiagnosticsUseConfiguredLogger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(modelPath, modeltest.SingleNode("Relu", "y"), 0o600))

	profilePath := filepath.Join(dir, "profile.hcl")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
build {
  fp16 = false
}
`), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "debug", "-profile", profilePath, modelPath})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Build profile loaded.",
		"profile-load diagnostics must honor -log-level")
}

func TestRun_RejectedModel(t *testing.T) {
	t.Parallel()

	modelPath := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(modelPath, modeltest.SingleNode("Swizzle", "y"), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", modelPath})
	require.Error(t, err)
}
