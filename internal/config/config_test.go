package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tensorgridgo/internal/config"
)

func writeProfile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
build {
  fp16              = true
  debug             = false
  max_batch_size    = 8
  max_workspace_mib = 256
  severity          = "info"
}

calibration {
  cache = "/var/cache/calib.bin"
}
`)

	p, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, p.FP16)
	assert.True(t, *p.FP16)
	require.NotNil(t, p.Debug)
	assert.False(t, *p.Debug)
	require.NotNil(t, p.MaxBatchSize)
	assert.Equal(t, 8, *p.MaxBatchSize)
	require.NotNil(t, p.MaxWorkspaceMiB)
	assert.Equal(t, int64(256), *p.MaxWorkspaceMiB)
	require.NotNil(t, p.Severity)
	assert.Equal(t, "info", *p.Severity)
	require.NotNil(t, p.CalibrationCache)
	assert.Equal(t, "/var/cache/calib.bin", *p.CalibrationCache)
}

func TestLoad_PartialProfile(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
build {
  fp16 = true
}
`)

	p, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, p.FP16)
	assert.Nil(t, p.Debug)
	assert.Nil(t, p.MaxBatchSize)
	assert.Nil(t, p.CalibrationCache)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeProfile(t, `build {`)
		_, err := config.Load(context.Background(), path)
		require.Error(t, err)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		path := writeProfile(t, `
build {
  turbo = true
}
`)
		_, err := config.Load(context.Background(), path)
		require.Error(t, err)
	})

	t.Run("unknown block", func(t *testing.T) {
		path := writeProfile(t, `
inference {
}
`)
		_, err := config.Load(context.Background(), path)
		require.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		path := writeProfile(t, `
build {
  max_batch_size = "lots"
}
`)
		_, err := config.Load(context.Background(), path)
		require.Error(t, err)
	})
}
