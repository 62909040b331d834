package calibrate

import (
	"os"
	"sync"
)

// FileCache is a calibrator backed by a cache file on disk. The cache is
// considered empty while the file is absent or zero-length; the batch-pull
// protocol that fills it belongs to the backend, exposed here only as an
// optional batch source hook.
type FileCache struct {
	path string

	// Batches, when non-nil, supplies successive calibration batches to
	// the backend during the int8 build. A false return ends the stream.
	Batches func() ([]float32, bool)

	doneOnce sync.Once
	done     bool
}

// NewFileCache creates a calibrator over the given cache file path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the cache file location.
func (c *FileCache) Path() string { return c.path }

// NextBatch pulls the next calibration batch from the configured source. It
// reports an exhausted stream when no source is set.
func (c *FileCache) NextBatch() ([]float32, bool) {
	if c.Batches == nil {
		return nil, false
	}
	return c.Batches()
}

// CacheEmpty reports whether no usable calibration cache exists yet.
func (c *FileCache) CacheEmpty() bool {
	fi, err := os.Stat(c.path)
	return err != nil || fi.Size() == 0
}

// WriteCache persists derived calibration scales, making the cache
// non-empty for subsequent invocations.
func (c *FileCache) WriteCache(scales []byte) error {
	return os.WriteFile(c.path, scales, 0o644)
}

// SetDone marks the calibrator as retired. Idempotent.
func (c *FileCache) SetDone() {
	c.doneOnce.Do(func() { c.done = true })
}

// Done reports whether the calibrator has been retired.
func (c *FileCache) Done() bool { return c.done }
