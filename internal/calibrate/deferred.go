package calibrate

import (
	"sync"

	"github.com/vk/tensorgridgo/internal/backend"
)

// Deferred is a one-shot handle to the result of a calibration build. It
// resolves exactly once; every Await after resolution returns the same
// terminal result without re-running anything. Cancellation is deliberately
// not supported: a launched calibration build always runs to completion or
// failure.
type Deferred struct {
	done chan struct{}
	once sync.Once

	engine backend.Engine
	err    error
}

func newDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Await blocks until the calibration build resolves, then returns its
// engine or failure. Safe to call from multiple goroutines and repeatedly.
func (d *Deferred) Await() (backend.Engine, error) {
	<-d.done
	return d.engine, d.err
}

func (d *Deferred) resolve(engine backend.Engine, err error) {
	d.once.Do(func() {
		d.engine = engine
		d.err = err
		close(d.done)
	})
}
