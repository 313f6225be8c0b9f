// Package flush implements the double-buffered rotation protocol of spec
// §4.5: atomically swapping the current registry for a fresh one and
// handing the retired registry to an asynchronous serializer.
package flush

import (
	"io"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/metricsd/metricsd/internal/aggregate"
	"github.com/metricsd/metricsd/internal/epoch"
	"github.com/metricsd/metricsd/internal/wire"
)

// Serializer walks a retired, frozen registry and writes one record per
// derived statistic to w, stamping every record with the given rotation
// timestamp (Unix seconds).
type Serializer interface {
	Serialize(reg *aggregate.Registry, rotatedAt int64, w io.Writer) error
}

// SinkOpener opens one byte-stream destination per flush — in production,
// a freshly spawned child process's stdin — matching spec §6's "the
// original spawns per flush." Wait is called after the writer is closed
// and should block until the downstream consumer has finished (e.g. the
// child process has exited), returning a non-nil error to be logged on
// abnormal exit.
type SinkOpener interface {
	Open() (w io.WriteCloser, wait func() error, err error)
}

// Logger is the minimal logging surface the controller needs; satisfied
// by internal/logging.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Controller is the explicit handle (spec §9's "Daemon" re-architecture)
// that owns the single shared mutable pointer to the current registry and
// drives rotation. It is the only thing ingress and the timer scheduler
// need a reference to.
type Controller struct {
	current atomic.Pointer[aggregate.Registry]
	factory *aggregate.Factory
	clock   epoch.Clock

	serializer Serializer
	sinkOpener SinkOpener
	log        Logger
}

// New builds a controller with an initial, empty current registry.
func New(factory *aggregate.Factory, clock epoch.Clock, serializer Serializer, sinkOpener SinkOpener, log Logger) *Controller {
	c := &Controller{
		factory:    factory,
		clock:      clock,
		serializer: serializer,
		sinkOpener: sinkOpener,
		log:        log,
	}
	c.current.Store(aggregate.NewRegistry(factory))
	return c
}

// Add folds one sample into the current epoch's registry. It is a no-op
// after final_flush has run (current is a null sentinel) and never blocks
// on the serializer, per spec §5's contract.
func (c *Controller) Add(s wire.Sample) {
	reg := c.current.Load()
	if reg == nil {
		return
	}
	reg.Add(s)
}

// Rotate performs one atomic swap of the current registry for a fresh one
// and hands the retired registry to a detached background worker. It
// returns once the swap and freeze are complete, without waiting for the
// worker to finish serializing.
func (c *Controller) Rotate() {
	c.rotate()
}

// FinalFlush performs one last rotation and blocks until that rotation's
// worker has finished draining, then leaves the current registry as a nil
// sentinel so that subsequent Add calls become no-ops.
func (c *Controller) FinalFlush() {
	done := c.rotate()
	<-done
	c.current.Store(nil)
}

// rotate is the shared implementation: swap, freeze, spawn. It returns the
// channel the spawned worker closes on completion so FinalFlush can join
// it; Rotate discards that channel (fire-and-forget).
func (c *Controller) rotate() chan struct{} {
	fresh := aggregate.NewRegistry(c.factory)
	retired := c.current.Swap(fresh)

	// Freeze blocks until every in-flight Add on the retired registry
	// (started before the swap was observed) has completed — Add and
	// Freeze share the registry's own mutex, so this is the barrier
	// spec §5 requires: "rotate returns only after every concurrent
	// add_sample observing the old pointer has completed."
	if retired != nil {
		retired.Freeze()
	}

	rotatedAt := c.clock.Now().Unix()
	done := make(chan struct{})

	go func() {
		defer close(done)
		if retired == nil {
			return
		}
		defer retired.Destroy()

		id := uuid.NewString()
		c.log.Debugf("flush %s: rotation at ts=%d starting", id, rotatedAt)

		w, wait, err := c.sinkOpener.Open()
		if err != nil {
			c.log.Errorf("flush %s: opening sink failed: %v", id, err)
			return
		}

		serErr := c.serializer.Serialize(retired, rotatedAt, w)
		closeErr := w.Close()
		waitErr := wait()

		if waitErr != nil {
			c.log.Errorf("flush %s: downstream process exited abnormally: %v", id, waitErr)
		}
		switch {
		case serErr != nil:
			c.log.Errorf("flush %s: serialize failed: %v", id, serErr)
		case closeErr != nil:
			c.log.Errorf("flush %s: closing sink failed: %v", id, closeErr)
		default:
			c.log.Infof("flush %s: rotation at ts=%d complete", id, rotatedAt)
		}
	}()

	return done
}
