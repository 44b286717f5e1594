package abort

import (
	"fmt"
	"sync"
	"time"

	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
)

// Signal reports whether its owning Controller has aborted. It is safe
// for concurrent use. Consumers observe the signal; only the Controller
// can fire it.
type Signal struct {
	mu        sync.Mutex
	done      chan struct{}
	err       error
	listeners map[int]func()
	nextID    int
}

func newSignal() *Signal {
	return &Signal{
		done:      make(chan struct{}),
		listeners: make(map[int]func()),
	}
}

// Done returns a channel that is closed when the signal aborts.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Aborted reports whether the signal has fired.
func (s *Signal) Aborted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Err returns the abort cause, or nil if the signal has not fired.
// The cause always satisfies errors.IsAbort.
func (s *Signal) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// OnAbort registers f to run exactly once when the signal aborts, and
// returns a function that deregisters it. If the signal has already
// aborted, f runs synchronously and the returned function is a no-op.
// Deregistration is idempotent.
func (s *Signal) OnAbort(f func()) (remove func()) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		f()
		return func() {}
	default:
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = f
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// listenerCount reports the number of registered listeners.
func (s *Signal) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// abort fires the signal with the given cause. Subsequent calls are no-ops.
// Listeners run after the done channel closes, outside the signal lock.
func (s *Signal) abort(err error) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}

	s.err = err
	fired := make([]func(), 0, len(s.listeners))
	for _, f := range s.listeners {
		fired = append(fired, f)
	}
	s.listeners = make(map[int]func())
	close(s.done)
	s.mu.Unlock()

	for _, f := range fired {
		f()
	}
}

// Controller owns a Signal and can abort it. The zero value is not
// usable; use NewController, NewTimeoutController, or Combine.
type Controller struct {
	signal *Signal

	mu    sync.Mutex
	timer *time.Timer
}

// NewController creates a controller with an unfired signal.
func NewController() *Controller {
	return &Controller{signal: newSignal()}
}

// NewTimeoutController creates a controller whose signal aborts
// automatically after timeout. A non-positive timeout aborts immediately.
// Call Stop to release the internal timer if the controller is discarded
// before the timeout fires.
func NewTimeoutController(timeout time.Duration) *Controller {
	c := NewController()
	if timeout <= 0 {
		c.abort(fmt.Errorf("timeout after %v: %w", timeout, rferrors.ErrAborted))
		return c
	}

	c.mu.Lock()
	c.timer = time.AfterFunc(timeout, func() {
		c.abort(fmt.Errorf("timeout after %v: %w", timeout, rferrors.ErrAborted))
	})
	c.mu.Unlock()
	return c
}

// Signal returns the controller's signal.
func (c *Controller) Signal() *Signal {
	return c.signal
}

// Abort fires the signal. It is idempotent.
func (c *Controller) Abort() {
	c.abort(rferrors.ErrAborted)
}

// Stop releases the internal timeout timer, if any, without aborting.
// It has no effect on plain controllers.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

func (c *Controller) abort(err error) {
	c.Stop()
	c.signal.abort(err)
}

// Combine returns a controller whose signal aborts as soon as any of the
// source signals aborts, carrying that source's cause. An already-aborted
// source short-circuits registration. Listeners on the remaining sources
// are deregistered on the first abort so completed combinators do not pin
// long-lived signals. Nil sources are ignored; the returned controller can
// also be aborted directly.
func Combine(signals ...*Signal) *Controller {
	c := NewController()

	for _, s := range signals {
		if s != nil && s.Aborted() {
			c.abort(s.Err())
			return c
		}
	}

	var (
		mu      sync.Mutex
		removes []func()
	)
	detach := func() {
		mu.Lock()
		rs := removes
		removes = nil
		mu.Unlock()
		for _, rm := range rs {
			rm()
		}
	}

	for _, s := range signals {
		if s == nil {
			continue
		}
		src := s
		rm := src.OnAbort(func() {
			c.abort(src.Err())
			detach()
		})
		mu.Lock()
		removes = append(removes, rm)
		mu.Unlock()
	}

	if c.signal.Aborted() {
		detach()
	}
	return c
}
