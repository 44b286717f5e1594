package testutil

import (
	"sync"
	"time"

	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// MockClock implements ratelimit.Clock with controllable time and
// deterministic timer delivery. Timers scheduled with AfterFunc fire in
// due order when Advance moves the clock past their deadline; callbacks
// run synchronously inside Advance, outside the clock lock, so they can
// read the clock and schedule further timers.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
	seq    uint64
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules f to run when the clock advances past d from now.
// Callbacks never run inside AfterFunc itself, even for non-positive d;
// use Advance(0) to deliver immediately-due timers.
func (m *MockClock) AfterFunc(d time.Duration, f func()) ratelimit.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &mockTimer{clock: m, when: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the mock clock forward by the given duration, firing
// every due timer in deadline order. Timers armed by callbacks fire too
// if they fall within the advanced span.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}
		next.fired = true
		if next.when.After(m.now) {
			m.now = next.when
		}
		f := next.f
		m.mu.Unlock()
		f()
		m.mu.Lock()
	}

	m.now = target
	m.compactLocked()
	m.mu.Unlock()
}

// Set sets the mock clock to a specific time without firing timers.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// PendingTimers reports the number of armed, unfired timers.
func (m *MockClock) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (m *MockClock) nextDueLocked(target time.Time) *mockTimer {
	var next *mockTimer
	for _, t := range m.timers {
		if t.stopped || t.fired || t.when.After(target) {
			continue
		}
		if next == nil || t.when.Before(next.when) ||
			(t.when.Equal(next.when) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *MockClock) compactLocked() {
	alive := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			alive = append(alive, t)
		}
	}
	m.timers = alive
}

type mockTimer struct {
	clock   *MockClock
	when    time.Time
	seq     uint64
	f       func()
	stopped bool
	fired   bool
}

// Stop prevents the timer from firing. It reports whether the call
// stopped the timer before it fired.
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Recorder captures values delivered from wrapped operations and batch
// sinks under test. It is safe for concurrent use.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// Append records a value.
func (r *Recorder[T]) Append(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of the recorded values.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}
