package fast

import (
	"log"
	"sync"
	"time"

	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
	"github.com/entropy-tamer/reynard-core/pkg/common/validation"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// Func is the wrapped operation. Its error is reported and swallowed;
// the wrapper owns no result channel to propagate it through.
type Func[A any] func(A) error

// Config holds configuration options for the fast wrappers.
type Config struct {
	// Wait is the window length. Required, must be positive.
	Wait time.Duration

	// Leading executes on the first call of a new window.
	Leading bool

	// Trailing schedules a deferred execution for suppressed calls.
	Trailing bool

	// MaxWait bounds how long a suppressed burst can defer execution.
	// Zero disables the bound; when set it must be at least Wait.
	MaxWait time.Duration

	// Clock overrides the default coarse clock.
	Clock ratelimit.Clock

	// OnError receives wrapped-operation failures. If nil, failures
	// are logged with the standard logger.
	OnError func(error)
}

// DefaultThrottleConfig returns the default fast-throttle configuration.
func DefaultThrottleConfig() Config {
	return Config{Leading: true, Trailing: true}
}

// DefaultDebounceConfig returns the default fast-debounce configuration.
func DefaultDebounceConfig() Config {
	return Config{Leading: false, Trailing: true}
}

// limiter carries the state shared by the throttle and debounce
// variants. At most one timer is armed at any moment.
type limiter[A any] struct {
	mu       sync.Mutex
	fn       Func[A]
	wait     time.Duration
	maxWait  time.Duration
	leading  bool
	trailing bool
	clock    ratelimit.Clock
	onError  func(error)

	timer      ratelimit.Timer
	timerGen   uint64
	lastExec   time.Time
	burstStart time.Time
	hasArgs    bool
	lastArgs   A
}

func newLimiter[A any](module string, fn Func[A], config Config) (*limiter[A], error) {
	if fn == nil {
		return nil, rferrors.NewValidationError(module, "fn", nil, "cannot be nil").
			WithHint("provide the operation to wrap")
	}
	if err := validation.ValidatePositiveDuration(module, "wait", config.Wait); err != nil {
		return nil, err
	}
	if config.MaxWait != 0 {
		if err := validation.ValidateMinDuration(module, "maxWait", config.MaxWait, config.Wait); err != nil {
			return nil, err
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = ratelimit.CoarseClock{}
	}

	return &limiter[A]{
		fn:       fn,
		wait:     config.Wait,
		maxWait:  config.MaxWait,
		leading:  config.Leading,
		trailing: config.Trailing,
		clock:    clock,
		onError:  config.OnError,
	}, nil
}

// stop releases the armed timer and drops any queued call.
func (l *limiter[A]) stop() {
	l.mu.Lock()
	l.disarmLocked()
	l.clearArgsLocked()
	l.mu.Unlock()
}

func (l *limiter[A]) windowElapsedLocked(now time.Time) bool {
	if l.lastExec.IsZero() {
		return true
	}
	elapsed := now.Sub(l.lastExec)
	return elapsed < 0 || elapsed >= l.wait
}

func (l *limiter[A]) delayLocked(now time.Time) time.Duration {
	delay := l.wait
	if l.maxWait > 0 {
		anchor := l.lastExec
		if anchor.IsZero() {
			anchor = l.burstStart
		}
		if remaining := l.maxWait - now.Sub(anchor); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

func (l *limiter[A]) armLocked(delay time.Duration) {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerGen++
	gen := l.timerGen
	l.timer = l.clock.AfterFunc(delay, func() { l.onTimer(gen) })
}

func (l *limiter[A]) disarmLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++
}

func (l *limiter[A]) clearArgsLocked() {
	var zero A
	l.lastArgs = zero
	l.hasArgs = false
}

func (l *limiter[A]) onTimer(gen uint64) {
	l.mu.Lock()
	if gen != l.timerGen {
		l.mu.Unlock()
		return
	}
	l.timer = nil

	if !l.hasArgs {
		l.mu.Unlock()
		return
	}
	arg := l.lastArgs
	l.clearArgsLocked()
	l.lastExec = l.clock.Now()
	l.mu.Unlock()

	l.execute(arg)
}

// execute runs the wrapped operation, reporting and swallowing failure.
func (l *limiter[A]) execute(arg A) {
	err := l.fn(arg)
	if err == nil {
		return
	}
	if l.onError != nil {
		l.onError(err)
		return
	}
	log.Printf("%v", rferrors.NewOperationError("fast", "Invoke", err).
		WithContext("operation outcome discarded"))
}

// Throttle is a fire-and-forget throttled wrapper. The zero value is
// not usable; use NewThrottleSafe or NewThrottleWithConfigSafe.
type Throttle[A any] struct {
	*limiter[A]
}

// NewThrottleSafe creates a fast throttle with the default configuration
// (leading and trailing edges) and the given wait window.
func NewThrottleSafe[A any](fn Func[A], wait time.Duration) (*Throttle[A], error) {
	config := DefaultThrottleConfig()
	config.Wait = wait
	return NewThrottleWithConfigSafe(fn, config)
}

// NewThrottleWithConfigSafe creates a fast throttle with the specified
// configuration.
func NewThrottleWithConfigSafe[A any](fn Func[A], config Config) (*Throttle[A], error) {
	l, err := newLimiter("fast", fn, config)
	if err != nil {
		return nil, err
	}
	return &Throttle[A]{limiter: l}, nil
}

// Invoke submits a call. It executes immediately on the leading edge,
// coalesces into a deferred trailing execution, or is dropped; it never
// reports an outcome.
func (t *Throttle[A]) Invoke(arg A) {
	t.mu.Lock()
	now := t.clock.Now()

	if t.leading && t.windowElapsedLocked(now) {
		t.disarmLocked()
		t.clearArgsLocked()
		t.lastExec = now
		t.mu.Unlock()

		t.execute(arg)
		return
	}

	if t.trailing {
		if !t.hasArgs {
			t.burstStart = now
		}
		t.lastArgs = arg
		t.hasArgs = true
		t.armLocked(t.delayLocked(now))
		t.mu.Unlock()
		return
	}

	t.mu.Unlock()
}

// Stop releases the armed timer and drops any queued call. The wrapper
// remains usable.
func (t *Throttle[A]) Stop() {
	t.stop()
}

// Debounce is a fire-and-forget debounced wrapper. The zero value is
// not usable; use NewDebounceSafe or NewDebounceWithConfigSafe.
type Debounce[A any] struct {
	*limiter[A]
}

// NewDebounceSafe creates a fast debounce with the default configuration
// (trailing edge only) and the given quiescence window.
func NewDebounceSafe[A any](fn Func[A], wait time.Duration) (*Debounce[A], error) {
	config := DefaultDebounceConfig()
	config.Wait = wait
	return NewDebounceWithConfigSafe(fn, config)
}

// NewDebounceWithConfigSafe creates a fast debounce with the specified
// configuration.
func NewDebounceWithConfigSafe[A any](fn Func[A], config Config) (*Debounce[A], error) {
	l, err := newLimiter("fast", fn, config)
	if err != nil {
		return nil, err
	}
	return &Debounce[A]{limiter: l}, nil
}

// Invoke submits a call. A fresh burst may execute on the leading edge;
// otherwise the call replaces the queued arguments and pushes the
// trailing execution out to one quiescence window from now.
func (d *Debounce[A]) Invoke(arg A) {
	d.mu.Lock()
	now := d.clock.Now()
	d.disarmLocked()

	if d.leading && d.windowElapsedLocked(now) {
		d.clearArgsLocked()
		d.lastExec = now
		d.mu.Unlock()

		d.execute(arg)
		return
	}

	if d.trailing {
		if !d.hasArgs {
			d.burstStart = now
		}
		d.lastArgs = arg
		d.hasArgs = true
		d.armLocked(d.delayLocked(now))
		d.mu.Unlock()
		return
	}

	d.mu.Unlock()
}

// Stop releases the armed timer and drops any queued call. The wrapper
// remains usable.
func (d *Debounce[A]) Stop() {
	d.stop()
}
