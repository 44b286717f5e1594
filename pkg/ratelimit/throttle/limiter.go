package throttle

import (
	"sync"
	"time"

	"github.com/entropy-tamer/reynard-core/pkg/abort"
	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
	"github.com/entropy-tamer/reynard-core/pkg/common/validation"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// Func is the wrapped operation whose invocation rate is controlled.
type Func[A, R any] func(A) (R, error)

// Config holds configuration options for creating a new Throttle.
type Config struct {
	// Wait is the window length. Required, must be positive.
	Wait time.Duration

	// Leading executes on the first call of a new window.
	Leading bool

	// Trailing schedules a deferred execution for calls suppressed
	// inside the window.
	Trailing bool

	// MaxWait bounds how long a suppressed burst can defer execution.
	// Zero disables the bound; when set it must be at least Wait.
	MaxWait time.Duration

	// Precision selects the clock tier. Default PrecisionHigh.
	Precision ratelimit.Precision

	// Clock overrides the precision-selected clock. If nil, the clock
	// for Precision is used.
	Clock ratelimit.Clock

	// Signal is an external cancellation source. When it aborts, the
	// armed timer is released and pending callers are rejected with an
	// abort-kind error; subsequent invocations fail fast.
	Signal *abort.Signal
}

// DefaultConfig returns the default throttle configuration: both edges
// enabled, high precision, no MaxWait bound.
func DefaultConfig() Config {
	return Config{
		Leading:   true,
		Trailing:  true,
		Precision: ratelimit.PrecisionHigh,
	}
}

// Throttle is a rate-limited wrapper around a Func. It is safe for
// concurrent use. The zero value is not usable; use NewSafe or
// NewWithConfigSafe.
type Throttle[A, R any] struct {
	mu       sync.Mutex
	fn       Func[A, R]
	wait     time.Duration
	maxWait  time.Duration
	leading  bool
	trailing bool
	clock    ratelimit.Clock
	signal   *abort.Signal

	timer      ratelimit.Timer
	timerGen   uint64
	lastExec   time.Time
	burstStart time.Time
	hasArgs    bool
	lastArgs   A
	lastResult R
	pending    *ratelimit.Result[R]
	burstFired bool
	stopAbort  func()
}

// NewSafe creates a throttled wrapper with the default configuration
// (leading and trailing edges, high precision) and the given wait window.
func NewSafe[A, R any](fn Func[A, R], wait time.Duration) (*Throttle[A, R], error) {
	config := DefaultConfig()
	config.Wait = wait
	return NewWithConfigSafe(fn, config)
}

// NewWithConfigSafe creates a throttled wrapper with the specified
// configuration. Misconfiguration fails fast with a ValidationError.
func NewWithConfigSafe[A, R any](fn Func[A, R], config Config) (*Throttle[A, R], error) {
	if fn == nil {
		return nil, rferrors.NewValidationError("throttle", "fn", nil, "cannot be nil").
			WithHint("provide the operation to wrap")
	}
	if err := validation.ValidatePositiveDuration("throttle", "wait", config.Wait); err != nil {
		return nil, err
	}
	if config.MaxWait != 0 {
		if err := validation.ValidateMinDuration("throttle", "maxWait", config.MaxWait, config.Wait); err != nil {
			return nil, err
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = ratelimit.ClockFor(config.Precision)
	}

	return &Throttle[A, R]{
		fn:       fn,
		wait:     config.Wait,
		maxWait:  config.MaxWait,
		leading:  config.Leading,
		trailing: config.Trailing,
		clock:    clock,
		signal:   config.Signal,
	}, nil
}

// Wait returns the configured window length.
func (t *Throttle[A, R]) Wait() time.Duration {
	return t.wait
}

// MaxWait returns the configured deferral bound, or zero if unset.
func (t *Throttle[A, R]) MaxWait() time.Duration {
	return t.maxWait
}

// Leading reports whether leading-edge execution is enabled.
func (t *Throttle[A, R]) Leading() bool {
	return t.leading
}

// Trailing reports whether trailing-edge execution is enabled.
func (t *Throttle[A, R]) Trailing() bool {
	return t.trailing
}

// IsPending reports whether a scheduled execution slot is outstanding.
func (t *Throttle[A, R]) IsPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// LastResult returns the value of the most recent successful execution.
// It is valid to read even after Cancel or abort; before any execution
// it returns the zero value.
func (t *Throttle[A, R]) LastResult() R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult
}
