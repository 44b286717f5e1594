package debounce

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

// Config holds configuration options for creating a new Debounce.
type Config struct {
	// Wait is the quiescence window. Required, must be positive.
	Wait time.Duration

	// Leading executes the first call of a burst immediately.
	Leading bool

	// Trailing executes once the burst goes quiet for Wait.
	Trailing bool

	// MaxWait bounds how long an uninterrupted burst can defer
	// execution. Zero disables the bound; when set it must be at
	// least Wait.
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

// DefaultConfig returns the default debounce configuration: trailing
// edge only, high precision, no MaxWait bound.
func DefaultConfig() Config {
	return Config{
		Leading:   false,
		Trailing:  true,
		Precision: ratelimit.PrecisionHigh,
	}
}

// Debounce is a burst-collapsing wrapper around a Func. It is safe for
// concurrent use. The zero value is not usable; use NewSafe or
// NewWithConfigSafe.
type Debounce[A, R any] struct {
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
	stopAbort  func()
}

// NewSafe creates a debounced wrapper with the default configuration
// (trailing edge only, high precision) and the given quiescence window.
func NewSafe[A, R any](fn Func[A, R], wait time.Duration) (*Debounce[A, R], error) {
	config := DefaultConfig()
	config.Wait = wait
	return NewWithConfigSafe(fn, config)
}

// NewWithConfigSafe creates a debounced wrapper with the specified
// configuration. Misconfiguration fails fast with a ValidationError.
func NewWithConfigSafe[A, R any](fn Func[A, R], config Config) (*Debounce[A, R], error) {
	if fn == nil {
		return nil, rferrors.NewValidationError("debounce", "fn", nil, "cannot be nil").
			WithHint("provide the operation to wrap")
	}
	if err := validation.ValidatePositiveDuration("debounce", "wait", config.Wait); err != nil {
		return nil, err
	}
	if config.MaxWait != 0 {
		if err := validation.ValidateMinDuration("debounce", "maxWait", config.MaxWait, config.Wait); err != nil {
			return nil, err
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = ratelimit.ClockFor(config.Precision)
	}

	return &Debounce[A, R]{
		fn:       fn,
		wait:     config.Wait,
		maxWait:  config.MaxWait,
		leading:  config.Leading,
		trailing: config.Trailing,
		clock:    clock,
		signal:   config.Signal,
	}, nil
}

// Wait returns the configured quiescence window.
func (d *Debounce[A, R]) Wait() time.Duration {
	return d.wait
}

// MaxWait returns the configured deferral bound, or zero if unset.
func (d *Debounce[A, R]) MaxWait() time.Duration {
	return d.maxWait
}

// Leading reports whether leading-edge execution is enabled.
func (d *Debounce[A, R]) Leading() bool {
	return d.leading
}

// Trailing reports whether trailing-edge execution is enabled.
func (d *Debounce[A, R]) Trailing() bool {
	return d.trailing
}

// IsPending reports whether a scheduled execution slot is outstanding.
func (d *Debounce[A, R]) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// LastResult returns the value of the most recent successful execution.
// It is valid to read even after Cancel or abort; before any execution
// it returns the zero value.
func (d *Debounce[A, R]) LastResult() R {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastResult
}
