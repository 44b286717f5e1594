package batch

import (
	"log"
	"sync"
	"time"

	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
	"github.com/entropy-tamer/reynard-core/pkg/common/validation"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// Func receives each flushed batch. The slice is owned by the callee;
// the batcher never reuses it.
type Func[A any] func(items []A) error

// DefaultBatchSize is the buffer size that triggers an immediate flush
// when Config.BatchSize is unset.
const DefaultBatchSize = 10

// Config holds configuration options for creating a new Batcher.
type Config struct {
	// Wait is the scheduling interval for age checks. Required, must
	// be positive.
	Wait time.Duration

	// BatchSize is the buffer length that triggers an immediate flush.
	// Zero selects DefaultBatchSize; negative values are invalid.
	BatchSize int

	// MaxWait bounds how old the first buffered item can grow before
	// the buffer is flushed. Zero selects 3 x Wait; when set it must
	// be at least Wait.
	MaxWait time.Duration

	// Clock provides time and timer scheduling. If nil, the coarse
	// clock is used.
	Clock ratelimit.Clock

	// OnError receives batch function failures from timer- and
	// size-triggered flushes. If nil, failures are logged with the
	// standard logger.
	OnError func(error)

	// OnFlush is called after each successful flush with the number of
	// items handed off.
	OnFlush func(items int)
}

// Stats holds counters describing a batcher's activity.
type Stats struct {
	// Enqueued is the total number of items accepted by Add.
	Enqueued int64

	// Flushes is the total number of batches handed to the batch function.
	Flushes int64

	// Errors is the total number of batch function failures.
	Errors int64
}

// Batcher aggregates items into size- or age-bounded batches. It is
// safe for concurrent use. The zero value is not usable; use NewSafe or
// NewWithConfigSafe.
type Batcher[A any] struct {
	mu        sync.Mutex
	fn        Func[A]
	wait      time.Duration
	maxWait   time.Duration
	batchSize int
	clock     ratelimit.Clock
	onError   func(error)
	onFlush   func(int)

	buf          []A
	firstEnqueue time.Time
	timer        ratelimit.Timer
	timerGen     uint64
	closed       bool
	stats        Stats
}

// NewSafe creates a batcher with the default batch size and age bound
// (3 x wait).
func NewSafe[A any](fn Func[A], wait time.Duration) (*Batcher[A], error) {
	return NewWithConfigSafe(fn, Config{Wait: wait})
}

// NewWithConfigSafe creates a batcher with the specified configuration.
// Misconfiguration fails fast with a ValidationError.
func NewWithConfigSafe[A any](fn Func[A], config Config) (*Batcher[A], error) {
	if fn == nil {
		return nil, rferrors.NewValidationError("batch", "fn", nil, "cannot be nil").
			WithHint("provide the batch function")
	}
	if err := validation.ValidatePositiveDuration("batch", "wait", config.Wait); err != nil {
		return nil, err
	}
	if config.BatchSize < 0 {
		return nil, rferrors.NewValidationError("batch", "batchSize", config.BatchSize, "must be positive").
			WithHint("use 0 for the default batch size")
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.MaxWait == 0 {
		config.MaxWait = 3 * config.Wait
	}
	if err := validation.ValidateMinDuration("batch", "maxWait", config.MaxWait, config.Wait); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = ratelimit.CoarseClock{}
	}

	return &Batcher[A]{
		fn:        fn,
		wait:      config.Wait,
		maxWait:   config.MaxWait,
		batchSize: config.BatchSize,
		clock:     config.Clock,
		onError:   config.OnError,
		onFlush:   config.OnFlush,
	}, nil
}

// Add appends an item to the buffer. The buffer is flushed synchronously
// when it reaches BatchSize or its oldest item has aged past MaxWait;
// otherwise a flush stays scheduled. Returns ErrClosed after Close.
func (b *Batcher[A]) Add(item A) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return rferrors.ErrClosed
	}

	now := b.clock.Now()
	if len(b.buf) == 0 {
		b.firstEnqueue = now
	}
	b.buf = append(b.buf, item)
	b.stats.Enqueued++

	if len(b.buf) >= b.batchSize || now.Sub(b.firstEnqueue) >= b.maxWait {
		items := b.takeLocked()
		b.mu.Unlock()

		b.deliver(items, true)
		return nil
	}

	b.armLocked(now)
	b.mu.Unlock()
	return nil
}

// Flush hands the buffered items to the batch function immediately and
// returns its error, if any.
func (b *Batcher[A]) Flush() error {
	b.mu.Lock()
	items := b.takeLocked()
	b.mu.Unlock()

	return b.deliver(items, false)
}

// Close flushes the remaining items and rejects further Adds. It is
// idempotent; only the first call drains the buffer.
func (b *Batcher[A]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	items := b.takeLocked()
	b.mu.Unlock()

	return b.deliver(items, false)
}

// Len returns the current number of buffered items.
func (b *Batcher[A]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// BatchSize returns the configured size trigger.
func (b *Batcher[A]) BatchSize() int {
	return b.batchSize
}

// MaxWait returns the configured age bound.
func (b *Batcher[A]) MaxWait() time.Duration {
	return b.maxWait
}

// Stats returns a snapshot of the batcher's counters.
func (b *Batcher[A]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// takeLocked detaches the buffer, clears the enqueue clock, and releases
// the timer.
func (b *Batcher[A]) takeLocked() []A {
	items := b.buf
	b.buf = nil
	b.firstEnqueue = time.Time{}
	b.disarmLocked()
	return items
}

// armLocked schedules the next age check: one wait from now, capped so
// the check lands no later than the buffer's MaxWait deadline.
func (b *Batcher[A]) armLocked(now time.Time) {
	delay := b.wait
	if remaining := b.maxWait - now.Sub(b.firstEnqueue); remaining < delay {
		delay = remaining
	}
	if delay < 0 {
		delay = 0
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timerGen++
	gen := b.timerGen
	b.timer = b.clock.AfterFunc(delay, func() { b.onTimer(gen) })
}

func (b *Batcher[A]) disarmLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.timerGen++
}

// onTimer flushes the buffer once it is due by size or age, rearming
// otherwise. Stale callbacks from rearmed timers are dropped by the
// generation check.
func (b *Batcher[A]) onTimer(gen uint64) {
	b.mu.Lock()
	if gen != b.timerGen {
		b.mu.Unlock()
		return
	}
	b.timer = nil

	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}

	now := b.clock.Now()
	if len(b.buf) < b.batchSize && now.Sub(b.firstEnqueue) < b.maxWait {
		b.armLocked(now)
		b.mu.Unlock()
		return
	}

	items := b.takeLocked()
	b.mu.Unlock()

	b.deliver(items, true)
}

// deliver hands a batch to the batch function outside the lock. When
// report is set, failures go to OnError (or the standard logger) and
// are swallowed; batching is lossy on error.
func (b *Batcher[A]) deliver(items []A, report bool) error {
	if len(items) == 0 {
		return nil
	}

	err := b.fn(items)

	b.mu.Lock()
	b.stats.Flushes++
	if err != nil {
		b.stats.Errors++
	}
	b.mu.Unlock()

	if err == nil {
		if b.onFlush != nil {
			b.onFlush(len(items))
		}
		return nil
	}

	if report {
		if b.onError != nil {
			b.onError(err)
		} else {
			log.Printf("%v", rferrors.NewOperationError("batch", "Flush", err).
				WithContext("batch dropped"))
		}
		return nil
	}
	return err
}
