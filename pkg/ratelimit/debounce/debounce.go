package debounce

import (
	"time"

	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// Invoke submits a call to the wrapped operation. The call either
// executes immediately (leading edge of a fresh burst), replaces the
// queued arguments of the pending slot (trailing), or resolves with the
// last successful result when neither edge applies. The returned Result
// is shared by every caller in the same burst.
func (d *Debounce[A, R]) Invoke(arg A) *ratelimit.Result[R] {
	d.mu.Lock()

	if d.signal != nil && d.signal.Aborted() {
		err := d.abortErrLocked()
		d.mu.Unlock()
		return ratelimit.ResultErr[R](err)
	}

	now := d.clock.Now()
	d.disarmLocked()

	if d.leading && d.windowElapsedLocked(now) {
		return d.execLeadingLocked(now, arg)
	}

	if d.trailing {
		if d.pending == nil {
			d.burstStart = now
			d.pending = ratelimit.NewResult[R]()
		}
		d.lastArgs = arg
		d.hasArgs = true
		d.armLocked(d.delayLocked(now))
		p := d.pending
		needAttach := d.signal != nil && d.stopAbort == nil
		d.mu.Unlock()
		if needAttach {
			d.attachAbort()
		}
		return p
	}

	// Leading-only wrapper mid-burst: no trailing execution will ever
	// consume these arguments, so the call resolves with the last
	// result instead of arming a timer that cannot fire.
	d.clearArgsLocked()
	last := d.lastResult
	d.mu.Unlock()
	return ratelimit.ResultOf(last)
}

// Cancel releases the armed timer, rejects the outstanding slot with a
// cancellation error, and drops the queued arguments. Further
// invocations proceed normally.
func (d *Debounce[A, R]) Cancel() {
	d.mu.Lock()
	d.disarmLocked()
	pending := d.pending
	d.pending = nil
	d.clearArgsLocked()
	detach := d.detachAbortLocked()
	d.mu.Unlock()

	detach()
	if pending != nil {
		var zero R
		pending.Settle(zero, rferrors.ErrCanceled)
	}
}

// Flush executes the pending call immediately, if one is queued and no
// abort is in effect, resolving the outstanding slot with its outcome.
// Otherwise it resolves the slot (if any) with the last result and
// returns it.
func (d *Debounce[A, R]) Flush() (R, error) {
	d.mu.Lock()
	d.disarmLocked()

	aborted := d.signal != nil && d.signal.Aborted()
	if !d.hasArgs || aborted {
		pending := d.pending
		d.pending = nil
		last := d.lastResult
		detach := d.detachAbortLocked()
		d.mu.Unlock()

		detach()
		if pending != nil {
			pending.Settle(last, nil)
		}
		return last, nil
	}

	arg := d.consumeArgsLocked()
	pending := d.pending
	d.pending = nil
	d.lastExec = d.clock.Now()
	detach := d.detachAbortLocked()
	d.mu.Unlock()

	detach()
	return d.executeAndSettle(arg, pending)
}

func (d *Debounce[A, R]) windowElapsedLocked(now time.Time) bool {
	if d.lastExec.IsZero() {
		return true
	}
	elapsed := now.Sub(d.lastExec)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed >= d.wait
}

// delayLocked computes the quiescence delay at now, shortened so an
// uninterrupted burst still executes within MaxWait of its anchor. The
// anchor is the last execution, or the burst's first call when the
// wrapper has never executed.
func (d *Debounce[A, R]) delayLocked(now time.Time) time.Duration {
	delay := d.wait
	if d.maxWait > 0 {
		anchor := d.lastExec
		if anchor.IsZero() {
			anchor = d.burstStart
		}
		if remaining := d.maxWait - now.Sub(anchor); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// execLeadingLocked performs a leading-edge execution, settling any slot
// left over from an earlier burst with the same outcome. Must be entered
// with the lock held; releases it.
func (d *Debounce[A, R]) execLeadingLocked(now time.Time, arg A) *ratelimit.Result[R] {
	pending := d.pending
	d.pending = nil
	d.lastExec = now
	d.clearArgsLocked()
	detach := d.detachAbortLocked()
	d.mu.Unlock()

	detach()
	value, err := d.executeAndSettle(arg, pending)
	if err != nil {
		return ratelimit.ResultErr[R](err)
	}
	return ratelimit.ResultOf(value)
}

// onTimer fires the trailing edge. Stale callbacks from rearmed or
// released timers are dropped by the generation check.
func (d *Debounce[A, R]) onTimer(gen uint64) {
	d.mu.Lock()
	if gen != d.timerGen {
		d.mu.Unlock()
		return
	}
	d.timer = nil

	if d.signal != nil && d.signal.Aborted() {
		err := d.abortErrLocked()
		pending := d.pending
		d.pending = nil
		d.clearArgsLocked()
		detach := d.detachAbortLocked()
		d.mu.Unlock()

		detach()
		if pending != nil {
			var zero R
			pending.Settle(zero, err)
		}
		return
	}

	if !d.hasArgs {
		pending := d.pending
		d.pending = nil
		last := d.lastResult
		detach := d.detachAbortLocked()
		d.mu.Unlock()

		detach()
		if pending != nil {
			pending.Settle(last, nil)
		}
		return
	}

	arg := d.consumeArgsLocked()
	pending := d.pending
	d.pending = nil
	d.lastExec = d.clock.Now()
	detach := d.detachAbortLocked()
	d.mu.Unlock()

	detach()
	d.executeAndSettle(arg, pending)
}

// onAbort rejects the outstanding slot when the external signal fires.
func (d *Debounce[A, R]) onAbort() {
	d.mu.Lock()
	d.stopAbort = nil
	d.disarmLocked()
	pending := d.pending
	d.pending = nil
	d.clearArgsLocked()
	err := d.abortErrLocked()
	d.mu.Unlock()

	if pending != nil {
		var zero R
		pending.Settle(zero, err)
	}
}

// attachAbort registers the one-shot abort listener for the current
// pending slot. Registration happens outside the wrapper lock because an
// already-aborted signal runs the listener synchronously.
func (d *Debounce[A, R]) attachAbort() {
	remove := d.signal.OnAbort(d.onAbort)

	d.mu.Lock()
	if d.pending == nil || d.stopAbort != nil {
		d.mu.Unlock()
		remove()
		return
	}
	d.stopAbort = remove
	d.mu.Unlock()
}

// detachAbortLocked hands back the listener deregistration to run after
// the lock is released. Exactly-once: the handle is nulled here.
func (d *Debounce[A, R]) detachAbortLocked() func() {
	remove := d.stopAbort
	d.stopAbort = nil
	if remove == nil {
		return func() {}
	}
	return remove
}

func (d *Debounce[A, R]) abortErrLocked() error {
	if d.signal != nil {
		if err := d.signal.Err(); err != nil {
			return err
		}
	}
	return rferrors.ErrAborted
}

func (d *Debounce[A, R]) armLocked(delay time.Duration) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timerGen++
	gen := d.timerGen
	d.timer = d.clock.AfterFunc(delay, func() { d.onTimer(gen) })
}

func (d *Debounce[A, R]) disarmLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
}

func (d *Debounce[A, R]) clearArgsLocked() {
	var zero A
	d.lastArgs = zero
	d.hasArgs = false
}

func (d *Debounce[A, R]) consumeArgsLocked() A {
	arg := d.lastArgs
	d.clearArgsLocked()
	return arg
}

// executeAndSettle runs the wrapped operation and settles the slot with
// its outcome. Must be called without the lock held.
func (d *Debounce[A, R]) executeAndSettle(arg A, pending *ratelimit.Result[R]) (R, error) {
	value, err := d.fn(arg)

	d.mu.Lock()
	if err == nil {
		d.lastResult = value
	}
	d.mu.Unlock()

	if pending != nil {
		pending.Settle(value, err)
	}
	return value, err
}
