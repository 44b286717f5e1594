package throttle

import (
	"time"

	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
	"github.com/entropy-tamer/reynard-core/pkg/ratelimit"
)

// Invoke submits a call to the wrapped operation. Depending on the
// window state it executes immediately (leading edge), schedules or
// joins a deferred execution (trailing edge), or resolves with the last
// successful result when neither edge applies. The returned Result is
// shared by every caller whose invocation landed on the same slot.
func (t *Throttle[A, R]) Invoke(arg A) *ratelimit.Result[R] {
	t.mu.Lock()

	if t.signal != nil && t.signal.Aborted() {
		err := t.abortErrLocked()
		t.mu.Unlock()
		return ratelimit.ResultErr[R](err)
	}

	now := t.clock.Now()

	if t.leading && t.windowElapsedLocked(now) {
		return t.execLeadingLocked(now, arg)
	}

	if t.trailing {
		if t.pending == nil {
			t.burstStart = now
			t.pending = ratelimit.NewResult[R]()
		}
		t.lastArgs = arg
		t.hasArgs = true
		t.armLocked(t.delayLocked(now))
		p := t.pending
		needAttach := t.signal != nil && t.stopAbort == nil
		t.mu.Unlock()
		if needAttach {
			t.attachAbort()
		}
		return p
	}

	last := t.lastResult
	t.mu.Unlock()
	return ratelimit.ResultOf(last)
}

// Cancel releases the armed timer and rejects the outstanding slot with
// a cancellation error. The last queued arguments are retained, so a
// subsequent Flush can still execute; further invocations proceed
// normally.
func (t *Throttle[A, R]) Cancel() {
	t.mu.Lock()
	t.disarmLocked()
	pending := t.pending
	t.pending = nil
	t.burstFired = false
	detach := t.detachAbortLocked()
	t.mu.Unlock()

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
func (t *Throttle[A, R]) Flush() (R, error) {
	t.mu.Lock()
	t.disarmLocked()

	aborted := t.signal != nil && t.signal.Aborted()
	if !t.hasArgs || aborted {
		pending := t.pending
		t.pending = nil
		last := t.lastResult
		detach := t.detachAbortLocked()
		t.mu.Unlock()

		detach()
		if pending != nil {
			pending.Settle(last, nil)
		}
		return last, nil
	}

	arg := t.consumeArgsLocked()
	pending := t.pending
	t.pending = nil
	t.lastExec = t.clock.Now()
	t.burstFired = false
	detach := t.detachAbortLocked()
	t.mu.Unlock()

	detach()
	return t.executeAndSettle(arg, pending)
}

// windowElapsedLocked reports whether a leading-edge execution is
// permitted at now.
func (t *Throttle[A, R]) windowElapsedLocked(now time.Time) bool {
	if t.lastExec.IsZero() {
		return true
	}
	return t.elapsedLocked(now) >= t.wait
}

// elapsedLocked returns the time since the last execution, guarded
// against negative gaps from wall-clock adjustments.
func (t *Throttle[A, R]) elapsedLocked(now time.Time) time.Duration {
	elapsed := now.Sub(t.lastExec)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// delayLocked computes the trailing-timer delay at now: the wait window,
// shortened so the slot fires no later than MaxWait after its anchor.
// The anchor is the last execution, or the first suppressed call when
// the wrapper has never executed.
func (t *Throttle[A, R]) delayLocked(now time.Time) time.Duration {
	delay := t.wait
	if t.maxWait > 0 {
		anchor := t.lastExec
		if anchor.IsZero() {
			anchor = t.burstStart
		}
		if remaining := t.maxWait - now.Sub(anchor); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// execLeadingLocked performs a leading-edge execution. Must be entered
// with the lock held; releases it.
func (t *Throttle[A, R]) execLeadingLocked(now time.Time, arg A) *ratelimit.Result[R] {
	t.disarmLocked()
	pending := t.pending
	t.pending = nil
	t.lastExec = now
	t.burstFired = true
	if t.trailing {
		// Keep the arguments so a call inside this window can still
		// schedule a trailing execution and Flush stays possible.
		t.lastArgs = arg
		t.hasArgs = true
	} else {
		t.clearArgsLocked()
	}
	detach := t.detachAbortLocked()
	t.mu.Unlock()

	detach()
	value, err := t.executeAndSettle(arg, pending)
	if err != nil {
		return ratelimit.ResultErr[R](err)
	}
	return ratelimit.ResultOf(value)
}

// onTimer fires the trailing edge. Stale callbacks from rearmed or
// released timers are dropped by the generation check.
func (t *Throttle[A, R]) onTimer(gen uint64) {
	t.mu.Lock()
	if gen != t.timerGen {
		t.mu.Unlock()
		return
	}
	t.timer = nil

	if t.signal != nil && t.signal.Aborted() {
		err := t.abortErrLocked()
		pending := t.pending
		t.pending = nil
		t.clearArgsLocked()
		detach := t.detachAbortLocked()
		t.mu.Unlock()

		detach()
		if pending != nil {
			var zero R
			pending.Settle(zero, err)
		}
		return
	}

	if !t.hasArgs {
		pending := t.pending
		t.pending = nil
		last := t.lastResult
		detach := t.detachAbortLocked()
		t.mu.Unlock()

		detach()
		if pending != nil {
			pending.Settle(last, nil)
		}
		return
	}

	arg := t.consumeArgsLocked()
	pending := t.pending
	t.pending = nil
	t.lastExec = t.clock.Now()
	t.burstFired = false
	detach := t.detachAbortLocked()
	t.mu.Unlock()

	detach()
	t.executeAndSettle(arg, pending)
}

// onAbort rejects the outstanding slot when the external signal fires.
// The signal deregisters its listeners on abort, so only local state is
// cleared here.
func (t *Throttle[A, R]) onAbort() {
	t.mu.Lock()
	t.stopAbort = nil
	t.disarmLocked()
	pending := t.pending
	t.pending = nil
	t.clearArgsLocked()
	t.burstFired = false
	err := t.abortErrLocked()
	t.mu.Unlock()

	if pending != nil {
		var zero R
		pending.Settle(zero, err)
	}
}

// attachAbort registers the one-shot abort listener for the current
// pending slot. Registration happens outside the wrapper lock because an
// already-aborted signal runs the listener synchronously.
func (t *Throttle[A, R]) attachAbort() {
	remove := t.signal.OnAbort(t.onAbort)

	t.mu.Lock()
	if t.pending == nil || t.stopAbort != nil {
		// Slot settled while registering, or another caller already
		// attached; drop this listener.
		t.mu.Unlock()
		remove()
		return
	}
	t.stopAbort = remove
	t.mu.Unlock()
}

// detachAbortLocked hands back the listener deregistration to run after
// the lock is released. Exactly-once: the handle is nulled here.
func (t *Throttle[A, R]) detachAbortLocked() func() {
	remove := t.stopAbort
	t.stopAbort = nil
	if remove == nil {
		return func() {}
	}
	return remove
}

func (t *Throttle[A, R]) abortErrLocked() error {
	if t.signal != nil {
		if err := t.signal.Err(); err != nil {
			return err
		}
	}
	return rferrors.ErrAborted
}

// armLocked replaces the armed timer; at most one is pending per
// instance.
func (t *Throttle[A, R]) armLocked(d time.Duration) {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timerGen++
	gen := t.timerGen
	t.timer = t.clock.AfterFunc(d, func() { t.onTimer(gen) })
}

// disarmLocked releases the armed timer and invalidates any in-flight
// callback.
func (t *Throttle[A, R]) disarmLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.timerGen++
}

func (t *Throttle[A, R]) clearArgsLocked() {
	var zero A
	t.lastArgs = zero
	t.hasArgs = false
}

func (t *Throttle[A, R]) consumeArgsLocked() A {
	arg := t.lastArgs
	t.clearArgsLocked()
	return arg
}

// executeAndSettle runs the wrapped operation and settles the slot with
// its outcome. Must be called without the lock held.
func (t *Throttle[A, R]) executeAndSettle(arg A, pending *ratelimit.Result[R]) (R, error) {
	value, err := t.fn(arg)

	t.mu.Lock()
	if err == nil {
		t.lastResult = value
	}
	t.mu.Unlock()

	if pending != nil {
		pending.Settle(value, err)
	}
	return value, err
}
