/*
Package throttle wraps a function so it executes at most once per wait
window, while every caller still receives the outcome of an execution.

A throttled wrapper can execute on the leading edge (immediately, when a
call arrives after the window has elapsed), on the trailing edge (one
wait after the most recent call suppressed inside the window, bounded by
MaxWait), or both. Callers
whose invocations land inside an open window join the window's pending
slot and share its result.

	notify, _ := throttle.NewSafe(pushUpdate, 100*time.Millisecond)

	res := notify.Invoke(state) // leading: executes now
	res = notify.Invoke(state)  // joins the trailing slot
	v, err := res.Wait(ctx)

MaxWait bounds how long suppressed calls can be deferred. An abort
signal rejects pending work; Cancel rejects it without making the
wrapper unusable; Flush forces the pending execution immediately.
*/
package throttle
