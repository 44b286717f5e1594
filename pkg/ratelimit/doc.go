/*
Package ratelimit provides asynchronous rate limiting primitives for
wrapping functions whose invocation rate must be controlled.

This package holds the shared vocabulary; the engines live in
subpackages:

  - throttle: Execute at most once per wait window (leading/trailing edges)
  - debounce: Execute once after a burst of calls goes quiet
  - fast: Fire-and-forget throttle/debounce without result tracking
  - batch: Aggregate calls into fixed-size or time-bounded batches

Throttle vs Debounce:

Throttle guarantees steady progress under sustained call pressure and is
ideal for continuous streams (scroll handlers, telemetry flushes):

	th, _ := throttle.NewSafe(update, 100*time.Millisecond)
	res := th.Invoke(event) // executes now or joins the window's slot

Debounce waits for quiescence and is ideal for bursty input where only
the last value matters (search-as-you-type, autosave):

	d, _ := debounce.NewSafe(search, 200*time.Millisecond)
	res := d.Invoke(query) // executes once the burst settles

Both engines share results: every caller whose invocation lands on the
same scheduled execution slot receives the same *Result, resolved with
one execution's value or error.

Precision tiers trade timer resolution for overhead. PrecisionHigh reads
the monotonic clock; PrecisionCoarse reads the wall clock and tolerates
one tick of scheduling drift. The fast subpackage strips result tracking
entirely for hot paths where even one allocation per call is too costly.

All wrappers are safe for concurrent use. The throttle and debounce
wrappers integrate with pkg/abort for cancellation; the fast and batch
wrappers take no abort signal.
*/
package ratelimit
