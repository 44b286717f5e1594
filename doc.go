/*
Package reynard provides asynchronous rate limiting for Go applications:
throttled and debounced function wrappers with shared-result semantics,
batch aggregation, and cancellation utilities.

Rate Limiting (pkg/ratelimit):
  - throttle: Execute at most once per window, with leading/trailing edges
  - debounce: Collapse call bursts into a single execution
  - fast: Fire-and-forget variants without result tracking
  - batch: Aggregate high-frequency calls into size- or time-bounded batches

Cancellation (pkg/abort):
  - Controllers and signals for aborting pending work
  - Timeout-triggered controllers and signal combinators

Example usage:

	import (
		"time"

		"github.com/entropy-tamer/reynard-core/pkg/ratelimit/debounce"
	)

	save := func(doc string) (int, error) { return store.Save(doc) }
	d, _ := debounce.NewSafe(save, 200*time.Millisecond)

	// Rapid edits collapse into one save; every caller observes its result.
	res := d.Invoke(document)
	n, err := res.Wait(ctx)
*/
package reynard
