/*
Package fast provides fire-and-forget throttle and debounce wrappers for
hot paths where per-call result tracking is too costly.

Unlike the throttle and debounce packages, these wrappers return nothing
from Invoke and expose no Cancel, Flush, or IsPending surface: picking
the low-precision tier forfeits the control surface. Operation failures
are reported through the OnError callback and otherwise logged and
swallowed, because no caller holds a result channel to reject.

	typing, _ := fast.NewThrottleSafe(sendTypingIndicator, 300*time.Millisecond)

	typing.Invoke(peer) // executes now or is coalesced; never blocks on a result

Scheduling reads the coarse wall clock by default.
*/
package fast
