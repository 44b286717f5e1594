/*
Package abort provides cancellation primitives for pending asynchronous
work: controllers that own an abort signal, timeout-triggered controllers,
and a combinator that derives a signal from several sources.

A Signal is observed, never owned, by the components it cancels. Listeners
registered with OnAbort fire exactly once and deregister themselves, so a
long-lived signal does not accumulate listeners from short-lived consumers.

Example usage:

	ctrl := abort.NewTimeoutController(5 * time.Second)
	defer ctrl.Stop()

	th, _ := throttle.NewWithConfigSafe(send, throttle.Config{
		Wait:   100 * time.Millisecond,
		Signal: ctrl.Signal(),
	})
*/
package abort
