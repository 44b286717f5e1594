/*
Package debounce wraps a function so a burst of calls collapses into a
single execution carrying the final call's arguments.

A debounced wrapper defers execution until wait has passed since the
most recent call. Every caller in the burst joins the same pending slot
and receives the one execution's outcome. With Leading enabled the first
call of a burst executes immediately instead; MaxWait bounds how long an
uninterrupted burst can keep deferring.

	search, _ := debounce.NewSafe(queryIndex, 200*time.Millisecond)

	res := search.Invoke("go ra")
	res = search.Invoke("go rate li") // replaces the queued arguments
	hits, err := res.Wait(ctx)       // one execution, final query

Cancel rejects the pending slot and drops the queued arguments; Flush
forces the pending execution immediately.
*/
package debounce
