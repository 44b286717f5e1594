/*
Package batch aggregates high-frequency calls into batches handed to a
single batch function, bounded by size and by age.

Items accumulate in an ordered buffer. The buffer is flushed to the
batch function when it reaches BatchSize, when its oldest item reaches
MaxWait in age, or on an explicit Flush or Close. Batching is eager and
lossy on error: a failed batch is reported through OnError and not
retried.

	events, _ := batch.NewSafe(writeEvents, 100*time.Millisecond)

	events.Add(ev)        // buffered
	defer events.Close()  // drains the remainder
*/
package batch
