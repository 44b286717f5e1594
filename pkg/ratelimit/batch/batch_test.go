package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/entropy-tamer/reynard-core/internal/testutil"
	rferrors "github.com/entropy-tamer/reynard-core/pkg/common/errors"
)

const wait = 100 * time.Millisecond

// newBatcher builds a batcher around a recording batch function.
func newBatcher(t *testing.T, config Config) (*Batcher[int], *testutil.Recorder[[]int], *testutil.MockClock) {
	t.Helper()

	clock := testutil.NewMockClock(time.Time{})
	config.Clock = clock
	if config.Wait == 0 {
		config.Wait = wait
	}

	rec := &testutil.Recorder[[]int]{}
	b, err := NewWithConfigSafe(func(items []int) error {
		rec.Append(items)
		return nil
	}, config)
	testutil.AssertNoError(t, err)
	return b, rec, clock
}

func TestNew(t *testing.T) {
	fn := func([]int) error { return nil }

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Wait: wait, BatchSize: 5}, false},
		{"defaults", Config{Wait: wait}, false},
		{"zero wait", Config{}, true},
		{"negative batch size", Config{Wait: wait, BatchSize: -1}, true},
		{"maxWait below wait", Config{Wait: wait, MaxWait: wait / 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfigSafe(fn, tt.config)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !errors.Is(err, rferrors.ErrInvalidConfiguration) {
					t.Error("expected a configuration error")
				}
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	b, _, _ := newBatcher(t, Config{Wait: wait})

	testutil.AssertEqual(t, b.BatchSize(), DefaultBatchSize)
	testutil.AssertEqual(t, b.MaxWait(), 3*wait)
}

func TestFlushBySize(t *testing.T) {
	b, rec, _ := newBatcher(t, Config{Wait: time.Second, BatchSize: 5})

	// The fifth item triggers an immediate ordered flush, ahead of any timer.
	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, b.Add(i))
	}

	batches := rec.Values()
	if len(batches) != 1 {
		t.Fatalf("flushes = %d, want 1", len(batches))
	}
	for i, v := range batches[0] {
		testutil.AssertEqual(t, v, i)
	}
	testutil.AssertEqual(t, b.Len(), 0)
}

func TestFlushByMaxWait(t *testing.T) {
	config := Config{Wait: wait, BatchSize: 100, MaxWait: 300 * time.Millisecond}
	b, rec, clock := newBatcher(t, config)

	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Add(2))
	clock.Advance(250 * time.Millisecond)
	testutil.AssertNoError(t, b.Add(3))
	testutil.AssertNoError(t, b.Add(4))

	testutil.AssertEqual(t, rec.Len(), 0)
	clock.Advance(50 * time.Millisecond)

	// At maxWait past the first enqueue the batch flushes despite
	// batchSize not being reached.
	batches := rec.Values()
	if len(batches) != 1 {
		t.Fatalf("flushes = %d, want 1", len(batches))
	}
	if len(batches[0]) != 4 {
		t.Fatalf("batch size = %d, want 4", len(batches[0]))
	}
}

func TestOldBufferFlushesAtAdd(t *testing.T) {
	config := Config{Wait: wait, BatchSize: 100, MaxWait: 300 * time.Millisecond}
	b, rec, clock := newBatcher(t, config)

	testutil.AssertNoError(t, b.Add(1))
	clock.Advance(299 * time.Millisecond)
	testutil.AssertEqual(t, rec.Len(), 0)

	// An Add finding the buffer at its age bound flushes synchronously.
	clock.Set(clock.Now().Add(time.Millisecond))
	testutil.AssertNoError(t, b.Add(2))

	batches := rec.Values()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("batches = %v, want one batch of 2", batches)
	}
}

func TestManualFlush(t *testing.T) {
	b, rec, clock := newBatcher(t, Config{Wait: wait})

	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Add(2))
	testutil.AssertNoError(t, b.Flush())

	batches := rec.Values()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("batches = %v, want one batch of 2", batches)
	}

	// The released timer must not deliver a second batch.
	clock.Advance(time.Second)
	testutil.AssertEqual(t, rec.Len(), 1)

	// Flushing an empty buffer is a no-op.
	testutil.AssertNoError(t, b.Flush())
	testutil.AssertEqual(t, rec.Len(), 1)
}

func TestClose(t *testing.T) {
	b, rec, _ := newBatcher(t, Config{Wait: wait})

	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Close())

	batches := rec.Values()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("batches = %v, want one batch of 1", batches)
	}

	if err := b.Add(2); !errors.Is(err, rferrors.ErrClosed) {
		t.Fatalf("Add after Close = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	testutil.AssertNoError(t, b.Close())
	testutil.AssertEqual(t, rec.Len(), 1)
}

func TestLossyOnError(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	boom := errors.New("boom")
	reported := &testutil.Recorder[error]{}
	calls := &testutil.Recorder[int]{}

	b, err := NewWithConfigSafe(func(items []int) error {
		calls.Append(len(items))
		return boom
	}, Config{Wait: wait, BatchSize: 2, Clock: clock, OnError: func(e error) {
		reported.Append(e)
	}})
	testutil.AssertNoError(t, err)

	// Size-triggered flush swallows the failure and drops the batch.
	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Add(2))

	errs := reported.Values()
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("reported errors = %v, want [boom]", errs)
	}
	testutil.AssertEqual(t, b.Len(), 0)

	// No retry: the batch function saw the items exactly once.
	clock.Advance(time.Second)
	testutil.AssertEqual(t, calls.Len(), 1)

	// Manual Flush surfaces the error instead of reporting it.
	testutil.AssertNoError(t, b.Add(3))
	if ferr := b.Flush(); !errors.Is(ferr, boom) {
		t.Fatalf("Flush = %v, want boom", ferr)
	}
	testutil.AssertEqual(t, reported.Len(), 1)
}

func TestStats(t *testing.T) {
	b, _, _ := newBatcher(t, Config{Wait: wait, BatchSize: 2})

	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Add(2))
	testutil.AssertNoError(t, b.Add(3))
	testutil.AssertNoError(t, b.Flush())

	stats := b.Stats()
	testutil.AssertEqual(t, stats.Enqueued, int64(3))
	testutil.AssertEqual(t, stats.Flushes, int64(2))
	testutil.AssertEqual(t, stats.Errors, int64(0))
}

func TestOnFlushCallback(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	sizes := &testutil.Recorder[int]{}

	b, err := NewWithConfigSafe(func(items []int) error {
		return nil
	}, Config{Wait: wait, BatchSize: 3, Clock: clock, OnFlush: func(n int) {
		sizes.Append(n)
	}})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, b.Add(1))
	testutil.AssertNoError(t, b.Add(2))
	testutil.AssertNoError(t, b.Add(3))

	got := sizes.Values()
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("OnFlush sizes = %v, want [3]", got)
	}
}
