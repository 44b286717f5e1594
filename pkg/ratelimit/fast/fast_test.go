package fast

import (
	"errors"
	"testing"
	"time"

	"github.com/entropy-tamer/reynard-core/internal/testutil"
)

const wait = 100 * time.Millisecond

func TestNewValidation(t *testing.T) {
	fn := func(string) error { return nil }

	if _, err := NewThrottleSafe[string](nil, wait); err == nil {
		t.Error("nil fn should be rejected")
	}
	if _, err := NewThrottleSafe(fn, 0); err == nil {
		t.Error("zero wait should be rejected")
	}
	if _, err := NewDebounceSafe(fn, -time.Second); err == nil {
		t.Error("negative wait should be rejected")
	}
	if _, err := NewThrottleWithConfigSafe(fn, Config{Wait: wait, MaxWait: wait / 2}); err == nil {
		t.Error("maxWait below wait should be rejected")
	}
}

func TestThrottleLeadingAndTrailing(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	rec := &testutil.Recorder[string]{}

	config := DefaultThrottleConfig()
	config.Wait = wait
	config.Clock = clock

	th, err := NewThrottleWithConfigSafe(func(arg string) error {
		rec.Append(arg)
		return nil
	}, config)
	testutil.AssertNoError(t, err)

	th.Invoke("a") // leading
	th.Invoke("b")
	th.Invoke("c") // coalesces with b
	clock.Advance(wait)

	got := rec.Values()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("executed args = %v, want [a c]", got)
	}
}

func TestThrottleDropsWithoutTrailing(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	rec := &testutil.Recorder[string]{}

	th, err := NewThrottleWithConfigSafe(func(arg string) error {
		rec.Append(arg)
		return nil
	}, Config{Wait: wait, Leading: true, Clock: clock})
	testutil.AssertNoError(t, err)

	th.Invoke("a")
	th.Invoke("b") // dropped
	clock.Advance(wait)

	got := rec.Values()
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("executed args = %v, want [a]", got)
	}
}

func TestDebounceCollapsesBurst(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	rec := &testutil.Recorder[string]{}

	config := DefaultDebounceConfig()
	config.Wait = wait
	config.Clock = clock

	d, err := NewDebounceWithConfigSafe(func(arg string) error {
		rec.Append(arg)
		return nil
	}, config)
	testutil.AssertNoError(t, err)

	for _, arg := range []string{"a", "b", "c"} {
		d.Invoke(arg)
		clock.Advance(50 * time.Millisecond)
	}
	clock.Advance(wait)

	got := rec.Values()
	if len(got) != 1 || got[0] != "c" {
		t.Fatalf("executed args = %v, want [c]", got)
	}
}

func TestErrorsAreSwallowed(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	boom := errors.New("boom")
	reported := &testutil.Recorder[error]{}

	th, err := NewThrottleWithConfigSafe(func(string) error {
		return boom
	}, Config{Wait: wait, Leading: true, Clock: clock, OnError: func(e error) {
		reported.Append(e)
	}})
	testutil.AssertNoError(t, err)

	th.Invoke("x") // must not panic; failure goes to OnError

	errs := reported.Values()
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("reported errors = %v, want [boom]", errs)
	}
}

func TestStopDropsQueuedCall(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	rec := &testutil.Recorder[string]{}

	d, err := NewDebounceWithConfigSafe(func(arg string) error {
		rec.Append(arg)
		return nil
	}, Config{Wait: wait, Trailing: true, Clock: clock})
	testutil.AssertNoError(t, err)

	d.Invoke("x")
	d.Stop()
	clock.Advance(wait)

	testutil.AssertEqual(t, rec.Len(), 0)

	// The wrapper stays usable after Stop.
	d.Invoke("y")
	clock.Advance(wait)
	got := rec.Values()
	if len(got) != 1 || got[0] != "y" {
		t.Fatalf("executed args = %v, want [y]", got)
	}
}

func TestMaxWaitBoundsDeferral(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	execAt := &testutil.Recorder[time.Time]{}

	d, err := NewDebounceWithConfigSafe(func(string) error {
		execAt.Append(clock.Now())
		return nil
	}, Config{Wait: wait, Trailing: true, MaxWait: 300 * time.Millisecond, Clock: clock})
	testutil.AssertNoError(t, err)

	start := clock.Now()
	for i := 0; i < 20; i++ {
		d.Invoke("x")
		clock.Advance(25 * time.Millisecond)
	}
	clock.Advance(wait)

	times := execAt.Values()
	if len(times) == 0 {
		t.Fatal("expected at least one execution")
	}
	if deferral := times[0].Sub(start); deferral > 300*time.Millisecond {
		t.Fatalf("first execution deferred %v, max 300ms", deferral)
	}
}
