package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestResultSettle(t *testing.T) {
	r := NewResult[string]()

	if r.Settled() {
		t.Fatal("fresh result should not be settled")
	}

	if !r.Settle("value", nil) {
		t.Fatal("first Settle should win")
	}
	if r.Settle("other", nil) {
		t.Fatal("second Settle should be a no-op")
	}

	v, err := r.Outcome()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "value" {
		t.Fatalf("value = %q, want %q", v, "value")
	}
}

func TestResultBroadcast(t *testing.T) {
	r := NewResult[int]()

	// All joined consumers observe the same outcome.
	const consumers = 8
	var wg sync.WaitGroup
	values := make([]int, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := r.Wait(context.Background())
			values[i] = v
		}(i)
	}

	r.Settle(42, nil)
	wg.Wait()

	for i, v := range values {
		if v != 42 {
			t.Fatalf("consumer %d observed %d, want 42", i, v)
		}
	}
}

func TestResultWaitContext(t *testing.T) {
	r := NewResult[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	// Abandoning the wait does not settle the slot.
	if r.Settled() {
		t.Fatal("context expiry must not settle the result")
	}
	r.Settle(1, nil)
	v, _ := r.Wait(context.Background())
	if v != 1 {
		t.Fatalf("value = %d, want 1", v)
	}
}

func TestResultConstructors(t *testing.T) {
	boom := errors.New("boom")

	ok := ResultOf("done")
	if !ok.Settled() {
		t.Fatal("ResultOf should be settled")
	}
	v, err := ok.Outcome()
	if v != "done" || err != nil {
		t.Fatalf("Outcome = %q, %v", v, err)
	}

	bad := ResultErr[string](boom)
	if !bad.Settled() {
		t.Fatal("ResultErr should be settled")
	}
	_, err = bad.Outcome()
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestResultOutcomeBeforeSettle(t *testing.T) {
	r := NewResult[string]()
	v, err := r.Outcome()
	if v != "" || err != nil {
		t.Fatalf("Outcome before settle = %q, %v, want zero values", v, err)
	}
}
