package ratelimit

import (
	"testing"
	"time"
)

func TestSystemClockMonotonic(t *testing.T) {
	clock := SystemClock{}

	a := clock.Now()
	b := clock.Now()
	if b.Before(a) {
		t.Fatal("system clock went backwards")
	}
}

func TestCoarseClockStripsMonotonic(t *testing.T) {
	now := CoarseClock{}.Now()

	// A value carrying a monotonic reading differs structurally from
	// its Round(0) form; a coarse reading does not.
	if now != now.Round(0) {
		t.Fatal("coarse clock should strip the monotonic reading")
	}
}

func TestAfterFunc(t *testing.T) {
	clock := SystemClock{}

	fired := make(chan struct{})
	timer := clock.AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if timer.Stop() {
		t.Fatal("Stop after firing should report false")
	}
}

func TestClockFor(t *testing.T) {
	if _, ok := ClockFor(PrecisionHigh).(SystemClock); !ok {
		t.Error("PrecisionHigh should select SystemClock")
	}
	if _, ok := ClockFor(PrecisionCoarse).(CoarseClock); !ok {
		t.Error("PrecisionCoarse should select CoarseClock")
	}
}

func TestPrecisionString(t *testing.T) {
	if PrecisionHigh.String() != "high" {
		t.Errorf("PrecisionHigh = %q", PrecisionHigh.String())
	}
	if PrecisionCoarse.String() != "coarse" {
		t.Errorf("PrecisionCoarse = %q", PrecisionCoarse.String())
	}
}
