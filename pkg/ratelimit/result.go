package ratelimit

import (
	"context"
	"sync"
)

// Result is a single-producer, multi-consumer one-shot value. Every
// caller whose invocation joins the same scheduled execution slot holds
// the same *Result and observes the same settled value or error.
type Result[R any] struct {
	once  sync.Once
	done  chan struct{}
	value R
	err   error
}

// NewResult creates an unsettled Result.
func NewResult[R any]() *Result[R] {
	return &Result[R]{done: make(chan struct{})}
}

// ResultOf creates a Result already settled with value.
func ResultOf[R any](value R) *Result[R] {
	r := NewResult[R]()
	r.Settle(value, nil)
	return r
}

// ResultErr creates a Result already settled with err.
func ResultErr[R any](err error) *Result[R] {
	r := NewResult[R]()
	var zero R
	r.Settle(zero, err)
	return r
}

// Settle records the outcome and wakes all waiters. Only the first call
// has any effect; it reports whether this call settled the result.
func (r *Result[R]) Settle(value R, err error) bool {
	settled := false
	r.once.Do(func() {
		r.value = value
		r.err = err
		settled = true
		close(r.done)
	})
	return settled
}

// Done returns a channel that is closed once the result settles.
func (r *Result[R]) Done() <-chan struct{} {
	return r.done
}

// Settled reports whether the result has an outcome.
func (r *Result[R]) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result settles or the context ends. A context
// error abandons only this caller's wait; the slot itself stays scheduled.
func (r *Result[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Outcome returns the settled value and error. It must only be called
// after Done is closed; before that it returns zero values.
func (r *Result[R]) Outcome() (R, error) {
	select {
	case <-r.done:
		return r.value, r.err
	default:
		var zero R
		return zero, nil
	}
}
