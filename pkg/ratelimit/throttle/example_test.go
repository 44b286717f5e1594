package throttle_test

import (
	"context"
	"fmt"
	"time"

	"github.com/entropy-tamer/reynard-core/pkg/ratelimit/throttle"
)

// Example demonstrates leading-edge execution
func Example() {
	send := func(msg string) (string, error) {
		return "sent:" + msg, nil
	}

	th, err := throttle.NewSafe(send, 100*time.Millisecond)
	if err != nil {
		panic(fmt.Sprintf("Failed to create throttle: %v", err))
	}

	// The first call of a fresh window executes immediately.
	res := th.Invoke("hello")
	v, _ := res.Wait(context.Background())
	fmt.Println(v)

	th.Cancel()

	// Output: sent:hello
}

// Example_flush demonstrates forcing the pending execution
func Example_flush() {
	send := func(msg string) (string, error) {
		return "sent:" + msg, nil
	}

	config := throttle.DefaultConfig()
	config.Wait = time.Hour // far trailing edge
	config.Leading = false

	th, err := throttle.NewWithConfigSafe(send, config)
	if err != nil {
		panic(fmt.Sprintf("Failed to create throttle: %v", err))
	}

	res := th.Invoke("draft")
	fmt.Println("pending:", th.IsPending())

	// Flush executes the queued call without waiting for the window.
	v, _ := th.Flush()
	fmt.Println(v)

	flushed, _ := res.Wait(context.Background())
	fmt.Println("caller sees:", flushed)

	// Output:
	// pending: true
	// sent:draft
	// caller sees: sent:draft
}
