package fast_test

import (
	"fmt"
	"time"

	"github.com/entropy-tamer/reynard-core/pkg/ratelimit/fast"
)

// Example demonstrates fire-and-forget throttling
func Example() {
	indicator := func(peer string) error {
		fmt.Println("typing indicator to", peer)
		return nil
	}

	typing, err := fast.NewThrottleSafe(indicator, 300*time.Millisecond)
	if err != nil {
		panic(fmt.Sprintf("Failed to create fast throttle: %v", err))
	}
	defer typing.Stop()

	// The first call of the window executes; the rest coalesce.
	typing.Invoke("alice")
	typing.Invoke("alice")
	typing.Invoke("alice")

	// Output: typing indicator to alice
}
