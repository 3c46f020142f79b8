package engine

import "github.com/rillflow/rill/internal/output"

// Watch is a one-shot change-notification handle for a single input
// snapshot. Many Watches may reference the same underlying Var or Monitor;
// each one stands for one observation made by one evaluation cycle.
//
// Lifecycle: the consumer may await Changed at most until it calls
// Release, and must call Release exactly once per Watch it was handed.
// Releasing a Monitor watch twice, or releasing more Watches than were
// issued, is a caller bug in watch lifecycle usage and panics rather than
// corrupting subscription state.
type Watch interface {
	// Describe returns a short human-readable name for the watched
	// resource, used in traces and logs.
	Describe() string

	// Changed returns a channel that is closed at most once: the first
	// time after this Watch was obtained that the underlying value may
	// have gone stale. A new Watch (from the next snapshot) is required
	// to observe further changes.
	Changed() <-chan struct{}

	// Cancel asks the producer to abort a long wait early. Var and
	// Monitor watches have nothing to abort and implement it as a no-op;
	// abandonment of the Changed channel is the cooperative path.
	Cancel()

	// Release tells the producer this observation is finished. For
	// Monitor watches it decrements the subscriber ref count; for Var
	// watches it reaps any pending waiter.
	Release()
}

// Input is a watchable computation: a prompt, zero-argument snapshot of
// some resource together with the Watches consulted to produce it. Inputs
// are stateless function values; persistent state lives in the Var or
// Monitor they close over.
type Input[T any] func() (output.Output[T], []Watch)

// DescribeAll renders the watch list for traces.
func DescribeAll(watches []Watch) []string {
	names := make([]string, len(watches))
	for i, w := range watches {
		names[i] = w.Describe()
	}
	return names
}

// ReleaseAll releases every Watch in the list. Used by the run loop to
// retire the previous cycle's observations.
func ReleaseAll(watches []Watch) {
	for _, w := range watches {
		w.Release()
	}
}
