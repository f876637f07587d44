package store

import "sync/atomic"

// Stats is a point-in-time snapshot of store activity.
type Stats struct {
	// Writes is the number of writes applied.
	Writes uint64

	// DroppedWrites is the number of writes whose target no longer resolved.
	DroppedWrites uint64

	// RejectedWrites is the number of writes refused with an error.
	RejectedWrites uint64

	// Dispatches is the number of notifications dispatched.
	Dispatches uint64

	// Delivered is the number of observer invocations.
	Delivered uint64

	// Coalesced is the number of queued notifications merged into one
	// already pending.
	Coalesced uint64

	// DroppedDispatches is the number of queued notifications discarded
	// after the pass limit was reached.
	DroppedDispatches uint64

	// Subscriptions is the number of live subscriptions.
	Subscriptions int
}

type counters struct {
	writes            atomic.Uint64
	droppedWrites     atomic.Uint64
	rejectedWrites    atomic.Uint64
	dispatches        atomic.Uint64
	delivered         atomic.Uint64
	coalesced         atomic.Uint64
	droppedDispatches atomic.Uint64
}
