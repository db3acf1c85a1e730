// Package engine defines the fixed, non-generic contracts between the
// typed sysexec front end and a pluggable execution backend. Every
// backend implements these five contracts; the front end consumes them
// without knowing anything about the backend's internals.
//
// All methods must be safe to call from backend-managed goroutines, and
// completion callbacks may fire on any goroutine the backend chooses.
package engine

import "context"

// Engine is the root handle of one execution backend. An Engine is
// owned by exactly one sysexec.Context for that context's lifetime.
type Engine interface {
	// Scheduler returns the engine's scheduler. Repeated calls must
	// return schedulers that compare Equal.
	Scheduler() Scheduler

	// Concurrency returns a hint of how many units of work the engine
	// may run at once. It is advisory, never an enforced bound.
	Concurrency() int
}

// Scheduler hands out senders that describe schedulable work. Many
// front-end handles may alias one Scheduler; identity is what Equal
// compares.
type Scheduler interface {
	// Schedule returns a sender describing one unit of work. It
	// performs no work by itself.
	Schedule() Sender

	// Bulk returns a sender describing n independent invocations of
	// fn, one per index in [0, n). The sender completes with a single
	// aggregate value-completion ordered after every index has
	// finished; per-index order is unspecified and may be concurrent.
	Bulk(n int, fn BulkFunc) Sender

	// Guarantee reports how strongly the engine promises to advance
	// concurrently scheduled work.
	Guarantee() ForwardProgress

	// Equal reports whether other refers to the same scheduler.
	Equal(other Scheduler) bool
}

// Sender is an inert description of work that completes exactly once.
type Sender interface {
	// Connect binds a completion sink to the work, returning the
	// operation that runs it. The sink must be invoked exactly once,
	// through exactly one of its three callbacks. Connect itself
	// starts nothing.
	Connect(sink CompletionSink) Operation

	// CompletionScheduler returns the scheduler on which this sender
	// delivers its completions.
	CompletionScheduler() Scheduler
}

// Operation is connected, startable work. Start must not block the
// caller; the work runs and completes asynchronously, possibly on
// another goroutine. The engine retains the operation until its sink
// has fired.
type Operation interface {
	Start(ctx context.Context)
}

// CompletionSink is the type-erased completion record that crosses the
// engine boundary: an opaque target plus three callbacks. The backend
// invokes exactly one callback exactly once, passing Target back so the
// front end can recover its typed state. A sink must not be used after
// its callback has fired.
type CompletionSink struct {
	// Target is the front end's opaque state pointer. Backends must
	// treat it as a token and never inspect it.
	Target any

	// OnValue signals successful completion.
	OnValue func(target any)

	// OnStopped signals cooperative cancellation. It is not an error.
	OnStopped func(target any)

	// OnError signals failure. The error is carried through unmodified
	// and never inspected by the backend.
	OnError func(target any, err error)
}

// BulkFunc is the type-erased per-index function record for a bulk
// fan-out. Invoke is called once per index with Target passed back
// opaquely, from whatever goroutines the backend chooses.
type BulkFunc struct {
	Target any
	Invoke func(target any, index int)
}

// ForwardProgress classifies how strongly a scheduler promises to
// advance concurrently scheduled work.
type ForwardProgress int

const (
	// Concurrent work always makes progress, even when it blocks on
	// other scheduled work.
	Concurrent ForwardProgress = iota

	// Parallel work makes progress once started; blocking on work that
	// has not started may deadlock.
	Parallel

	// WeaklyParallel work shares execution resources with other
	// scheduled work; blocking inside it is never safe.
	WeaklyParallel
)

// String returns the lowercase name of the guarantee.
func (g ForwardProgress) String() string {
	switch g {
	case Concurrent:
		return "concurrent"
	case Parallel:
		return "parallel"
	case WeaklyParallel:
		return "weakly-parallel"
	default:
		return "unknown"
	}
}
