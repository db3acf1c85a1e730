package sysexec

import "github.com/webriots/sysexec/engine"

// ForwardProgress re-exports the engine's forward progress guarantee
// so callers composing tasks rarely need to import engine directly.
type ForwardProgress = engine.ForwardProgress

const (
	Concurrent     = engine.Concurrent
	Parallel       = engine.Parallel
	WeaklyParallel = engine.WeaklyParallel
)

// Scheduler is a cheap, copyable handle on one engine scheduler. Many
// handles may alias one scheduler; Equal compares the identity of the
// underlying scheduler, not the handles themselves.
type Scheduler struct {
	impl engine.Scheduler
}

// Schedule returns a task describing one unit of work on this
// scheduler. It is cheap and performs no work by itself.
func (s Scheduler) Schedule() *UnitTask {
	return &UnitTask{sender: s.impl.Schedule()}
}

// Guarantee reports the engine's forward progress guarantee. Generic
// callers use it to decide whether blocking inside scheduled work is
// safe.
func (s Scheduler) Guarantee() ForwardProgress {
	return s.impl.Guarantee()
}

// Equal reports whether o refers to the same underlying engine
// scheduler as s.
func (s Scheduler) Equal(o Scheduler) bool {
	return s.impl.Equal(o.impl)
}
