// Package sysexec bridges statically-typed asynchronous task
// composition to a dynamically-supplied parallel execution engine
// reachable only through the fixed interfaces of the engine package.
// Application code describes work generically and composes it
// statically; the engine backing that work stays swappable without
// type-coupling callers to its internals.
//
// Key components:
//
//   - Context: owns one engine for its lifetime and hands out
//     Scheduler handles plus a concurrency hint.
//
//   - Scheduler: a cheap, copyable, identity-bearing handle on one
//     engine scheduler; the factory for unit and bulk tasks.
//
//   - Task: an immutable description of deferred work that completes
//     with exactly one of value, stopped, or error. UnitTask is one
//     schedulable unit; BulkTask composes a previous task with a
//     data-parallel fan-out of its result.
//
//   - Consumer: the caller-supplied target that receives exactly one
//     terminal signal from a connected task.
//
//   - Operation: the address-stable state produced by connecting a
//     task to a consumer; the only startable entity.
//
// The package spawns no goroutines and holds no locks of its own; it
// is a pure composition layer over the supplied engine. Starting an
// operation never blocks the caller, and completion may be delivered
// from any engine-managed goroutine.
package sysexec
