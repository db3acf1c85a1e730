package sysexec

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/webriots/sysexec/engine"
)

// ErrNoOperation is delivered to a consumer when the engine's sender
// yielded no runnable operation at connect time. Dropping the
// completion silently would leave the consumer waiting forever, so the
// gap is surfaced as an explicit error instead.
var ErrNoOperation = errors.New("sysexec: engine returned no operation")

// Void is the value type of tasks that complete without a payload.
// UnitTask and BulkTask both complete with Void.
type Void = struct{}

// Consumer receives the terminal signal of a connected task: exactly
// one of Value, Stopped, or Error, exactly once, possibly from an
// engine-managed goroutine. Stopped is a cooperative cancellation
// signal, not an error.
type Consumer[T any] interface {
	Value(v T)
	Stopped()
	Error(err error)
}

// Task is an immutable, not-yet-running description of asynchronous
// work completing with a value of type T. A task is connected exactly
// once; connecting binds a consumer and produces the one startable
// Operation. Callers may implement Task to feed their own typed work
// into Bulk composition.
type Task[T any] interface {
	// Connect binds c to the task's completion and returns the
	// operation state. It starts nothing.
	Connect(c Consumer[T]) Operation

	// CompletionScheduler returns the scheduler this task completes
	// on, letting downstream composition re-schedule continuations on
	// the same engine.
	CompletionScheduler() Scheduler
}

// Operation is connected, startable work. Start hands the work to the
// engine and returns without blocking; execution and completion
// delivery happen asynchronously. An Operation is started exactly once
// and its address must remain stable until completion, since the
// engine retains a reference to it.
type Operation interface {
	Start(ctx context.Context)
}

// UnitTask describes one schedulable unit of work on an engine
// scheduler. It completes value-lessly once the engine has run it.
type UnitTask struct {
	sender    engine.Sender
	connected atomic.Bool
}

// Connect binds c to the task, building the type-erased completion
// sink that translates engine notifications back into c's typed
// signals. The sink's callbacks recover the operation state through
// the opaque target they were constructed with.
func (t *UnitTask) Connect(c Consumer[Void]) Operation {
	if c == nil {
		panic("sysexec: Connect with nil consumer")
	}
	if t.connected.Swap(true) {
		panic("sysexec: task connected twice")
	}

	op := &unitOperation{consumer: c}
	op.inner = t.sender.Connect(engine.CompletionSink{
		Target: op,
		OnValue: func(target any) {
			target.(*unitOperation).consumer.Value(Void{})
		},
		OnStopped: func(target any) {
			target.(*unitOperation).consumer.Stopped()
		},
		OnError: func(target any, err error) {
			target.(*unitOperation).consumer.Error(err)
		},
	})
	return op
}

// CompletionScheduler returns the scheduler the task was created on;
// both value- and stopped-completions are delivered there.
func (t *UnitTask) CompletionScheduler() Scheduler {
	return Scheduler{impl: t.sender.CompletionScheduler()}
}

// unitOperation bridges one (UnitTask, Consumer) pair to the engine's
// operation contract.
type unitOperation struct {
	noCopy   noCopy
	consumer Consumer[Void]
	inner    engine.Operation
	started  atomic.Bool
}

func (o *unitOperation) Start(ctx context.Context) {
	if o.started.Swap(true) {
		panic("sysexec: operation started twice")
	}
	if o.inner == nil {
		o.consumer.Error(ErrNoOperation)
		return
	}
	o.inner.Start(ctx)
}
