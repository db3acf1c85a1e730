package sysexec

import (
	"context"
	"sync/atomic"

	"github.com/webriots/sysexec/engine"
)

// BulkTask composes a previous task with a data-parallel fan-out of
// its result: fn is invoked once per index in [0, size) with the value
// the previous task completed with. The fan-out only begins after the
// previous task's value arrives; a stopped or error completion from
// the previous task short-circuits the fan-out entirely. BulkTask
// itself completes value-lessly, with the single aggregate completion
// ordered after every index has finished.
type BulkTask[T any] struct {
	sched     engine.Scheduler
	prev      Task[T]
	size      int
	fn        func(index int, v T)
	connected atomic.Bool
}

// Bulk builds a BulkTask running fn size times on s with the value
// produced by prev. Ownership of prev transfers into the BulkTask; it
// must not be connected elsewhere. Bulk is a free function rather than
// a Scheduler method because methods cannot introduce the value type
// parameter.
//
// Bulk panics on a negative size, a nil previous task, or a nil fn.
func Bulk[T any](s Scheduler, prev Task[T], size int, fn func(index int, v T)) *BulkTask[T] {
	if size < 0 {
		panic("sysexec: negative bulk size")
	}
	if prev == nil {
		panic("sysexec: Bulk with nil previous task")
	}
	if fn == nil {
		panic("sysexec: Bulk with nil function")
	}
	return &BulkTask[T]{sched: s.impl, prev: prev, size: size, fn: fn}
}

// Connect binds c to the composed operation. The previous task is
// connected to an intermediate consumer that watches its completion
// and, on value, triggers the fan-out through the engine.
func (t *BulkTask[T]) Connect(c Consumer[Void]) Operation {
	if c == nil {
		panic("sysexec: Connect with nil consumer")
	}
	if t.connected.Swap(true) {
		panic("sysexec: task connected twice")
	}

	op := &bulkOperation[T]{}
	op.state.sched = t.sched
	op.state.size = t.size
	op.state.fn = t.fn
	op.state.consumer = c
	op.prev = t.prev.Connect(&bulkIntermediateConsumer[T]{state: &op.state})
	return op
}

// CompletionScheduler returns the scheduler the fan-out runs on. It is
// known up front regardless of where the previous task completes.
func (t *BulkTask[T]) CompletionScheduler() Scheduler {
	return Scheduler{impl: t.sched}
}

// bulkState is the shared state of one in-flight bulk operation. Its
// address is handed to the engine as the opaque target of both the
// fan-out function record and the completion sink.
type bulkState[T any] struct {
	sched    engine.Scheduler
	size     int
	fn       func(index int, v T)
	consumer Consumer[Void]

	// ctx is captured at Start and carried into the fan-out, which
	// begins on an engine goroutine after the previous task completes.
	ctx context.Context

	// args boxes the previous task's value for the fan-out's duration.
	// Every parallel invocation reads it; it stays set and unmutated
	// until the terminal signal, then is released.
	args *T

	// inner is the engine operation of the in-flight fan-out.
	inner engine.Operation
}

// release drops the boxed arguments once no invocation can read them
// anymore.
func (st *bulkState[T]) release() {
	st.args = nil
}

// forward delivers the terminal signal, releasing the argument box
// first.
func (st *bulkState[T]) forwardValue() {
	st.release()
	st.consumer.Value(Void{})
}

func (st *bulkState[T]) forwardStopped() {
	st.release()
	st.consumer.Stopped()
}

func (st *bulkState[T]) forwardError(err error) {
	st.release()
	st.consumer.Error(err)
}

// bulkIntermediateConsumer watches the previous task's completion. On
// value it boxes the result, asks the engine for a fan-out sender of
// size independent units, connects that sender back to the original
// consumer through a fresh type-erased sink, and starts it. Stopped
// and error completions are forwarded directly; the fan-out never
// starts and fn is never invoked.
type bulkIntermediateConsumer[T any] struct {
	state *bulkState[T]
}

func (r *bulkIntermediateConsumer[T]) Value(v T) {
	st := r.state
	st.args = &v

	sender := st.sched.Bulk(st.size, engine.BulkFunc{
		Target: st,
		Invoke: func(target any, index int) {
			st := target.(*bulkState[T])
			st.fn(index, *st.args)
		},
	})

	st.inner = sender.Connect(engine.CompletionSink{
		Target: st,
		OnValue: func(target any) {
			target.(*bulkState[T]).forwardValue()
		},
		OnStopped: func(target any) {
			target.(*bulkState[T]).forwardStopped()
		},
		OnError: func(target any, err error) {
			target.(*bulkState[T]).forwardError(err)
		},
	})
	if st.inner == nil {
		st.forwardError(ErrNoOperation)
		return
	}
	st.inner.Start(st.ctx)
}

func (r *bulkIntermediateConsumer[T]) Stopped() {
	r.state.forwardStopped()
}

func (r *bulkIntermediateConsumer[T]) Error(err error) {
	r.state.forwardError(err)
}

// bulkOperation bridges one (BulkTask, Consumer) pair to the engine.
// Starting it starts the previous task's operation only; the fan-out
// is triggered by the intermediate consumer once the previous value
// arrives.
type bulkOperation[T any] struct {
	noCopy  noCopy
	state   bulkState[T]
	prev    Operation
	started atomic.Bool
}

func (o *bulkOperation[T]) Start(ctx context.Context) {
	if o.started.Swap(true) {
		panic("sysexec: operation started twice")
	}
	o.state.ctx = ctx
	if o.prev == nil {
		o.state.forwardError(ErrNoOperation)
		return
	}
	o.prev.Start(ctx)
}
