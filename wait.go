package sysexec

import (
	"context"
	"errors"
)

// ErrStopped is returned by Wait when the task completed with the
// cooperative stopped signal rather than a value or an error.
var ErrStopped = errors.New("sysexec: task stopped")

// Wait connects t to an internal consumer, starts it, and blocks until
// the terminal signal arrives. It returns the completed value, or
// ErrStopped on a stopped completion, or the task's error unchanged.
// Everything the task did happens before Wait returns.
//
// ctx is threaded into the operation; engines deliver a stopped
// completion for work whose context was cancelled before it ran.
func Wait[T any](ctx context.Context, t Task[T]) (T, error) {
	w := &waiter[T]{done: make(chan struct{})}
	t.Connect(w).Start(ctx)
	<-w.done
	return w.value, w.err
}

// waiter is the blocking consumer behind Wait. The channel close
// orders the completion before the caller's next observation.
type waiter[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func (w *waiter[T]) Value(v T) {
	w.value = v
	close(w.done)
}

func (w *waiter[T]) Stopped() {
	w.err = ErrStopped
	close(w.done)
}

func (w *waiter[T]) Error(err error) {
	w.err = err
	close(w.done)
}
