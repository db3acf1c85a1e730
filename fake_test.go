package sysexec

import (
	"context"

	"github.com/webriots/sysexec/engine"
)

// fakeEngine is a synchronous in-test engine: Start runs everything
// inline on the calling goroutine and delivers the completion before
// returning. It keeps the bridge tests deterministic and exercises
// engine injection through NewWith.
type fakeEngine struct {
	sched  *fakeScheduler
	closed bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{sched: &fakeScheduler{}}
}

func (e *fakeEngine) Scheduler() engine.Scheduler { return e.sched }
func (e *fakeEngine) Concurrency() int            { return 1 }

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

type fakeScheduler struct {
	// nilOps makes Connect yield no operation, modelling a defective
	// backend.
	nilOps bool
}

func (s *fakeScheduler) Schedule() engine.Sender {
	return &fakeSender{sched: s}
}

func (s *fakeScheduler) Bulk(n int, fn engine.BulkFunc) engine.Sender {
	return &fakeSender{sched: s, bulk: true, size: n, fn: fn}
}

func (s *fakeScheduler) Guarantee() engine.ForwardProgress {
	return engine.Concurrent
}

func (s *fakeScheduler) Equal(other engine.Scheduler) bool {
	o, ok := other.(*fakeScheduler)
	return ok && o == s
}

type fakeSender struct {
	sched *fakeScheduler
	bulk  bool
	size  int
	fn    engine.BulkFunc
}

func (s *fakeSender) Connect(sink engine.CompletionSink) engine.Operation {
	if s.sched.nilOps {
		return nil
	}
	return &fakeOperation{sender: s, sink: sink}
}

func (s *fakeSender) CompletionScheduler() engine.Scheduler {
	return s.sched
}

type fakeOperation struct {
	sender *fakeSender
	sink   engine.CompletionSink
}

func (o *fakeOperation) Start(ctx context.Context) {
	if ctx.Err() != nil {
		o.sink.OnStopped(o.sink.Target)
		return
	}
	if o.sender.bulk {
		for i := 0; i < o.sender.size; i++ {
			o.sender.fn.Invoke(o.sender.fn.Target, i)
		}
	}
	o.sink.OnValue(o.sink.Target)
}
