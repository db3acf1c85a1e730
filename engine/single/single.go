// Package single provides a minimal single-threaded sysexec engine:
// one event-loop goroutine draining a run queue in submission order.
// It exists to demonstrate the engine contracts and to give tests a
// deterministic backend; it makes no parallelism claims.
package single

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/webriots/sysexec/engine"
)

// Name is the registry name of the single-threaded engine.
const Name = "single"

// ErrFinished is carried by the error completion of work submitted
// after Finish.
var ErrFinished = errors.New("single: event loop finished")

func init() {
	engine.Register(Name, func() engine.Engine { return New() })
}

// Loop is an engine.Engine running everything on one dedicated
// goroutine. Completions are delivered from that goroutine, in
// submission order.
type Loop struct {
	id    uuid.UUID
	sched *scheduler

	mu       sync.Mutex
	cond     *sync.Cond
	queue    deque.Deque[func()]
	finished bool
	done     chan struct{}
}

// New creates a Loop and starts its goroutine.
func New() *Loop {
	l := &Loop{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	l.sched = &scheduler{loop: l}
	go l.run()
	return l
}

// LoopID identifies the loop instance, standing in for the thread id a
// dedicated OS thread would have.
func (l *Loop) LoopID() uuid.UUID {
	return l.id
}

// Scheduler returns the loop's one scheduler.
func (l *Loop) Scheduler() engine.Scheduler {
	return l.sched
}

// Concurrency returns 1: the loop never runs two units at once.
func (l *Loop) Concurrency() int {
	return 1
}

// Finish stops accepting work, lets the queue drain, and waits for the
// loop goroutine to exit. Finish is idempotent.
func (l *Loop) Finish() {
	l.mu.Lock()
	if !l.finished {
		l.finished = true
		l.cond.Broadcast()
	}
	l.mu.Unlock()
	<-l.done
}

// Close implements the optional engine shutdown contract.
func (l *Loop) Close() error {
	l.Finish()
	return nil
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		fn, ok := l.next()
		if !ok {
			return
		}
		fn()
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.queue.Len() == 0 && !l.finished {
		l.cond.Wait()
	}
	if l.queue.Len() == 0 {
		return nil, false
	}
	return l.queue.PopFront(), true
}

func (l *Loop) submit(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finished {
		return false
	}
	l.queue.PushBack(fn)
	l.cond.Signal()
	return true
}

type scheduler struct {
	loop *Loop
}

func (s *scheduler) Schedule() engine.Sender {
	return &sender{loop: s.loop, size: 1}
}

func (s *scheduler) Bulk(n int, fn engine.BulkFunc) engine.Sender {
	return &sender{loop: s.loop, size: n, fn: &fn, bulk: true}
}

func (s *scheduler) Guarantee() engine.ForwardProgress {
	return engine.WeaklyParallel
}

func (s *scheduler) Equal(other engine.Scheduler) bool {
	o, ok := other.(*scheduler)
	return ok && o == s
}

// sender describes either one unit or a sequential bulk fan-out; both
// run as a single thunk on the loop goroutine.
type sender struct {
	loop *Loop
	size int
	fn   *engine.BulkFunc
	bulk bool
}

func (s *sender) Connect(sink engine.CompletionSink) engine.Operation {
	return &operation{sender: s, sink: sink}
}

func (s *sender) CompletionScheduler() engine.Scheduler {
	return s.loop.sched
}

type operation struct {
	sender *sender
	sink   engine.CompletionSink
}

func (o *operation) Start(ctx context.Context) {
	s := o.sender

	if s.bulk && s.size == 0 {
		o.sink.OnValue(o.sink.Target)
		return
	}

	ok := s.loop.submit(func() {
		if ctx.Err() != nil {
			o.sink.OnStopped(o.sink.Target)
			return
		}
		if s.bulk {
			if err := o.invokeAll(); err != nil {
				o.sink.OnError(o.sink.Target, err)
				return
			}
		}
		o.sink.OnValue(o.sink.Target)
	})
	if !ok {
		o.sink.OnError(o.sink.Target, ErrFinished)
	}
}

// invokeAll runs the bulk indices in order on the loop goroutine. The
// first panic wins; later indices are skipped, which a strictly
// sequential engine may do since nothing ran ahead of the failure.
func (o *operation) invokeAll() error {
	s := o.sender
	for i := 0; i < s.size; i++ {
		if err := o.invoke(i); err != nil {
			return err
		}
	}
	return nil
}

func (o *operation) invoke(idx int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("single: bulk index %d panicked: %v", idx, r)
		}
	}()
	o.sender.fn.Invoke(o.sender.fn.Target, idx)
	return nil
}
