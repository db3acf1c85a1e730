// Package pool provides the default sysexec engine: a fixed set of
// worker goroutines draining a shared run queue. Importing the package
// registers it as the "pool" engine and claims the registry default
// slot, so a blank import is enough to back sysexec.New.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/webriots/sysexec/engine"
)

// Name is the registry name of the pooled engine.
const Name = "pool"

const (
	envWorkers  = "SYSEXEC_POOL_WORKERS"
	envLogLevel = "SYSEXEC_LOG_LEVEL"
)

// ErrClosed is carried by the error completion of work submitted to a
// closed pool.
var ErrClosed = errors.New("pool: engine is closed")

func init() {
	engine.Register(Name, func() engine.Engine { return New(Config{}) })
	engine.SetDefault(Name)
}

// Config configures a Pool. Zero values select defaults: worker count
// from SYSEXEC_POOL_WORKERS or runtime.NumCPU, and a text slog logger
// on stderr at the level named by SYSEXEC_LOG_LEVEL.
type Config struct {
	Workers int
	Logger  *slog.Logger
}

// Pool is an engine.Engine running work on a fixed number of worker
// goroutines fed from one shared run queue.
type Pool struct {
	id      uuid.UUID
	log     *slog.Logger
	workers int
	sched   *scheduler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  deque.Deque[func()]
	closed bool
	wg     sync.WaitGroup
}

// New creates a Pool and starts its workers.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = workersFromEnv()
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevelFromEnv(),
		}))
	}

	p := &Pool{
		id:      uuid.New(),
		log:     log,
		workers: workers,
	}
	p.cond = sync.NewCond(&p.mu)
	p.sched = &scheduler{pool: p}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	p.log.Info("pool engine started", "engine_id", p.id, "workers", workers)
	return p
}

// Scheduler returns the pool's one scheduler.
func (p *Pool) Scheduler() engine.Scheduler {
	return p.sched
}

// Concurrency returns the worker count.
func (p *Pool) Concurrency() int {
	return p.workers
}

// Close stops accepting work, drains the queue, and waits for the
// workers to exit. Work already queued still runs and completes.
// Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("pool engine stopped", "engine_id", p.id)
	return nil
}

// submit queues fn for a worker. It reports false once the pool is
// closed.
func (p *Pool) submit(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.queue.PushBack(fn)
	queueDepth.Inc()
	p.cond.Signal()
	return true
}

// next blocks until work is available or the pool is closed and
// drained.
func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.queue.Len() == 0 {
		return nil, false
	}
	queueDepth.Dec()
	return p.queue.PopFront(), true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		fn, ok := p.next()
		if !ok {
			return
		}
		fn()
	}
}

// scheduler is the pool's engine.Scheduler. One per pool; identity is
// pointer identity.
type scheduler struct {
	pool *Pool
}

func (s *scheduler) Schedule() engine.Sender {
	return &unitSender{pool: s.pool}
}

func (s *scheduler) Bulk(n int, fn engine.BulkFunc) engine.Sender {
	return &bulkSender{pool: s.pool, size: n, fn: fn}
}

func (s *scheduler) Guarantee() engine.ForwardProgress {
	return engine.Parallel
}

func (s *scheduler) Equal(other engine.Scheduler) bool {
	o, ok := other.(*scheduler)
	return ok && o == s
}

// unitSender describes one unit of work on the pool.
type unitSender struct {
	pool *Pool
}

func (s *unitSender) Connect(sink engine.CompletionSink) engine.Operation {
	return &unitOperation{pool: s.pool, sink: sink}
}

func (s *unitSender) CompletionScheduler() engine.Scheduler {
	return s.pool.sched
}

type unitOperation struct {
	pool *Pool
	sink engine.CompletionSink
}

func (o *unitOperation) Start(ctx context.Context) {
	ok := o.pool.submit(func() {
		if ctx.Err() != nil {
			completionsTotal.WithLabelValues(kindStopped).Inc()
			o.sink.OnStopped(o.sink.Target)
			return
		}
		completionsTotal.WithLabelValues(kindValue).Inc()
		o.sink.OnValue(o.sink.Target)
	})
	if !ok {
		completionsTotal.WithLabelValues(kindError).Inc()
		o.sink.OnError(o.sink.Target, ErrClosed)
	}
}

// bulkSender describes size independent invocations of fn, completing
// once with a single aggregate signal after every index has finished.
type bulkSender struct {
	pool *Pool
	size int
	fn   engine.BulkFunc
}

func (s *bulkSender) Connect(sink engine.CompletionSink) engine.Operation {
	return &bulkOperation{pool: s.pool, size: s.size, fn: s.fn, sink: sink}
}

func (s *bulkSender) CompletionScheduler() engine.Scheduler {
	return s.pool.sched
}

type bulkOperation struct {
	pool *Pool
	size int
	fn   engine.BulkFunc
	sink engine.CompletionSink

	ctx       context.Context
	remaining atomic.Int64
	stopped   atomic.Bool

	errMu sync.Mutex
	errv  error
}

func (o *bulkOperation) Start(ctx context.Context) {
	if o.size == 0 {
		completionsTotal.WithLabelValues(kindValue).Inc()
		o.sink.OnValue(o.sink.Target)
		return
	}

	o.pool.log.Debug("bulk fan-out", "engine_id", o.pool.id, "size", o.size)

	o.ctx = ctx
	o.remaining.Store(int64(o.size))
	for i := 0; i < o.size; i++ {
		idx := i
		if !o.pool.submit(func() { o.run(idx) }) {
			o.fail(ErrClosed)
			o.finishOne()
		}
	}
}

// run executes one index invocation on a worker. A panicking index is
// funneled into the aggregate error completion; the fan-out still
// waits for its remaining siblings, since no cancellation channel
// reaches them.
func (o *bulkOperation) run(idx int) {
	if o.ctx.Err() != nil {
		o.stopped.Store(true)
	} else {
		start := time.Now()
		o.invoke(idx)
		bulkIndexDuration.Observe(time.Since(start).Seconds())
	}
	o.finishOne()
}

func (o *bulkOperation) invoke(idx int) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(fmt.Errorf("pool: bulk index %d panicked: %v", idx, r))
		}
	}()
	o.fn.Invoke(o.fn.Target, idx)
}

// fail records the first error; later errors lose.
func (o *bulkOperation) fail(err error) {
	o.errMu.Lock()
	if o.errv == nil {
		o.errv = err
	}
	o.errMu.Unlock()
}

func (o *bulkOperation) err() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.errv
}

// finishOne retires one index. The last one out delivers the single
// aggregate completion: error beats stopped beats value.
func (o *bulkOperation) finishOne() {
	if o.remaining.Add(-1) != 0 {
		return
	}
	switch {
	case o.err() != nil:
		completionsTotal.WithLabelValues(kindError).Inc()
		o.sink.OnError(o.sink.Target, o.err())
	case o.stopped.Load():
		completionsTotal.WithLabelValues(kindStopped).Inc()
		o.sink.OnStopped(o.sink.Target)
	default:
		completionsTotal.WithLabelValues(kindValue).Inc()
		o.sink.OnValue(o.sink.Target)
	}
}

func workersFromEnv() int {
	if v := os.Getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(envLogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
