package single

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webriots/sysexec/engine"
)

type recorder struct {
	done chan string
	err  error
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 1)}
}

func (r *recorder) sink() engine.CompletionSink {
	return engine.CompletionSink{
		Target: r,
		OnValue: func(target any) {
			target.(*recorder).done <- "value"
		},
		OnStopped: func(target any) {
			target.(*recorder).done <- "stopped"
		},
		OnError: func(target any, err error) {
			rec := target.(*recorder)
			rec.err = err
			rec.done <- "error"
		},
	}
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case kind := <-r.done:
		return kind
	case <-time.After(5 * time.Second):
		t.Fatal("no completion within 5s")
		return ""
	}
}

func TestCompletionsInSubmissionOrder(t *testing.T) {
	r := require.New(t)

	l := New()
	defer l.Finish()

	var order []int
	recs := make([]*recorder, 5)
	for i := range recs {
		recs[i] = newRecorder()
		i := i
		sink := recs[i].sink()
		onValue := sink.OnValue
		sink.OnValue = func(target any) {
			order = append(order, i)
			onValue(target)
		}
		l.Scheduler().Schedule().Connect(sink).Start(context.Background())
	}

	for _, rec := range recs {
		r.Equal("value", rec.wait(t))
	}
	r.Equal([]int{0, 1, 2, 3, 4}, order)
}

func TestBulkRunsSequentially(t *testing.T) {
	r := require.New(t)

	l := New()
	defer l.Finish()

	var order []int
	fn := engine.BulkFunc{
		Invoke: func(_ any, idx int) { order = append(order, idx) },
	}

	rec := newRecorder()
	l.Scheduler().Bulk(4, fn).Connect(rec.sink()).Start(context.Background())
	r.Equal("value", rec.wait(t))
	r.Equal([]int{0, 1, 2, 3}, order)
}

func TestBulkPanicSkipsRemainingIndices(t *testing.T) {
	r := require.New(t)

	l := New()
	defer l.Finish()

	var order []int
	fn := engine.BulkFunc{
		Invoke: func(_ any, idx int) {
			if idx == 2 {
				panic("no")
			}
			order = append(order, idx)
		},
	}

	rec := newRecorder()
	l.Scheduler().Bulk(5, fn).Connect(rec.sink()).Start(context.Background())
	r.Equal("error", rec.wait(t))
	r.ErrorContains(rec.err, "index 2 panicked")
	r.Equal([]int{0, 1}, order)
}

func TestBulkZeroCompletesImmediately(t *testing.T) {
	r := require.New(t)

	l := New()
	defer l.Finish()

	fn := engine.BulkFunc{
		Invoke: func(any, int) { t.Error("invoked for size 0") },
	}

	rec := newRecorder()
	l.Scheduler().Bulk(0, fn).Connect(rec.sink()).Start(context.Background())
	r.Equal("value", rec.wait(t))
}

func TestStartAfterFinishErrors(t *testing.T) {
	r := require.New(t)

	l := New()
	l.Finish()
	l.Finish()

	rec := newRecorder()
	l.Scheduler().Schedule().Connect(rec.sink()).Start(context.Background())
	r.Equal("error", rec.wait(t))
	r.ErrorIs(rec.err, ErrFinished)
}

func TestStoppedOnCancelledContext(t *testing.T) {
	r := require.New(t)

	l := New()
	defer l.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newRecorder()
	l.Scheduler().Schedule().Connect(rec.sink()).Start(ctx)
	r.Equal("stopped", rec.wait(t))
}

func TestIdentityAndHints(t *testing.T) {
	r := require.New(t)

	a := New()
	defer a.Finish()
	b := New()
	defer b.Finish()

	r.Equal(1, a.Concurrency())
	r.True(a.Scheduler().Equal(a.Scheduler()))
	r.False(a.Scheduler().Equal(b.Scheduler()))
	r.Equal(engine.WeaklyParallel, a.Scheduler().Guarantee())
	r.NotEqual(a.LoopID(), b.LoopID())
}
