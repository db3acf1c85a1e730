package sysexec_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webriots/sysexec"
	"github.com/webriots/sysexec/engine"
	"github.com/webriots/sysexec/engine/pool"
	"github.com/webriots/sysexec/engine/single"
)

func TestPoolUnitScenario(t *testing.T) {
	r := require.New(t)

	ctx := sysexec.NewWith(pool.New(pool.Config{Workers: 4}))
	defer ctx.Close()

	_, err := sysexec.Wait(context.Background(), ctx.Scheduler().Schedule())
	r.NoError(err)
}

func TestPoolBulkHappensAfter(t *testing.T) {
	r := require.New(t)

	ctx := sysexec.NewWith(pool.New(pool.Config{Workers: 4}))
	defer ctx.Close()
	sched := ctx.Scheduler()

	var counter atomic.Int64
	task := sysexec.Bulk(sched, sched.Schedule(), 8, func(int, sysexec.Void) {
		counter.Add(1)
	})

	_, err := sysexec.Wait(context.Background(), task)
	r.NoError(err)

	// The aggregate completion is ordered after every index; the
	// counter must already read 8 here.
	r.EqualValues(8, counter.Load())
}

func TestPoolBulkIndexCoverageConcurrent(t *testing.T) {
	r := require.New(t)

	ctx := sysexec.NewWith(pool.New(pool.Config{Workers: 8}))
	defer ctx.Close()
	sched := ctx.Scheduler()

	const n = 128
	var seen [n]atomic.Int32
	task := sysexec.Bulk(sched, sched.Schedule(), n, func(i int, _ sysexec.Void) {
		seen[i].Add(1)
	})

	_, err := sysexec.Wait(context.Background(), task)
	r.NoError(err)

	for i := 0; i < n; i++ {
		r.EqualValues(1, seen[i].Load(), "index %d", i)
	}
}

func TestSingleEngineScenario(t *testing.T) {
	r := require.New(t)

	loop := single.New()
	ctx := sysexec.NewWith(loop)
	defer ctx.Close()
	sched := ctx.Scheduler()

	r.Equal(1, ctx.MaxConcurrency())
	r.Equal(sysexec.WeaklyParallel, sched.Guarantee())

	var order []int
	task := sysexec.Bulk(sched, sched.Schedule(), 5, func(i int, _ sysexec.Void) {
		order = append(order, i)
	})

	_, err := sysexec.Wait(context.Background(), task)
	r.NoError(err)
	r.Equal([]int{0, 1, 2, 3, 4}, order)
}

func TestEngineRegistryRoundTrip(t *testing.T) {
	r := require.New(t)

	names := engine.List()
	r.Contains(names, pool.Name)
	r.Contains(names, single.Name)

	eng, err := engine.New(single.Name)
	r.NoError(err)
	ctx := sysexec.NewWith(eng)
	defer ctx.Close()

	_, err = sysexec.Wait(context.Background(), ctx.Scheduler().Schedule())
	r.NoError(err)
}
