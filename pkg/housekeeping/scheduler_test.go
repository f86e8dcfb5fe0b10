package housekeeping_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/housekeeping"
)

type countingDispatcher struct {
	calls atomic.Int64
	delay time.Duration
}

func (d *countingDispatcher) IssueHousekeeping(ctx context.Context, budget time.Duration) error {
	d.calls.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return nil
}

func TestSchedulerDispatchesOnEveryWakeup(t *testing.T) {
	d := &countingDispatcher{}
	s := housekeeping.New(d, housekeeping.Config{
		IntervalMS:        5,
		BaselineBudgetNS:  int64(time.Millisecond),
		MaximumBudgetNS:   int64(10 * time.Millisecond),
		IncreaseThreshold: 1000,
		IncreaseAmountNS:  int64(time.Millisecond),
	})

	s.Start()
	require.Eventually(t, func() bool { return d.calls.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
}

func TestSchedulerGrowsBudgetAfterSustainedUnderBudgetCycles(t *testing.T) {
	d := &countingDispatcher{}
	baseline := int64(time.Millisecond)
	max := int64(20 * time.Millisecond)
	s := housekeeping.New(d, housekeeping.Config{
		IntervalMS:        5,
		BaselineBudgetNS:  baseline,
		MaximumBudgetNS:   max,
		IncreaseThreshold: 1,
		IncreaseAmountNS:  int64(5 * time.Millisecond),
	})

	require.Equal(t, time.Duration(baseline), s.CurrentBudget())

	s.Start()
	require.Eventually(t, func() bool {
		return s.CurrentBudget() > time.Duration(baseline)
	}, time.Second, time.Millisecond)
	s.Stop()

	assert.LessOrEqual(t, s.CurrentBudget(), time.Duration(max))
}

func TestSchedulerSkipsOverlappingCycles(t *testing.T) {
	d := &countingDispatcher{delay: 50 * time.Millisecond}
	s := housekeeping.New(d, housekeeping.Config{
		IntervalMS:        5,
		BaselineBudgetNS:  int64(time.Millisecond),
		MaximumBudgetNS:   int64(10 * time.Millisecond),
		IncreaseThreshold: 1000,
		IncreaseAmountNS:  int64(time.Millisecond),
	})

	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	// With a 50ms dispatcher and a 5ms tick, overlapping wakeups must be
	// skipped rather than queued: far fewer than 12 calls in 60ms.
	assert.Less(t, d.calls.Load(), int64(5))
}
