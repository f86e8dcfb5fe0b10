package housekeeping

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/metrics"
)

// Dispatcher is the aggregated housekeeping call the scheduler drives.
// Implemented by *channelmgr.Manager; defined here to avoid a dependency
// on pkg/channelmgr's concrete type.
type Dispatcher interface {
	IssueHousekeeping(ctx context.Context, budget time.Duration) error
}

// Config configures a Scheduler. Field names and defaults mirror
// pkg/config.Config's housekeeping knobs (§6).
type Config struct {
	IntervalMS        int64
	BaselineBudgetNS  int64
	MaximumBudgetNS   int64
	IncreaseThreshold int
	IncreaseAmountNS  int64
}

// Scheduler is the dedicated background driver described in
// SPEC_FULL.md §4.8. Construct with New, call Start to begin the
// wakeup loop, Stop to end it.
type Scheduler struct {
	cfg        Config
	dispatcher Dispatcher
	logger     zerolog.Logger

	mu                sync.Mutex
	currentBudget     time.Duration
	underBudgetStreak int

	inFlight atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Scheduler with its budget seeded at BaselineBudgetNS.
func New(dispatcher Dispatcher, cfg Config) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		dispatcher:    dispatcher,
		logger:        log.WithComponent("housekeeping"),
		currentBudget: time.Duration(cfg.BaselineBudgetNS),
	}
}

// Start begins the wakeup loop in its own goroutine.
func (s *Scheduler) Start() {
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run()
}

// Stop ends the wakeup loop and waits for the current cycle, if any, to
// finish.
func (s *Scheduler) Stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	interval := time.Duration(s.cfg.IntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cycle()
		case <-s.stopCh:
			return
		}
	}
}

// cycle dispatches exactly one housekeeping pass if none is already in
// flight, then adapts the budget based on whether the pass finished
// inside it.
func (s *Scheduler) cycle() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("housekeeping wakeup skipped; previous cycle still in flight")
		return
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	budget := s.currentBudget
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), budget*2)
	defer cancel()

	start := time.Now()
	if err := s.dispatcher.IssueHousekeeping(ctx, budget); err != nil {
		s.logger.Error().Err(err).Msg("housekeeping cycle failed")
		return
	}
	elapsed := time.Since(start)

	metrics.HousekeepingCyclesTotal.Inc()
	s.adaptBudget(elapsed, budget)
}

// adaptBudget implements §4.8's growth/shrink rule: more than
// IncreaseThreshold consecutive under-budget cycles grow the budget by
// IncreaseAmountNS, capped at MaximumBudgetNS; a cycle that ran at or
// over budget resets the streak and shrinks back to the baseline.
func (s *Scheduler) adaptBudget(elapsed, budget time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elapsed < budget {
		s.underBudgetStreak++
		if s.underBudgetStreak > s.cfg.IncreaseThreshold {
			grown := s.currentBudget + time.Duration(s.cfg.IncreaseAmountNS)
			max := time.Duration(s.cfg.MaximumBudgetNS)
			if grown > max {
				grown = max
			}
			s.currentBudget = grown
			s.underBudgetStreak = 0
		}
	} else {
		s.underBudgetStreak = 0
		s.currentBudget = time.Duration(s.cfg.BaselineBudgetNS)
	}

	metrics.HousekeepingBudgetNanos.Set(float64(s.currentBudget.Nanoseconds()))
}

// CurrentBudget returns the scheduler's current adaptive budget, for
// diagnostics and tests.
func (s *Scheduler) CurrentBudget() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBudget
}
