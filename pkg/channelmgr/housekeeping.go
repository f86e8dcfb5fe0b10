package channelmgr

import (
	"context"
	"fmt"
	"time"
)

// IssueFileCheck runs one incremental file-cleanup step on every channel
// with an equal share of budget, returning true once every channel has
// completed a full pass over its non-head files.
func (m *Manager) IssueFileCheck(ctx context.Context, budget time.Duration) (bool, error) {
	if len(m.channels) == 0 {
		return true, nil
	}
	slice := budget / time.Duration(len(m.channels))
	allDone := true
	for _, ch := range m.channels {
		done, err := ch.IncrementalFileCleanup(ctx, slice)
		if err != nil {
			return false, fmt.Errorf("channelmgr.IssueFileCheck: channel %d: %w", ch.Index(), err)
		}
		if !done {
			allDone = false
		}
	}
	return allDone, nil
}

// IssueCacheCheck runs one incremental cache-eviction step on every
// channel with an equal share of budget, returning true once every
// channel has completed a full pass.
func (m *Manager) IssueCacheCheck(ctx context.Context, budget time.Duration) (bool, error) {
	if len(m.channels) == 0 {
		return true, nil
	}
	slice := budget / time.Duration(len(m.channels))
	allDone := true
	for _, ch := range m.channels {
		done, err := ch.IncrementalCacheCheck(ctx, slice)
		if err != nil {
			return false, fmt.Errorf("channelmgr.IssueCacheCheck: channel %d: %w", ch.Index(), err)
		}
		if !done {
			allDone = false
		}
	}
	return allDone, nil
}

// IssueHousekeeping divides totalBudget equally across GC, file cleanup,
// and cache check (one third each), matching SPEC_FULL.md §4.7's
// aggregated housekeeping contract. It is the single call the
// housekeeping scheduler dispatches once per wakeup; each of the three
// passes is itself incremental and may return without completing, the
// same way a single housekeeping wakeup is not expected to finish a full
// GC cycle on a large database.
func (m *Manager) IssueHousekeeping(ctx context.Context, totalBudget time.Duration) error {
	third := totalBudget / 3

	if _, _, err := m.IssueGC(ctx, third); err != nil {
		return fmt.Errorf("channelmgr.IssueHousekeeping: gc: %w", err)
	}
	if _, err := m.IssueFileCheck(ctx, third); err != nil {
		return fmt.Errorf("channelmgr.IssueHousekeeping: file check: %w", err)
	}
	if _, err := m.IssueCacheCheck(ctx, third); err != nil {
		return fmt.Errorf("channelmgr.IssueHousekeeping: cache check: %w", err)
	}
	return nil
}
