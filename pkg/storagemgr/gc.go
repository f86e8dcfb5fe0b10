package storagemgr

import (
	"context"
	"time"

	"github.com/nebulastore/store/pkg/types"
)

// IssueGC runs one budgeted incremental step of a mark-and-sweep cycle
// across every channel, returning whether the whole cycle completed within
// this call.
func (m *Manager) IssueGC(ctx context.Context, budget time.Duration) (bool, error) {
	if !m.started {
		return false, types.NewError(types.ErrKindNotRunning, "storagemgr.IssueGC", errNotOpen)
	}
	done, _, err := m.channels.IssueGC(ctx, budget)
	return done, err
}

// IssueFullGC blocks until an entire mark-and-sweep cycle completes across
// every channel, with no budget cap.
func (m *Manager) IssueFullGC(ctx context.Context) error {
	if !m.started {
		return types.NewError(types.ErrKindNotRunning, "storagemgr.IssueFullGC", errNotOpen)
	}
	_, err := m.channels.IssueFullGC(ctx)
	return err
}

// IssueFileCheck runs one budgeted incremental file-cleanup pass across
// every channel.
func (m *Manager) IssueFileCheck(ctx context.Context, budget time.Duration) (bool, error) {
	if !m.started {
		return false, types.NewError(types.ErrKindNotRunning, "storagemgr.IssueFileCheck", errNotOpen)
	}
	return m.channels.IssueFileCheck(ctx, budget)
}

// IssueFullFileCheck blocks until every channel completes a full file-cleanup
// pass, with no budget cap.
func (m *Manager) IssueFullFileCheck(ctx context.Context) error {
	if !m.started {
		return types.NewError(types.ErrKindNotRunning, "storagemgr.IssueFullFileCheck", errNotOpen)
	}
	for {
		done, err := m.channels.IssueFileCheck(ctx, time.Second)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// IssueCacheCheck runs one budgeted incremental cache-eviction pass across
// every channel.
func (m *Manager) IssueCacheCheck(ctx context.Context, budget time.Duration) (bool, error) {
	if !m.started {
		return false, types.NewError(types.ErrKindNotRunning, "storagemgr.IssueCacheCheck", errNotOpen)
	}
	return m.channels.IssueCacheCheck(ctx, budget)
}

// IssueFullCacheCheck blocks until every channel completes a full
// cache-eviction pass, with no budget cap.
func (m *Manager) IssueFullCacheCheck(ctx context.Context) error {
	if !m.started {
		return types.NewError(types.ErrKindNotRunning, "storagemgr.IssueFullCacheCheck", errNotOpen)
	}
	for {
		done, err := m.channels.IssueCacheCheck(ctx, time.Second)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
