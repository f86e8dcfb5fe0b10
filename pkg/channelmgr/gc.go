package channelmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/types"
)

// GCResult aggregates SweepGC's per-channel results across a full cycle.
type GCResult struct {
	FreedEntities int
	FreedBytes    int64
}

// IssueGC runs one incremental step of a mark-and-sweep cycle across
// every channel, splitting budget evenly and reporting whether the
// entire cycle (mark on every channel, then sweep on every channel)
// completed within this single call. A cycle that does not complete
// must be resumed by calling IssueGC again — unlike the rest of the
// per-channel incremental operations, a GC cycle has state (which
// generation is in flight, whether sweep already ran) that spans calls,
// tracked on the Manager itself rather than by a caller-held cursor.
func (m *Manager) IssueGC(ctx context.Context, budget time.Duration) (bool, GCResult, error) {
	m.gcMu.Lock()
	defer m.gcMu.Unlock()

	if len(m.channels) == 0 {
		return false, GCResult{}, types.NewError(types.ErrKindStorageInit, "channelmgr.IssueGC", errNoChannels)
	}

	if !m.gcActive {
		generation := m.monitor.BeginCycle()
		for _, ch := range m.channels {
			if err := ch.BeginGCCycle(ctx, generation); err != nil {
				return false, GCResult{}, fmt.Errorf("channelmgr.IssueGC: channel %d: %w", ch.Index(), err)
			}
		}
		m.gcActive = true
		m.generation = generation
		log.WithComponent("channelmgr").Debug().Int("generation", generation).Msg("gc cycle started")
	}

	slice := budget / time.Duration(len(m.channels))
	if slice <= 0 {
		slice = time.Microsecond
	}

	allMarked := true
	for _, ch := range m.channels {
		done, err := ch.MarkGC(ctx, slice)
		if err != nil {
			return false, GCResult{}, fmt.Errorf("channelmgr.IssueGC: mark channel %d: %w", ch.Index(), err)
		}
		if !done {
			allMarked = false
		}
	}
	if !allMarked {
		return false, GCResult{}, nil
	}

	var result GCResult
	for _, ch := range m.channels {
		sweepResult, err := ch.SweepGC(ctx)
		if err != nil {
			return false, GCResult{}, fmt.Errorf("channelmgr.IssueGC: sweep channel %d: %w", ch.Index(), err)
		}
		result.FreedEntities += sweepResult.FreedEntities
		result.FreedBytes += sweepResult.FreedBytes
	}

	m.gcActive = false
	m.monitor.Reset()
	log.WithComponent("channelmgr").Debug().
		Int("freed_entities", result.FreedEntities).
		Int64("freed_bytes", result.FreedBytes).
		Msg("gc cycle completed")
	return true, result, nil
}

// IssueFullGC blocks until an entire mark-and-sweep cycle completes
// across every channel, with no budget cap. A concurrent store is never
// blocked by this call — the pending-store barrier inside pkg/gc is what
// actually prevents sweep from racing an in-flight store, per channel.
func (m *Manager) IssueFullGC(ctx context.Context) (GCResult, error) {
	for {
		done, result, err := m.IssueGC(ctx, time.Second)
		if err != nil {
			return GCResult{}, err
		}
		if done {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return GCResult{}, ctx.Err()
		default:
		}
	}
}
