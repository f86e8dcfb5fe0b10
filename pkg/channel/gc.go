package channel

import (
	"context"
	"time"

	"github.com/nebulastore/store/pkg/types"
)

// SetRoots replaces this channel's share of the database root set, for
// both the next GC cycle and LoadRoots, so a root assigned after Start
// (rather than discovered on disk at Start) is honored without a
// restart.
func (c *Channel) SetRoots(ctx context.Context, roots []types.OID) error {
	_, err := c.enqueue(ctx, cmdSetRoots, func() (any, error) {
		c.cfg.Roots = roots
		c.gc.SetRoots(roots)
		return nil, nil
	})
	return err
}

// BeginGCCycle resets this channel's cache to white (except its share of
// the root set) and seeds the mark queue, adopting generation as the
// cycle's shared generation number. Called on every channel by
// pkg/channelmgr, with the same generation (minted once by a single
// MarkMonitor.BeginCycle() call), before the first incremental mark pass
// of a cycle.
func (c *Channel) BeginGCCycle(ctx context.Context, generation int) error {
	_, err := c.enqueue(ctx, cmdBeginGC, func() (any, error) {
		c.gc.BeginCycle(generation)
		return nil, nil
	})
	return err
}

// MarkGC runs the mark phase for up to budget, returning true once this
// channel's mark queue has fully drained for the current generation.
func (c *Channel) MarkGC(ctx context.Context, budget time.Duration) (bool, error) {
	v, err := c.enqueue(ctx, cmdIncrementalGC, func() (any, error) {
		done, markErr := c.gc.Mark(ctx, budget)
		if markErr != nil {
			return done, types.NewError(types.ErrKindStorageConsistency, "channel.MarkGC", markErr)
		}
		return done, nil
	})
	if v == nil {
		return false, err
	}
	return v.(bool), err
}

// SweepGCResult reports the outcome of a SweepGC call.
type SweepGCResult struct {
	FreedEntities int
	FreedBytes    int64
}

// SweepGC reclaims every entity this channel's GC found white, provided
// the mark monitor has green-lit sweep for the current generation across
// every channel. It is a no-op (zero result, nil error) if sweep is not
// yet allowed.
func (c *Channel) SweepGC(ctx context.Context) (SweepGCResult, error) {
	v, err := c.enqueue(ctx, cmdSweepGC, func() (any, error) {
		entities, bytes, sweepErr := c.gc.Sweep()
		result := SweepGCResult{FreedEntities: entities, FreedBytes: bytes}
		if sweepErr != nil {
			return result, types.NewError(types.ErrKindStorageConsistency, "channel.SweepGC", sweepErr)
		}
		return result, nil
	})
	if v == nil {
		return SweepGCResult{}, err
	}
	return v.(SweepGCResult), err
}

// RouteToChannel hands oid to this channel's mark queue on behalf of
// another channel's GC, satisfying gc.Router's half of the contract that
// belongs to an individual channel (pkg/channelmgr implements the
// OwnerChannel lookup half). It is called synchronously from inside
// another channel's own Mark command closure, so it cannot append to
// c.gc's queue directly — that slice is unsynchronized and owned
// exclusively by this channel's worker goroutine. Instead it hands the
// oid off through routeCh, which only run() ever receives from; the
// send only blocks on buffer space, never on a round-trip reply, so two
// channels routing to each other mid-mark cannot deadlock. A channel
// that isn't running drops the reference: the next full GC cycle will
// rediscover it from a live referrer if it's still reachable.
func (c *Channel) RouteToChannel(oid types.OID) {
	select {
	case c.routeCh <- oid:
	case <-c.stopCh:
	}
}
