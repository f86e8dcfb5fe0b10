// Package oid issues object ids: a single process-wide monotonic counter,
// seeded at startup from the highest OID found on disk, matching the
// generate-and-persist-state shape the teacher uses for its Raft member
// token allocator but stripped down to a bare atomic counter — there is no
// cluster to agree with, so there is nothing to replicate.
package oid

import (
	"sync/atomic"

	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/types"
)

// Allocator issues strictly increasing, never-reused object ids.
type Allocator struct {
	next uint64 // atomic; next value to hand out
}

// NewAllocator creates an allocator that will hand out highWaterMark+1 as
// its first id. Pass the highest OID observed on disk at startup (0 if the
// database is empty) so ids never collide with anything already persisted.
func NewAllocator(highWaterMark types.OID) *Allocator {
	return &Allocator{next: uint64(highWaterMark) + 1}
}

// Next returns the next unused OID. Safe for concurrent use.
func (a *Allocator) Next() types.OID {
	v := atomic.AddUint64(&a.next, 1) - 1
	metrics.OIDAllocatedTotal.Inc()
	return types.OID(v)
}

// Peek returns the next OID that Next would return, without allocating it.
// Intended for diagnostics only; racy under concurrent Next calls.
func (a *Allocator) Peek() types.OID {
	return types.OID(atomic.LoadUint64(&a.next))
}

// Restore resets the allocator's high-water mark, used when a startup scan
// discovers a higher OID than the one the allocator was seeded with (e.g.
// recovering a transaction log whose last entries were not yet visible to
// whatever seeded the allocator). It never lowers the mark.
func (a *Allocator) Restore(highWaterMark types.OID) {
	target := uint64(highWaterMark) + 1
	for {
		cur := atomic.LoadUint64(&a.next)
		if target <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&a.next, cur, target) {
			return
		}
	}
}
