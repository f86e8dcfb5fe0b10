package channelmgr

import (
	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/types"
)

// OwnerChannel implements gc.Router: it reports which channel owns oid,
// consulting the index built at Start and kept current by Store. A miss
// (a reference to an oid this manager has never recorded an owner for)
// is a consistency problem the mark phase would otherwise surface as
// errUnknownOID anyway; falling back to the deterministic hash-by-oid
// channel keeps marking moving instead of panicking, on the chance the
// owner index missed a concurrent store — the affected channel's own
// unknown-oid check in pkg/gc is the backstop of last resort.
func (m *Manager) OwnerChannel(oid types.OID) int {
	m.ownerMu.RLock()
	idx, ok := m.owner[oid]
	m.ownerMu.RUnlock()
	if ok {
		return idx
	}

	log.WithComponent("channelmgr").Warn().Uint64("oid", uint64(oid)).
		Msg("owner index miss; falling back to hash-by-object-id")
	return int(types.HashOID(oid) % uint64(len(m.channels)))
}

// RouteToChannel implements the other half of gc.Router: hand oid to
// channel's mark queue. Dispatches to that channel's own RouteToChannel,
// which is safe to call from any goroutine (see pkg/channel/gc.go).
func (m *Manager) RouteToChannel(channelIndex int, oid types.OID) {
	if channelIndex < 0 || channelIndex >= len(m.channels) {
		return
	}
	m.channels[channelIndex].RouteToChannel(oid)
}

// RebalancePlan is the unimplemented placeholder for moving
// already-assigned entities across channels to correct a load imbalance
// discovered after the fact. See DESIGN.md's Open Questions: the
// original in-repo scaffold for this has no crash-safety story (an
// entity must atomically disappear from its old channel's cache and
// data files and appear in its new channel's, with no window where a
// concurrent GC cycle or load sees it in neither or both), and this
// implementation does not attempt one.
func (m *Manager) RebalancePlan() error {
	return ErrRebalanceNotImplemented
}
