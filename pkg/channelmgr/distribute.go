package channelmgr

import (
	"sync/atomic"

	"github.com/nebulastore/store/pkg/types"
)

// chooseChannel picks the channel index a newly allocated oid of the
// given tid should be stored on, per the configured DistributionStrategy.
// Once chosen, the assignment is bound for the object's lifetime — see
// RebalancePlan.
func (m *Manager) chooseChannel(oid types.OID, tid types.TID) int {
	switch m.cfg.Strategy {
	case types.StrategyRoundRobin:
		return m.roundRobin()
	case types.StrategyHashByType:
		return int(types.HashTID(tid) % uint64(len(m.channels)))
	case types.StrategyHashByOID:
		return int(types.HashOID(oid) % uint64(len(m.channels)))
	case types.StrategyWeightedCapacity:
		return m.weightedCapacity()
	case types.StrategyLeastLoaded:
		fallthrough
	default:
		return m.leastLoaded()
	}
}

func (m *Manager) roundRobin() int {
	n := atomic.AddUint64(&m.rrCounter, 1) - 1
	return int(n % uint64(len(m.channels)))
}

// leastLoaded mirrors the teacher's selectNode: count the current load
// per candidate and pick the minimum, ties broken by lowest index.
func (m *Manager) leastLoaded() int {
	selected := 0
	minCount := m.channels[0].EntityCount()
	for i := 1; i < len(m.channels); i++ {
		if count := m.channels[i].EntityCount(); count < minCount {
			minCount = count
			selected = i
		}
	}
	return selected
}

// weightedCapacity is leastLoaded generalized with a per-channel
// capacity weight; every channel in this implementation carries equal
// weight (there is no per-channel disk-size or quota configuration), so
// it currently behaves identically to leastLoaded. The strategy is kept
// distinct so a future per-channel capacity knob has a code path to
// land in without another distribution-strategy addition.
func (m *Manager) weightedCapacity() int {
	return m.leastLoaded()
}
