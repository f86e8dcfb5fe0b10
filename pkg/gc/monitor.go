package gc

import "sync"

// MarkMonitor is the cross-channel coordinator that knows when every
// channel has finished marking and none has an outstanding pending store,
// so sweep can begin safely everywhere at once.
//
// Coordination is generation-counter + per-channel-ack based: BeginCycle
// hands out a new generation number; each channel acks
// SetMarkingComplete(channel, generation) once its own mark queue has
// drained for that generation; AllMarkingComplete reports true once every
// channel has acked the current generation. A channel's in-flight store
// registers itself via PendingStoreStart/PendingStoreEnd, and
// SweepAllowed refuses to green-light sweep while any channel has one
// outstanding, regardless of marking state — the pending-store barrier.
type MarkMonitor struct {
	mu sync.Mutex

	channelCount int
	generation   int

	ackedGeneration map[int]int // channel -> last generation it acked complete
	pendingStores   map[int]int // channel -> outstanding pending-store count
}

// NewMarkMonitor creates a monitor for channelCount channels.
func NewMarkMonitor(channelCount int) *MarkMonitor {
	return &MarkMonitor{
		channelCount:    channelCount,
		ackedGeneration: make(map[int]int),
		pendingStores:   make(map[int]int),
	}
}

// BeginCycle starts a new mark cycle and returns its generation number.
func (m *MarkMonitor) BeginCycle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return m.generation
}

// PendingStoreStart signals that channel has a store operation in flight
// that has not yet been accounted for by the current mark cycle.
func (m *MarkMonitor) PendingStoreStart(channel int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingStores[channel]++
}

// PendingStoreEnd clears one outstanding pending-store signal for channel.
func (m *MarkMonitor) PendingStoreEnd(channel int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingStores[channel] > 0 {
		m.pendingStores[channel]--
	}
}

// SetMarkingComplete acks that channel has finished marking for
// generation. Calling it with a stale generation is a no-op.
func (m *MarkMonitor) SetMarkingComplete(channel int, generation int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation < m.ackedGeneration[channel] {
		return
	}
	m.ackedGeneration[channel] = generation
}

// AllMarkingComplete reports whether every channel has acked generation.
func (m *MarkMonitor) AllMarkingComplete(generation int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ackedGeneration) < m.channelCount {
		return false
	}
	for ch := 0; ch < m.channelCount; ch++ {
		if m.ackedGeneration[ch] < generation {
			return false
		}
	}
	return true
}

// SweepAllowed reports whether channel may begin its sweep phase for
// generation: every channel must have acked marking_complete for this
// generation, and no channel may have an outstanding pending store.
func (m *MarkMonitor) SweepAllowed(generation int) bool {
	if !m.AllMarkingComplete(generation) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.pendingStores {
		if n > 0 {
			return false
		}
	}
	return true
}

// Reset clears all acks, used between full GC cycles.
func (m *MarkMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ackedGeneration = make(map[int]int)
}
