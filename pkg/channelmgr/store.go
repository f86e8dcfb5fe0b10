package channelmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/types"
)

// StoreRequest is one entity awaiting a channel assignment and a store.
type StoreRequest struct {
	OID     types.OID
	TID     types.TID
	Payload []byte
}

// StoreResult reports where a StoreRequest landed.
type StoreResult struct {
	OID      types.OID
	Position types.Position
}

// Store assigns each request to a channel via the configured
// distribution strategy, groups requests by channel, and issues one
// StoreEntities call per channel that has at least one assigned entity.
// Every request must already carry an allocated OID — distribution needs
// it for hash-by-object-id and the owner index needs it regardless of
// strategy; pkg/storagemgr allocates OIDs from the shared pkg/oid
// allocator before calling Store.
func (m *Manager) Store(ctx context.Context, ts time.Time, reqs []StoreRequest) ([]StoreResult, error) {
	if len(m.channels) == 0 {
		return nil, types.NewError(types.ErrKindStorageInit, "channelmgr.Store", errNoChannels)
	}

	byChannel := make(map[int][]datafile.Chunk)
	orderByChannel := make(map[int][]int) // channel -> index into reqs, in submission order
	assignment := make([]int, len(reqs))

	for i, req := range reqs {
		ch := m.chooseChannel(req.OID, req.TID)
		assignment[i] = ch
		byChannel[ch] = append(byChannel[ch], datafile.Chunk{OID: req.OID, TID: req.TID, Payload: req.Payload})
		orderByChannel[ch] = append(orderByChannel[ch], i)
	}

	results := make([]StoreResult, len(reqs))
	for ch, chunks := range byChannel {
		positions, err := m.channels[ch].StoreEntities(ctx, ts, chunks)
		if err != nil {
			return nil, fmt.Errorf("channelmgr.Store: channel %d: %w", ch, err)
		}
		indices := orderByChannel[ch]
		for j, idx := range indices {
			results[idx] = StoreResult{OID: reqs[idx].OID, Position: positions[j]}
		}
		metrics.ChannelStoreTotal.WithLabelValues(fmt.Sprintf("%d", ch)).Add(float64(len(chunks)))
	}

	m.ownerMu.Lock()
	for i, req := range reqs {
		m.owner[req.OID] = assignment[i]
	}
	m.ownerMu.Unlock()

	return results, nil
}

// Load returns the payload of every oid found in any channel's cache,
// grouping the request by owning channel so each channel services only
// the oids it holds.
func (m *Manager) Load(ctx context.Context, oids []types.OID) (map[types.OID][]byte, error) {
	byChannel := make(map[int][]types.OID)
	for _, oid := range oids {
		ch := m.OwnerChannel(oid)
		byChannel[ch] = append(byChannel[ch], oid)
	}

	out := make(map[types.OID][]byte, len(oids))
	for ch, group := range byChannel {
		payloads, err := m.channels[ch].LoadByOIDs(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("channelmgr.Load: channel %d: %w", ch, err)
		}
		for oid, data := range payloads {
			out[oid] = data
		}
	}
	return out, nil
}

// LoadByTID returns the payload of every cached entity of tid, across
// every channel — a type's instances are scattered across the whole
// array, not owned by one channel.
func (m *Manager) LoadByTID(ctx context.Context, tid types.TID) (map[types.OID][]byte, error) {
	out := make(map[types.OID][]byte)
	for _, ch := range m.channels {
		payloads, err := ch.LoadByTIDs(ctx, []types.TID{tid})
		if err != nil {
			return nil, fmt.Errorf("channelmgr.LoadByTID: channel %d: %w", ch.Index(), err)
		}
		for oid, data := range payloads {
			out[oid] = data
		}
	}
	return out, nil
}

// SetRoots reassigns the database's root set, routing each root OID to its
// owning channel (per the owner index built at Start and kept current by
// Store) and clearing the previous root set from every other channel. It
// must be called whenever pkg/storagemgr.SetRoot changes the root pointer
// so the very next GC cycle protects the new root instead of only picking
// it up after a restart discovers it on disk.
func (m *Manager) SetRoots(ctx context.Context, roots []types.OID) error {
	byChannel := make(map[int][]types.OID, len(m.channels))
	for _, root := range roots {
		ch := m.OwnerChannel(root)
		byChannel[ch] = append(byChannel[ch], root)
	}

	for _, ch := range m.channels {
		if err := ch.SetRoots(ctx, byChannel[ch.Index()]); err != nil {
			return fmt.Errorf("channelmgr.SetRoots: channel %d: %w", ch.Index(), err)
		}
	}
	return nil
}

// LoadRoots returns the payload of every channel's share of the root set.
func (m *Manager) LoadRoots(ctx context.Context) (map[types.OID][]byte, error) {
	out := make(map[types.OID][]byte)
	for _, ch := range m.channels {
		payloads, err := ch.LoadRoots(ctx)
		if err != nil {
			return nil, fmt.Errorf("channelmgr.LoadRoots: channel %d: %w", ch.Index(), err)
		}
		for oid, data := range payloads {
			out[oid] = data
		}
	}
	return out, nil
}
