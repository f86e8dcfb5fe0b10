package datafile

import (
	"context"
	"time"

	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/types"
)

// LivenessFunc reports whether oid is still reachable; when it is, it also
// returns the TID to re-tag the transferred record with (normally
// unchanged). Supplied by pkg/channel, backed by the entity cache, so this
// package never needs to import it.
type LivenessFunc func(oid types.OID) (tid types.TID, alive bool)

// RelocateFunc is called after a live record is copied into the head
// file, so the caller can update the entity cache's position index.
type RelocateFunc func(oid types.OID, newPos types.Position)

// IncrementalFileCleanup walks non-head files starting from the cursor
// left by the previous call, evacuating live records from cleanup
// candidates into the head file and deleting candidates that reach zero
// live bytes, until budget is exhausted or every non-head file has been
// visited once. It returns true when a full pass completed.
//
// A file is a cleanup candidate when live_bytes/total_bytes is below the
// configured minimum use ratio, or total_bytes falls outside
// [MinFileSize, MaxFileSize].
func (m *Manager) IncrementalFileCleanup(ctx context.Context, budget time.Duration, isLive LivenessFunc, relocate RelocateFunc) (bool, error) {
	deadline := time.Now().Add(budget)

	m.mu.Lock()
	candidates := make([]*fileInfo, 0, len(m.files))
	if len(m.files) > 0 {
		for _, f := range m.files[:len(m.files)-1] {
			candidates = append(candidates, f)
		}
	}
	m.mu.Unlock()

	if len(candidates) == 0 {
		return true, nil
	}

	startIdx := m.cleanupFileIdx % len(candidates)
	for i := 0; i < len(candidates); i++ {
		if time.Now().After(deadline) {
			return false, nil
		}

		idx := (startIdx + i) % len(candidates)
		f := candidates[idx]
		if !m.isCleanupCandidate(f) {
			continue
		}

		done, err := m.evacuateFile(ctx, f, deadline, isLive, relocate)
		if err != nil {
			return false, err
		}
		if !done {
			m.cleanupFileIdx = idx
			return false, nil
		}
	}

	m.cleanupFileIdx = 0
	return true, nil
}

func (m *Manager) isCleanupCandidate(f *fileInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.totalBytes == 0 {
		return false
	}
	useRatio := float64(f.liveBytes) / float64(f.totalBytes)
	return useRatio < m.cfg.MinimumUseRatio || f.totalBytes < m.cfg.MinFileSize || f.totalBytes > m.cfg.MaxFileSize
}

func (m *Manager) evacuateFile(ctx context.Context, f *fileInfo, deadline time.Time, isLive LivenessFunc, relocate RelocateFunc) (bool, error) {
	path := dataFilePath(m.cfg.ChannelDir, m.channel, f.number)
	var offset int64

	for offset+recordHeaderSize <= f.totalBytes {
		if time.Now().After(deadline) {
			return false, nil
		}

		raw, err := m.conn.ReadRange(ctx, path, offset, recordHeaderSize)
		if err != nil {
			return false, err
		}
		header, err := decodeHeader(raw)
		if err != nil {
			return false, err
		}

		oid := types.OID(header.ObjectID)
		if tid, alive := isLive(oid); alive {
			payload, err := m.conn.ReadRange(ctx, path, offset+recordHeaderSize, header.Length-recordHeaderSize)
			if err != nil {
				return false, err
			}
			positions, err := m.StoreChunks(ctx, []Chunk{{OID: oid, TID: tid, Payload: payload}})
			if err != nil {
				return false, err
			}
			if err := m.log.Append(ctx, TxEntry{
				Kind:        EntryTransfer,
				TimestampMS: nowMS(),
				FileNumber:  f.number,
				Offset:      offset,
				Length:      header.Length,
			}); err != nil {
				return false, err
			}
			relocate(oid, positions[0])
		}

		offset += header.Length
	}

	m.mu.Lock()
	f.liveBytes = 0
	m.mu.Unlock()

	if err := m.conn.Delete(ctx, path); err != nil {
		return false, err
	}
	m.removeFile(f.number)
	if err := m.log.Append(ctx, TxEntry{Kind: EntryDelete, TimestampMS: nowMS(), FileNumber: f.number}); err != nil {
		return false, err
	}
	metrics.FileCleanupEvacuatedTotal.WithLabelValues(m.chanTag).Inc()
	return true, nil
}

func (m *Manager) removeFile(number int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.files {
		if f.number == number {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return
		}
	}
}
