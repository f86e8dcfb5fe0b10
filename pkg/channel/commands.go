package channel

import (
	"context"
	"errors"
	"time"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/types"
)

// ErrImportNotImplemented is returned by ImportData: restoring a backup
// archive is explicitly out of scope for this implementation
// (SPEC_FULL.md §4.9a); the command exists so the channel's command
// surface matches SPEC_FULL.md §4.6 exactly, with a clear placeholder
// contract instead of a silent gap.
var ErrImportNotImplemented = errors.New("channel: import-data is not implemented; restoring a backup is out of scope")

// StoreEntities appends chunk to the channel's head file, puts each
// resulting entity into the cache (position, length, color black), and
// appends a store entry to the transaction log. It registers a
// pending-store signal with the mark monitor for the duration of the
// call so a concurrent GC sweep cannot start while this store is in
// flight.
func (c *Channel) StoreEntities(ctx context.Context, ts time.Time, chunks []datafile.Chunk) ([]types.Position, error) {
	c.monitor.PendingStoreStart(c.index)
	defer c.monitor.PendingStoreEnd(c.index)

	v, err := c.enqueue(ctx, cmdStoreEntities, func() (any, error) {
		positions, err := c.files.StoreChunks(ctx, chunks)
		if err != nil {
			return nil, types.NewError(types.ErrKindIOWrite, "channel.StoreEntities", err)
		}
		for i, chunk := range chunks {
			e := c.cache.Put(chunk.OID, chunk.TID)
			e.Position = positions[i]
			e.Length = chunk.RecordLength()
			e.Color = types.Black
			e.HasRefCache = false
		}
		return positions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.Position), nil
}

// loadOIDs reads (from the hot-path accelerator or the backing data
// file, via entitycache.LoadPayload) the payload of every oid this
// channel's cache knows about, skipping any oid it doesn't own. It must
// only be called from within a queued command's closure.
func (c *Channel) loadOIDs(ctx context.Context, oids []types.OID) (map[types.OID][]byte, error) {
	buf := make(map[types.OID][]byte, len(oids))
	for _, oid := range oids {
		entity, ok := c.cache.Get(oid)
		if !ok {
			continue
		}
		if entity.Payload == nil {
			payloadLen := entity.Length - datafile.RecordHeaderSize
			if err := c.cache.LoadPayload(ctx, entity, payloadLen); err != nil {
				return nil, types.NewError(types.ErrKindIORead, "channel.loadOIDs", err)
			}
		}
		buf[oid] = entity.Payload
	}
	return buf, nil
}

// LoadByOIDs filters oids to those this channel owns and returns a
// buffer mapping each to its record payload. The buffer is allocated
// fresh per call, never shared across loads.
func (c *Channel) LoadByOIDs(ctx context.Context, oids []types.OID) (map[types.OID][]byte, error) {
	v, err := c.enqueue(ctx, cmdLoadByOIDs, func() (any, error) {
		return c.loadOIDs(ctx, oids)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[types.OID][]byte), nil
}

// LoadByTIDs returns the payload of every entity of the given type ids
// currently in this channel's cache, walking each type's chain.
func (c *Channel) LoadByTIDs(ctx context.Context, tids []types.TID) (map[types.OID][]byte, error) {
	v, err := c.enqueue(ctx, cmdLoadByTIDs, func() (any, error) {
		var oids []types.OID
		for _, tid := range tids {
			oids = append(oids, c.cache.TypeChain(tid)...)
		}
		return c.loadOIDs(ctx, oids)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[types.OID][]byte), nil
}

// LoadRoots returns the payload of this channel's share of the
// configured root set.
func (c *Channel) LoadRoots(ctx context.Context) (map[types.OID][]byte, error) {
	v, err := c.enqueue(ctx, cmdLoadRoots, func() (any, error) {
		return c.loadOIDs(ctx, c.cfg.Roots)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[types.OID][]byte), nil
}

// isLive reports whether oid is still present in this channel's cache —
// the liveness predicate IncrementalFileCleanup's evacuation pass uses to
// decide whether a record in a cleanup candidate file must be carried
// forward into the head file.
func (c *Channel) isLive(oid types.OID) (types.TID, bool) {
	e, ok := c.cache.Get(oid)
	if !ok {
		return 0, false
	}
	return e.TID, true
}

func (c *Channel) relocate(oid types.OID, newPos types.Position) {
	if e, ok := c.cache.Get(oid); ok {
		e.Position = newPos
	}
}

// IncrementalFileCleanup evacuates live records out of cleanup-candidate
// non-head files into the head file, deleting candidates once they reach
// zero live bytes, bounded by budget. It returns true once a full pass
// over every non-head file has completed.
func (c *Channel) IncrementalFileCleanup(ctx context.Context, budget time.Duration) (bool, error) {
	v, err := c.enqueue(ctx, cmdFileCleanup, func() (any, error) {
		done, err := c.files.IncrementalFileCleanup(ctx, budget, c.isLive, c.relocate)
		if err != nil {
			return done, types.NewError(types.ErrKindIOWrite, "channel.IncrementalFileCleanup", err)
		}
		return done, nil
	})
	if v == nil {
		return false, err
	}
	return v.(bool), err
}

// IncrementalCacheCheck walks the cache from its persisted cursor,
// evicting payloads the default (or configured) Evaluator says are stale,
// bounded by budget.
func (c *Channel) IncrementalCacheCheck(ctx context.Context, budget time.Duration) (bool, error) {
	v, err := c.enqueue(ctx, cmdCacheCheck, func() (any, error) {
		return c.cache.IncrementalCacheCheck(budget, nil), nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ExportData copies this channel's data files and transaction log into
// destDir through dest, for pkg/storagemgr's backup path.
func (c *Channel) ExportData(ctx context.Context, dest blobstore.Connector, destDir string) error {
	_, err := c.enqueue(ctx, cmdExportData, func() (any, error) {
		return nil, c.files.ExportTo(ctx, dest, destDir)
	})
	return err
}

// ImportData is the unimplemented inverse of ExportData; see
// ErrImportNotImplemented.
func (c *Channel) ImportData(ctx context.Context, src blobstore.Connector, srcDir string) error {
	_, err := c.enqueue(ctx, cmdImportData, func() (any, error) {
		return nil, ErrImportNotImplemented
	})
	return err
}
