package storagemgr

import (
	"context"
	"time"

	"github.com/nebulastore/store/pkg/channelmgr"
	"github.com/nebulastore/store/pkg/types"
)

// Storer stages a batch of entity records — each already reduced to its
// type id and opaque byte payload by the external serializer named in
// SPEC_FULL.md §1 — and commits them to the channel array as one call.
// Staging an entity allocates its OID immediately (distribution strategies
// like hash-by-object-id and the owner index both need a real OID up
// front); Commit is what actually writes the staged chunks to disk.
//
// Construct a Storer with CreateStorer, Stage every entity in the commit,
// then Commit; after a successful Commit the same Storer can stage and
// commit another batch. It holds no lock of its own —
// concurrent Storers from different goroutines are safe, the same way two
// unrelated StoreEntities calls on different channels are safe.
type Storer struct {
	manager *Manager
	staged  []channelmgr.StoreRequest
}

// CreateStorer returns a fresh Storer bound to this manager's OID allocator
// and channel array, satisfying the spec's create_storer() -> storer.
func (m *Manager) CreateStorer() *Storer {
	return &Storer{manager: m}
}

// Stage allocates a new OID for one entity record and queues it for the
// next Commit, returning the OID immediately so the caller can wire it into
// other staged records' reference payloads before committing.
func (s *Storer) Stage(tid types.TID, payload []byte) types.OID {
	oid := s.manager.allocator.Next()
	s.staged = append(s.staged, channelmgr.StoreRequest{OID: oid, TID: tid, Payload: payload})
	return oid
}

// Commit distributes every staged entity across the channel array and
// writes it durably, returning one StoreResult per staged entity. The
// Storer may be reused for a further Stage/Commit round after a
// successful commit; a failed commit leaves staged entries queued for retry.
func (s *Storer) Commit(ctx context.Context) ([]channelmgr.StoreResult, error) {
	if !s.manager.started {
		return nil, types.NewError(types.ErrKindNotRunning, "storagemgr.Storer.Commit", errNotOpen)
	}
	if len(s.staged) == 0 {
		return nil, nil
	}

	results, err := s.manager.channels.Store(ctx, time.Now(), s.staged)
	if err != nil {
		return nil, err
	}

	s.staged = s.staged[:0]
	return results, nil
}
