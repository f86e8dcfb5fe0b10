package storagemgr

import (
	"context"

	gojson "github.com/goccy/go-json"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/types"
)

// persistedRoot is the on-disk shape of rootsFilePath, mirroring
// pkg/typedict's single-JSON-file persistence convention.
type persistedRoot struct {
	RootOID types.OID `json:"root_oid"`
}

func loadRoot(ctx context.Context, conn blobstore.Connector, path string) (types.OID, error) {
	exists, err := conn.FileExists(ctx, path)
	if err != nil {
		return types.NilOID, err
	}
	if !exists {
		return types.NilOID, nil
	}

	size, err := conn.FileSize(ctx, path)
	if err != nil {
		return types.NilOID, err
	}
	data, err := conn.ReadRange(ctx, path, 0, size)
	if err != nil {
		return types.NilOID, err
	}

	var persisted persistedRoot
	if err := gojson.Unmarshal(data, &persisted); err != nil {
		return types.NilOID, err
	}
	return persisted.RootOID, nil
}

func persistRoot(ctx context.Context, conn blobstore.Connector, path string, root types.OID) error {
	data, err := gojson.Marshal(persistedRoot{RootOID: root})
	if err != nil {
		return err
	}

	exists, err := conn.FileExists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		if err := conn.Delete(ctx, path); err != nil {
			return err
		}
	}
	if err := conn.CreateFile(ctx, path); err != nil {
		return err
	}
	_, err = conn.Append(ctx, path, data)
	return err
}

// Root returns the currently-stored root entity's payload, or (nil, false)
// if no root has been set yet. It is the spec's root() -> entity?, narrowed
// to the raw byte record since object deserialization is an external
// collaborator (see SPEC_FULL.md §1).
func (m *Manager) Root(ctx context.Context) ([]byte, bool, error) {
	m.rootMu.RLock()
	root := m.root
	m.rootMu.RUnlock()

	if root == types.NilOID {
		return nil, false, nil
	}

	payloads, err := m.channels.Load(ctx, []types.OID{root})
	if err != nil {
		return nil, false, err
	}
	payload, ok := payloads[root]
	return payload, ok, nil
}

// SetRoot points the root pointer at an already-stored OID and persists it,
// without storing anything new — the spec's set_root(obj) narrowed to the
// identifier of an object the caller has already committed via CreateStorer.
func (m *Manager) SetRoot(ctx context.Context, root types.OID) error {
	if !m.started {
		return types.NewError(types.ErrKindNotRunning, "storagemgr.SetRoot", errNotOpen)
	}

	if err := persistRoot(ctx, m.conn, rootsFilePath, root); err != nil {
		return types.NewError(types.ErrKindIOWrite, "storagemgr.SetRoot", err)
	}

	var roots []types.OID
	if root != types.NilOID {
		roots = append(roots, root)
	}
	if err := m.channels.SetRoots(ctx, roots); err != nil {
		return err
	}

	m.rootMu.Lock()
	m.root = root
	m.rootMu.Unlock()
	return nil
}

// StoreRoot stores one entity (tid, payload) through a fresh Storer, sets it
// as the root, persists the root pointer, and returns its OID — the spec's
// store_root() -> oid, for the common case of a single-entity root with no
// other entities in the same commit. Callers building a larger object graph
// should use CreateStorer directly and call SetRoot once the graph is
// committed.
func (m *Manager) StoreRoot(ctx context.Context, tid types.TID, payload []byte) (types.OID, error) {
	storer := m.CreateStorer()
	rootOID := storer.Stage(tid, payload)

	if _, err := storer.Commit(ctx); err != nil {
		return types.NilOID, err
	}

	if err := m.SetRoot(ctx, rootOID); err != nil {
		return types.NilOID, err
	}

	return rootOID, nil
}
