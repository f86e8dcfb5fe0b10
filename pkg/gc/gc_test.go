package gc_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/entitycache"
	"github.com/nebulastore/store/pkg/gc"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

// fakeSource is used by the tests that attach payloads up front via
// putWithPayload, bypassing Cache.LoadPayload entirely; it is never read
// from. TestMarkDiscoversReferencesByPagingInEvictedPayloads below uses
// diskBackedSource instead, which actually serves bytes.
type fakeSource struct{}

func (s *fakeSource) ReadBytes(_ context.Context, _ types.Position, _ int64) ([]byte, error) {
	return nil, nil
}

type singleChannelRouter struct {
	channel int
	routed  []types.OID
}

func (r *singleChannelRouter) OwnerChannel(types.OID) int { return r.channel }

func (r *singleChannelRouter) RouteToChannel(_ int, oid types.OID) {
	r.routed = append(r.routed, oid)
}

type fakeLiveFileUpdater struct {
	deltas map[int64]int64
}

func (u *fakeLiveFileUpdater) UpdateLiveBytes(fileNumber int64, delta int64) {
	if u.deltas == nil {
		u.deltas = make(map[int64]int64)
	}
	u.deltas[fileNumber] += delta
}

func refPayload(target types.OID) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(target))
	return buf
}

func newNodeDict(t *testing.T) (*typedict.Dictionary, types.TID) {
	t.Helper()
	dict := typedict.New()
	tid, err := dict.RegisterType(types.TypeDefinition{
		Name:             "node",
		Version:          1,
		MinLength:        8,
		MaxLength:        8,
		HasPersistedRefs: true,
		Members: []types.Member{
			{Name: "next", IsReference: true, ByteOffset: 0, ByteLength: 8},
		},
	}, typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	return dict, tid
}

func putWithPayload(cache *entitycache.Cache, oid types.OID, tid types.TID, payload []byte) *types.Entity {
	e := cache.Put(oid, tid)
	e.Payload = payload
	e.Length = int64(len(payload))
	e.Position = types.Position{Channel: 0, File: 1, Offset: 0}
	return e
}

func TestMarkAndSweepReclaimsUnreachableEntity(t *testing.T) {
	dict, tid := newNodeDict(t)

	cache, err := entitycache.New(&fakeSource{}, entitycache.Config{Channel: 0})
	require.NoError(t, err)

	putWithPayload(cache, types.OID(1), tid, refPayload(types.OID(2)))
	putWithPayload(cache, types.OID(2), tid, refPayload(types.NilOID))
	putWithPayload(cache, types.OID(3), tid, refPayload(types.NilOID)) // unreachable

	router := &singleChannelRouter{channel: 0}
	monitor := gc.NewMarkMonitor(1)
	files := &fakeLiveFileUpdater{}

	collector := gc.New(cache, dict, router, monitor, files, gc.Config{
		Channel: 0,
		Roots:   []types.OID{types.OID(1)},
	})

	collector.BeginCycle(monitor.BeginCycle())
	done, err := collector.Mark(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, done)

	freedEntities, freedBytes, err := collector.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, freedEntities)
	assert.Equal(t, int64(8), freedBytes)

	_, ok := cache.Get(types.OID(3))
	assert.False(t, ok)
	_, ok = cache.Get(types.OID(1))
	assert.True(t, ok)
	_, ok = cache.Get(types.OID(2))
	assert.True(t, ok)

	assert.Equal(t, int64(-8), files.deltas[1])
}

func TestMarkYieldsOnZeroBudget(t *testing.T) {
	dict, tid := newNodeDict(t)
	cache, err := entitycache.New(&fakeSource{}, entitycache.Config{Channel: 0})
	require.NoError(t, err)

	putWithPayload(cache, types.OID(1), tid, refPayload(types.OID(2)))
	putWithPayload(cache, types.OID(2), tid, refPayload(types.NilOID))

	router := &singleChannelRouter{channel: 0}
	monitor := gc.NewMarkMonitor(1)
	collector := gc.New(cache, dict, router, monitor, &fakeLiveFileUpdater{}, gc.Config{
		Channel: 0,
		Roots:   []types.OID{types.OID(1)},
	})

	collector.BeginCycle(monitor.BeginCycle())
	done, err := collector.Mark(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestSweepFailsWhenMarkingNeverRan(t *testing.T) {
	dict, _ := newNodeDict(t)
	cache, err := entitycache.New(&fakeSource{}, entitycache.Config{Channel: 0})
	require.NoError(t, err)

	router := &singleChannelRouter{channel: 0}
	monitor := gc.NewMarkMonitor(1)
	collector := gc.New(cache, dict, router, monitor, &fakeLiveFileUpdater{}, gc.Config{
		Channel: 0,
		Roots:   []types.OID{types.OID(1)},
	})

	_, _, err = collector.Sweep()
	assert.Error(t, err)
}

// diskBackedSource is a fakeSource that actually serves bytes, keyed by
// storage position, the way pkg/datafile.Manager does — used to exercise
// the integrated path where an entity is cached without its payload
// already attached (the shape StoreEntities and the startup inventory
// scan both produce) and Mark must page it in itself to find references.
type diskBackedSource struct {
	records map[types.Position][]byte
}

func (s *diskBackedSource) ReadBytes(_ context.Context, pos types.Position, length int64) ([]byte, error) {
	data, ok := s.records[pos]
	if !ok {
		return nil, errors.New("diskBackedSource: no record at position")
	}
	return data[:length], nil
}

// putWithoutPayload mimics how channel.StoreEntities and channel.inventory
// populate the cache: Put, then set Position/Length (Length being the full
// record length, header included), with Payload left nil. The bytes are
// only reachable through the source, not already resident on the entity.
func putWithoutPayload(cache *entitycache.Cache, source *diskBackedSource, oid types.OID, tid types.TID, payload []byte) *types.Entity {
	e := cache.Put(oid, tid)
	pos := types.Position{Channel: 0, File: 1, Offset: int64(oid) * 64}
	e.Position = pos
	e.Length = datafile.RecordHeaderSize + int64(len(payload))
	source.records[pos] = payload
	return e
}

func TestMarkDiscoversReferencesByPagingInEvictedPayloads(t *testing.T) {
	dict, tid := newNodeDict(t)
	source := &diskBackedSource{records: make(map[types.Position][]byte)}

	cache, err := entitycache.New(source, entitycache.Config{Channel: 0})
	require.NoError(t, err)

	// root -> A -> nil; B is stored but never referenced.
	putWithoutPayload(cache, source, types.OID(1), tid, refPayload(types.OID(2)))
	putWithoutPayload(cache, source, types.OID(2), tid, refPayload(types.NilOID))
	putWithoutPayload(cache, source, types.OID(3), tid, refPayload(types.NilOID))

	router := &singleChannelRouter{channel: 0}
	monitor := gc.NewMarkMonitor(1)
	files := &fakeLiveFileUpdater{}

	collector := gc.New(cache, dict, router, monitor, files, gc.Config{
		Channel: 0,
		Roots:   []types.OID{types.OID(1)},
	})

	collector.BeginCycle(monitor.BeginCycle())
	done, err := collector.Mark(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, done)

	freedEntities, freedBytes, err := collector.Sweep()
	require.NoError(t, err)
	// Without paging A's payload in from disk, Mark would discover no
	// references at all and sweep would reclaim A along with B. B's freed
	// bytes are its whole record: 32-byte header + 8-byte payload.
	assert.Equal(t, 1, freedEntities)
	assert.Equal(t, int64(40), freedBytes)

	_, ok := cache.Get(types.OID(1))
	assert.True(t, ok, "root must survive")
	_, ok = cache.Get(types.OID(2))
	assert.True(t, ok, "A is reachable through root and must survive")
	_, ok = cache.Get(types.OID(3))
	assert.False(t, ok, "B is never referenced and must be swept")
}

func TestSweepDeferredUntilMonitorAllowsIt(t *testing.T) {
	dict, tid := newNodeDict(t)
	cache, err := entitycache.New(&fakeSource{}, entitycache.Config{Channel: 0})
	require.NoError(t, err)

	putWithPayload(cache, types.OID(1), tid, refPayload(types.NilOID))

	router := &singleChannelRouter{channel: 0}
	// channelCount 2 means a second channel must ack before sweep proceeds.
	monitor := gc.NewMarkMonitor(2)
	collector := gc.New(cache, dict, router, monitor, &fakeLiveFileUpdater{}, gc.Config{
		Channel: 0,
		Roots:   []types.OID{types.OID(1)},
	})

	collector.BeginCycle(monitor.BeginCycle())
	done, err := collector.Mark(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, done)

	freedEntities, _, err := collector.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, freedEntities) // still waiting on channel 1's ack
}
