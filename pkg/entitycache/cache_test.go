package entitycache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/entitycache"
	"github.com/nebulastore/store/pkg/types"
)

type fakeSource struct {
	data map[types.OID][]byte
	hits int
}

func (f *fakeSource) ReadBytes(_ context.Context, pos types.Position, length int64) ([]byte, error) {
	f.hits++
	return f.data[types.OID(pos.Offset)], nil
}

func newTestCache(t *testing.T, source entitycache.PayloadSource) *entitycache.Cache {
	t.Helper()
	c, err := entitycache.New(source, entitycache.Config{Channel: 0})
	require.NoError(t, err)
	return c
}

func TestPutIsIdempotent(t *testing.T) {
	c := newTestCache(t, &fakeSource{})
	e1 := c.Put(types.OID(1), types.TIDString)
	e2 := c.Put(types.OID(1), types.TIDString)
	assert.Same(t, e1, e2)
	assert.Equal(t, int64(1), c.EntityCount())
}

func TestPutAppendsToTypeChainTail(t *testing.T) {
	c := newTestCache(t, &fakeSource{})
	c.Put(types.OID(1), types.TIDString)
	c.Put(types.OID(2), types.TIDString)
	c.Put(types.OID(3), types.TIDString)

	chain := c.TypeChain(types.TIDString)
	assert.Equal(t, []types.OID{1, 2, 3}, chain)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	c := newTestCache(t, &fakeSource{})
	_, ok := c.Get(types.OID(42))
	assert.False(t, ok)
}

func TestLoadPayloadThenClearPayload(t *testing.T) {
	source := &fakeSource{data: map[types.OID][]byte{5: []byte("payload-bytes")}}
	c := newTestCache(t, source)

	e := c.Put(types.OID(5), types.TIDString)
	e.Position = types.Position{Offset: 5}

	require.NoError(t, c.LoadPayload(context.Background(), e, 13))
	assert.Equal(t, "payload-bytes", string(e.Payload))
	assert.Equal(t, int64(13), c.CacheBytes())

	freed := c.ClearPayload(e)
	assert.Equal(t, int64(13), freed)
	assert.Nil(t, e.Payload)
	assert.Equal(t, int64(0), c.CacheBytes())
}

func TestLoadPayloadAfterClearPayloadRereadsSource(t *testing.T) {
	source := &fakeSource{data: map[types.OID][]byte{7: []byte("cached")}}
	c := newTestCache(t, source)

	e := c.Put(types.OID(7), types.TIDString)
	e.Position = types.Position{Offset: 7}

	require.NoError(t, c.LoadPayload(context.Background(), e, 6))
	c.ClearPayload(e)
	require.NoError(t, c.LoadPayload(context.Background(), e, 6))

	// ClearPayload also drops the hot-path entry, so the reload goes back
	// to the source.
	assert.Equal(t, 2, source.hits)
}

func TestIncrementalCacheCheckEvictsStalePayloads(t *testing.T) {
	source := &fakeSource{data: map[types.OID][]byte{1: []byte("x")}}
	c := newTestCache(t, source)

	e := c.Put(types.OID(1), types.TIDString)
	e.Position = types.Position{Offset: 1}
	require.NoError(t, c.LoadPayload(context.Background(), e, 1))
	e.LastTouched = time.Now().Add(-time.Hour)

	alwaysEvict := evictAlways{}
	done := c.IncrementalCacheCheck(time.Second, alwaysEvict)
	assert.True(t, done)
	assert.Nil(t, e.Payload)
}

type evictAlways struct{}

func (evictAlways) ShouldEvict(time.Time, time.Time, int64, int64) bool { return true }

func TestValidateEntitiesSummarizesHighWaterMarks(t *testing.T) {
	c := newTestCache(t, &fakeSource{})
	c.Put(types.OID(3), types.TID(10))
	c.Put(types.OID(9), types.TID(20))

	analysis := c.ValidateEntities()
	assert.Equal(t, types.OID(9), analysis.HighestOID)
	assert.Equal(t, types.TID(20), analysis.HighestTID)
	assert.Equal(t, int64(2), analysis.EntityCount)
}

func TestDetachRemovesFromChainAndMap(t *testing.T) {
	c := newTestCache(t, &fakeSource{})
	c.Put(types.OID(1), types.TIDString)
	c.Put(types.OID(2), types.TIDString)
	c.Put(types.OID(3), types.TIDString)

	c.Detach(types.OID(2))

	_, ok := c.Get(types.OID(2))
	assert.False(t, ok)
	assert.Equal(t, []types.OID{1, 3}, c.TypeChain(types.TIDString))
	assert.Equal(t, int64(2), c.EntityCount())
}

func TestDefaultEvaluatorEvictsOnAge(t *testing.T) {
	e := entitycache.DefaultEvaluator{TimeoutMS: 1000, Threshold: 1.0}
	now := time.Now()
	assert.True(t, e.ShouldEvict(now, now.Add(-2*time.Second), 10, 1000))
	assert.False(t, e.ShouldEvict(now, now.Add(-100*time.Millisecond), 10, 1000))
}
