package datafile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/types"
)

func newTestManager(t *testing.T, maxSize int64) *datafile.Manager {
	t.Helper()
	conn, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	m := datafile.New(conn, datafile.Config{
		Channel:         0,
		ChannelDir:      "channel_0",
		MinFileSize:     0,
		MaxFileSize:     maxSize,
		MinimumUseRatio: 0.5,
	})
	_, err = m.Initialize(context.Background(), time.Unix(0, 0), nil)
	require.NoError(t, err)
	return m
}

func TestStoreChunksThenReadBytesRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 1<<20)

	positions, err := m.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(1), TID: types.TIDString, Payload: []byte("hello")},
		{OID: types.OID(2), TID: types.TIDString, Payload: []byte("world!")},
	})
	require.NoError(t, err)
	require.Len(t, positions, 2)

	data, err := m.ReadBytes(ctx, positions[0], 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = m.ReadBytes(ctx, positions[1], 6)
	require.NoError(t, err)
	assert.Equal(t, "world!", string(data))
}

func TestStoreChunksRollsOverWhenExceedingMaxSize(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 64)

	_, err := m.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(1), TID: types.TIDString, Payload: make([]byte, 40)},
	})
	require.NoError(t, err)

	positions, err := m.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(2), TID: types.TIDString, Payload: make([]byte, 40)},
	})
	require.NoError(t, err)
	// A 72-byte record (32-byte header + 40-byte payload) exceeds the 64-byte
	// maximum even on the empty head, so the first store already rolls to
	// file 2 and this second one rolls again, to file 3.
	assert.Equal(t, int64(3), positions[0].File)
}

func TestInitializeRecoversAfterRestart(t *testing.T) {
	ctx := context.Background()
	conn, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	cfg := datafile.Config{Channel: 0, ChannelDir: "channel_0", MaxFileSize: 1 << 20, MinimumUseRatio: 0.5}

	m1 := datafile.New(conn, cfg)
	_, err = m1.Initialize(ctx, time.Unix(0, 0), nil)
	require.NoError(t, err)
	_, err = m1.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(7), TID: types.TIDString, Payload: []byte("persisted")},
	})
	require.NoError(t, err)

	m2 := datafile.New(conn, cfg)
	analysis, err := m2.Initialize(ctx, time.Unix(0, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, types.OID(7), analysis.HighestOID)
	assert.Equal(t, int64(1), analysis.EntityCount)
}

func TestIncrementalFileCleanupEvacuatesLiveRecords(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 64)

	_, err := m.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(1), TID: types.TIDString, Payload: make([]byte, 40)},
	})
	require.NoError(t, err)
	// force another rollover so the file holding oid 1 is no longer the head
	_, err = m.StoreChunks(ctx, []datafile.Chunk{
		{OID: types.OID(2), TID: types.TIDString, Payload: make([]byte, 40)},
	})
	require.NoError(t, err)

	relocated := make(map[types.OID]types.Position)
	isLive := func(oid types.OID) (types.TID, bool) {
		return types.TIDString, oid == types.OID(1)
	}
	relocate := func(oid types.OID, pos types.Position) { relocated[oid] = pos }

	done, err := m.IncrementalFileCleanup(ctx, time.Second, isLive, relocate)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, relocated, types.OID(1))
}
