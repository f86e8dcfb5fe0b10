package channel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/channel"
	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/gc"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

type singleChannelRouter struct{}

func (singleChannelRouter) OwnerChannel(types.OID) int                { return 0 }
func (singleChannelRouter) RouteToChannel(channelIndex int, _ types.OID) {}

func newTestChannel(t *testing.T, cfg channel.Config) *channel.Channel {
	t.Helper()
	conn, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	dict := typedict.New()
	monitor := gc.NewMarkMonitor(1)

	cfg.Channel = 0
	if cfg.ChannelDir == "" {
		cfg.ChannelDir = "channel_0"
	}
	if cfg.DataFileMaxSize == 0 {
		cfg.DataFileMaxSize = 1 << 20
	}
	if cfg.MinimumUseRatio == 0 {
		cfg.MinimumUseRatio = 0.5
	}

	ch, err := channel.New(conn, dict, singleChannelRouter{}, monitor, cfg)
	require.NoError(t, err)
	return ch
}

func TestChannelStartStopLifecycle(t *testing.T) {
	ch := newTestChannel(t, channel.Config{})

	ctx := context.Background()
	_, err := ch.Start(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, types.ChannelRunning, ch.State())

	// A second Start while running must be rejected, not silently re-run.
	_, err = ch.Start(ctx, time.Unix(0, 0))
	assert.Error(t, err)

	require.NoError(t, ch.Stop(ctx))
	assert.Equal(t, types.ChannelStopped, ch.State())
}

func TestChannelStoreAndLoadRoundTrip(t *testing.T) {
	ch := newTestChannel(t, channel.Config{})
	ctx := context.Background()

	_, err := ch.Start(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	defer ch.Stop(ctx)

	positions, err := ch.StoreEntities(ctx, time.Now(), []datafile.Chunk{
		{OID: types.OID(1), TID: types.TIDString, Payload: []byte("alice")},
	})
	require.NoError(t, err)
	require.Len(t, positions, 1)

	payloads, err := ch.LoadByOIDs(ctx, []types.OID{types.OID(1)})
	require.NoError(t, err)
	assert.Equal(t, "alice", string(payloads[types.OID(1)]))

	assert.EqualValues(t, 1, ch.EntityCount())
}

func TestChannelRejectsCommandsAfterStop(t *testing.T) {
	ch := newTestChannel(t, channel.Config{})
	ctx := context.Background()

	_, err := ch.Start(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	require.NoError(t, ch.Stop(ctx))

	_, err = ch.LoadByOIDs(ctx, []types.OID{types.OID(1)})
	assert.Error(t, err)
}

func TestChannelPingSucceedsWhileRunning(t *testing.T) {
	ch := newTestChannel(t, channel.Config{})
	ctx := context.Background()

	_, err := ch.Start(ctx, time.Unix(0, 0))
	require.NoError(t, err)
	defer ch.Stop(ctx)

	assert.NoError(t, ch.Ping(ctx))
}
