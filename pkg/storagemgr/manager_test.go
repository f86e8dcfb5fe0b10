package storagemgr_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/config"
	"github.com/nebulastore/store/pkg/storagemgr"
	"github.com/nebulastore/store/pkg/types"
)

func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ChannelCount = 2
	cfg.StorageDir = t.TempDir()
	cfg.BackupDir = filepath.Join(cfg.StorageDir, "backup")
	return cfg
}

func TestStoreRootSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)

	rootOID, err := m.StoreRoot(ctx, types.TIDString, []byte("alice"))
	require.NoError(t, err)
	assert.NotEqual(t, types.NilOID, rootOID)

	payload, ok, err := m.Root(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", string(payload))

	assert.True(t, m.Shutdown(ctx))

	m2, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m2.Shutdown(ctx)

	payload2, ok2, err := m2.Root(ctx)
	require.NoError(t, err)
	require.True(t, ok2)
	assert.Equal(t, "alice", string(payload2))
}

func TestStorerStagesMultipleEntitiesInOneCommit(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	storer := m.CreateStorer()
	a := storer.Stage(types.TIDString, []byte("a"))
	b := storer.Stage(types.TIDString, []byte("b"))
	assert.NotEqual(t, a, b)

	results, err := storer.Commit(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFullGCReclaimsUnreachableEntities(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.ChannelCount = 1

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	storer := m.CreateStorer()
	orphan := storer.Stage(types.TIDString, []byte("orphan"))
	_, err = storer.Commit(ctx)
	require.NoError(t, err)
	_ = orphan

	root, err := m.StoreRoot(ctx, types.TIDString, []byte("root"))
	require.NoError(t, err)
	_ = root

	require.NoError(t, m.IssueFullGC(ctx))

	stats := m.Statistics()
	// Only the root remains reachable; the orphan staged before it was
	// never referenced by anything and must be swept.
	assert.EqualValues(t, 1, stats.EntityCount)
}

func TestStatisticsReportsChannelCount(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	stats := m.Statistics()
	assert.Equal(t, cfg.ChannelCount, stats.ChannelCount)
}

func TestStatisticsReportsMemoryCounters(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	stats := m.Statistics()
	// A running process always has some heap allocated; zero would mean
	// Statistics never read runtime.MemStats at all.
	assert.NotZero(t, stats.ProcessHeapBytes)
	// SystemAvailableBytes is best-effort (Linux-only, /proc/meminfo) so
	// only assert internal consistency: unknown implies zero, and on
	// Linux (where these tests run) it should be known and positive.
	if !stats.SystemMemoryKnown {
		assert.Zero(t, stats.SystemAvailableBytes)
	} else {
		assert.NotZero(t, stats.SystemAvailableBytes)
	}
}

func TestCreateBackupProducesAnArchiveFile(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	_, err = m.StoreRoot(ctx, types.TIDString, []byte("alice"))
	require.NoError(t, err)

	path, err := m.CreateBackup(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestHealthCheckersReturnOnePerChannel(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	m, err := storagemgr.Open(ctx, cfg)
	require.NoError(t, err)
	defer m.Shutdown(ctx)

	checkers := m.HealthCheckers(0)
	assert.GreaterOrEqual(t, len(checkers), cfg.ChannelCount)

	for _, c := range checkers {
		result := c.Check(ctx)
		assert.True(t, result.Healthy)
	}
}
