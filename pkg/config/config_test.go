package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/config"
	"github.com/nebulastore/store/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPowerOfTwoChannelCount(t *testing.T) {
	cfg := config.Default()
	cfg.ChannelCount = 3
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindInvalidConfig))
}

func TestValidateRejectsMinGEMax(t *testing.T) {
	cfg := config.Default()
	cfg.DataFileMinSize = cfg.DataFileMaxSize
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUseRatioOutOfRange(t *testing.T) {
	cfg := config.Default()
	cfg.MinimumUseRatio = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.DistributionStrategy = "made-up"
	assert.Error(t, cfg.Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel_count: 8\nstorage_dir: /tmp/nebulastore\n"), 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ChannelCount)
	assert.Equal(t, "/tmp/nebulastore", cfg.StorageDir)
	// Untouched fields keep their defaults.
	assert.Equal(t, config.Default().MinimumUseRatio, cfg.MinimumUseRatio)
}

func TestLoadFileRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel_count: 5\n"), 0o644))

	_, err := config.LoadFile(path)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindInvalidConfig))
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindStorageInit))
}
