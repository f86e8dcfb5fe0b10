package blobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/blobstore"
)

func TestLocalFSCreateFileAndAppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateFile(ctx, "channel-0/data-1.dat"))

	exists, err := fs.FileExists(ctx, "channel-0/data-1.dat")
	require.NoError(t, err)
	assert.True(t, exists)

	offset, err := fs.Append(ctx, "channel-0/data-1.dat", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	offset, err = fs.Append(ctx, "channel-0/data-1.dat", []byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), offset)

	size, err := fs.FileSize(ctx, "channel-0/data-1.dat")
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	data, err := fs.ReadRange(ctx, "channel-0/data-1.dat", 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestLocalFSFileExistsFalseForMissing(t *testing.T) {
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	exists, err := fs.FileExists(context.Background(), "nope.dat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalFSCreateFileFailsIfExists(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateFile(ctx, "f.dat"))
	err = fs.CreateFile(ctx, "f.dat")
	require.Error(t, err)
	assert.True(t, blobstore.IsKind(err, blobstore.ErrIO))
}

func TestLocalFSTruncate(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateFile(ctx, "f.dat"))
	_, err = fs.Append(ctx, "f.dat", []byte("0123456789"))
	require.NoError(t, err)

	require.NoError(t, fs.Truncate(ctx, "f.dat", 4))
	size, err := fs.FileSize(ctx, "f.dat")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)
}

func TestLocalFSMove(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateFile(ctx, "a/src.dat"))
	require.NoError(t, fs.Move(ctx, "a/src.dat", "b/dst.dat"))

	exists, err := fs.FileExists(ctx, "a/src.dat")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = fs.FileExists(ctx, "b/dst.dat")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalFSListChildren(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(ctx, "channel-0"))
	require.NoError(t, fs.CreateFile(ctx, "channel-0/a.dat"))
	require.NoError(t, fs.CreateFile(ctx, "channel-0/b.dat"))

	children, err := fs.ListChildren(ctx, "channel-0")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestLocalFSDelete(t *testing.T) {
	ctx := context.Background()
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.CreateFile(ctx, "f.dat"))
	require.NoError(t, fs.Delete(ctx, "f.dat"))

	exists, err := fs.FileExists(ctx, "f.dat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalFSAvailableBytesNonZero(t *testing.T) {
	fs, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	avail, err := fs.AvailableBytes()
	require.NoError(t, err)
	assert.Greater(t, avail, uint64(0))
}
