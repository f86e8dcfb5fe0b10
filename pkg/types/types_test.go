package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/types"
)

func TestColorString(t *testing.T) {
	assert.Equal(t, "white", types.White.String())
	assert.Equal(t, "gray", types.Gray.String())
	assert.Equal(t, "black", types.Black.String())
	assert.Equal(t, "unknown", types.Color(99).String())
}

func TestNilOIDIsZero(t *testing.T) {
	assert.Equal(t, types.OID(0), types.NilOID)
}

func TestHashOIDIsStable(t *testing.T) {
	a := types.HashOID(types.OID(42))
	b := types.HashOID(types.OID(42))
	assert.Equal(t, a, b)

	c := types.HashOID(types.OID(43))
	assert.NotEqual(t, a, c)
}

func TestHashTIDIsStable(t *testing.T) {
	a := types.HashTID(types.TIDObject)
	b := types.HashTID(types.TIDObject)
	assert.Equal(t, a, b)
}

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := types.NewError(types.ErrKindIOWrite, "datafile.StoreChunks", cause)

	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindIOWrite))
	assert.False(t, types.IsKind(err, types.ErrKindIORead))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "io-write")
	assert.Contains(t, err.Error(), "datafile.StoreChunks")
}

func TestStorageErrorWithoutCause(t *testing.T) {
	err := types.NewError(types.ErrKindNotRunning, "storagemgr.Store", nil)
	assert.Nil(t, err.Unwrap())
	assert.Contains(t, err.Error(), "not-running")
}
