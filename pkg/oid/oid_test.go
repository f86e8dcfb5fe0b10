package oid_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nebulastore/store/pkg/oid"
	"github.com/nebulastore/store/pkg/types"
)

func TestNewAllocatorStartsAfterHighWaterMark(t *testing.T) {
	a := oid.NewAllocator(types.OID(41))
	assert.Equal(t, types.OID(42), a.Next())
	assert.Equal(t, types.OID(43), a.Next())
}

func TestNewAllocatorEmptyDatabase(t *testing.T) {
	a := oid.NewAllocator(types.NilOID)
	assert.Equal(t, types.OID(1), a.Next())
}

func TestNextIsStrictlyMonotonicConcurrent(t *testing.T) {
	a := oid.NewAllocator(types.NilOID)
	const n = 1000
	seen := make(chan types.OID, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- a.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[types.OID]bool, n)
	for v := range seen {
		assert.False(t, unique[v], "OID %d allocated twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
}

func TestRestoreNeverLowersMark(t *testing.T) {
	a := oid.NewAllocator(types.OID(100))
	a.Restore(types.OID(10))
	assert.Equal(t, types.OID(101), a.Next())
}

func TestRestoreRaisesMark(t *testing.T) {
	a := oid.NewAllocator(types.OID(1))
	a.Restore(types.OID(99))
	assert.Equal(t, types.OID(100), a.Next())
}
