package types

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// HashOID hashes an object id to a uniformly distributed uint64. It is the
// single code path shared by the entity cache's hash-bucket chain and the
// channel manager's hash-by-object-id distribution strategy, so that an
// entity's bucket within a channel and its channel assignment are derived
// the same way.
func HashOID(oid OID) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(oid))
	return xxhash.Sum64(buf[:])
}

// HashTID hashes a type id, used by the hash-by-type distribution strategy.
func HashTID(tid TID) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(tid))
	return xxhash.Sum64(buf[:])
}
