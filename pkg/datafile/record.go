package datafile

import (
	"encoding/binary"

	"github.com/nebulastore/store/pkg/types"
)

// recordHeaderSize is the fixed on-disk header preceding every entity
// record's payload: length | type_id | object_id | reserved, four
// little-endian int64 fields.
const recordHeaderSize = 32

// RecordHeaderSize is recordHeaderSize, exported so pkg/channel can derive
// an entity's payload length (entity.Length - RecordHeaderSize) from the
// full record length it stores after StoreChunks.
const RecordHeaderSize = recordHeaderSize

type recordHeader struct {
	Length   int64
	TypeID   int64
	ObjectID int64
	Reserved int64
}

func encodeHeader(h recordHeader) []byte {
	buf := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(h.Length))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.TypeID))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.ObjectID))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.Reserved))
	return buf
}

func decodeHeader(buf []byte) (recordHeader, error) {
	if len(buf) < recordHeaderSize {
		return recordHeader{}, errTruncatedHeader
	}
	return recordHeader{
		Length:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		TypeID:   int64(binary.LittleEndian.Uint64(buf[8:16])),
		ObjectID: int64(binary.LittleEndian.Uint64(buf[16:24])),
		Reserved: int64(binary.LittleEndian.Uint64(buf[24:32])),
	}, nil
}

// Chunk is one entity record submitted to StoreChunks.
type Chunk struct {
	OID     types.OID
	TID     types.TID
	Payload []byte
}

func (c Chunk) recordLength() int64 {
	return recordHeaderSize + int64(len(c.Payload))
}

// RecordLength returns the full on-disk record length (header + payload)
// this chunk will occupy once stored; pkg/channel uses it to set an
// entity's Length so it matches exactly what the file's live-byte counter
// tracks.
func (c Chunk) RecordLength() int64 {
	return c.recordLength()
}
