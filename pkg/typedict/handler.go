package typedict

import "github.com/nebulastore/store/pkg/types"

// RefFunc is called once per non-null reference OID a Handler finds while
// walking an entity record. Null references (OID 0) are never reported.
type RefFunc func(oid types.OID)

// Handler knows how to walk the reference offsets declared by one type
// definition's version over a raw entity record.
type Handler interface {
	// IterateReferences calls fn once per non-null reference OID found at
	// the byte offsets def.Members declares.
	IterateReferences(def types.TypeDefinition, record []byte, fn RefFunc) error
}

// MemberOffsetHandler is the default Handler: it walks def.Members, and for
// every member with IsReference set, reads an 8-byte little-endian OID at
// ByteOffset and reports it via fn unless it is types.NilOID.
type MemberOffsetHandler struct{}

func (MemberOffsetHandler) IterateReferences(def types.TypeDefinition, record []byte, fn RefFunc) error {
	for _, m := range def.Members {
		if !m.IsReference {
			continue
		}
		if m.ByteOffset < 0 || m.ByteOffset+8 > int64(len(record)) {
			return errLengthOutOfRange
		}
		oid := decodeOID(record[m.ByteOffset : m.ByteOffset+8])
		if oid == types.NilOID {
			continue
		}
		fn(oid)
	}
	return nil
}

func decodeOID(b []byte) types.OID {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return types.OID(v)
}
