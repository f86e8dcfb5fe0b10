package types

import "time"

// OID is a monotonically increasing object identifier, unique within a
// database for its entire lifetime. Zero is reserved for "null reference".
type OID uint64

// NilOID is the reserved null-reference value.
const NilOID OID = 0

// TID identifies a type definition. 1..999 are reserved for built-in
// primitive types; user types start at 1000.
type TID int64

// FirstUserTID is the first type id available to user-registered types.
const FirstUserTID TID = 1000

// Built-in primitive type ids, fixed for the lifetime of the format.
const (
	TIDObject TID = iota + 1
	TIDString
	TIDInt8
	TIDInt16
	TIDInt32
	TIDInt64
	TIDUint8
	TIDUint16
	TIDUint32
	TIDUint64
	TIDBool
	TIDByte
	TIDFloat32
	TIDFloat64
	TIDDecimal
	TIDDateTime
	TIDGUID
	TIDPrimitiveArray
)

// Position locates an entity record on disk.
type Position struct {
	Channel int
	File    int64
	Offset  int64
}

// Member describes one field of a type definition.
type Member struct {
	Name             string
	DeclaredType     string
	ReferencedTID    TID // 0 if this member does not reference another entity
	IsReference      bool
	IsVariableLength bool
	ByteOffset       int64
	ByteLength       int64
}

// TypeDefinition is the immutable descriptor for one version of a type.
type TypeDefinition struct {
	TID               TID
	Name              string
	Version           int
	IsPrimitive       bool
	HasPersistedRefs  bool
	HasVariableLength bool
	MinLength         int64
	MaxLength         int64
	Members           []Member
	CreatedAt         time.Time
	ModifiedAt        time.Time
}

// Lineage is the ordered history of versions sharing one type name.
type Lineage struct {
	TypeName        string
	CurrentTypeName string
	VersionTIDs     []TID
}

// Color is the tri-color mark used by the garbage collector.
type Color uint8

const (
	White Color = iota
	Gray
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// Entity is the per-object persisted record, the unit of persistence and
// caching. The three chain fields are intrusive linked-list handles: they
// hold the OID of the neighboring entity in that chain, 0 meaning "none".
// Chains are walked through the owning EntityCache, which is the only
// component allowed to mutate them.
type Entity struct {
	OID      OID
	TID      TID
	Length   int64
	Position Position

	LastTouched time.Time
	Payload     []byte // nil when evicted; on-disk record is unaffected

	Color Color

	// Intrusive chain links, owned by the entity cache.
	NextInFile   OID
	NextInType   OID
	NextInBucket OID

	// HasRefCache caches whether the reference iterator has already run for
	// the current payload; see SPEC_FULL.md §3 supplement.
	HasRefCache bool
	RefOIDCache []OID
}

// ChannelState is the storage channel worker's lifecycle state.
type ChannelState string

const (
	ChannelStopped  ChannelState = "stopped"
	ChannelStarting ChannelState = "starting"
	ChannelRunning  ChannelState = "running"
	ChannelStopping ChannelState = "stopping"
	ChannelError    ChannelState = "error"
)

// IDAnalysis summarizes a scan of on-disk or in-memory entities, used both
// by data-file-manager startup scans and by entity-cache validation.
type IDAnalysis struct {
	HighestOID  OID
	HighestTID  TID
	EntityCount int64
}

// DistributionStrategy selects which channel owns a newly stored entity.
type DistributionStrategy string

const (
	StrategyRoundRobin       DistributionStrategy = "round-robin"
	StrategyLeastLoaded      DistributionStrategy = "least-loaded"
	StrategyHashByType       DistributionStrategy = "hash-by-type"
	StrategyHashByOID        DistributionStrategy = "hash-by-object-id"
	StrategyWeightedCapacity DistributionStrategy = "weighted-capacity"
)
