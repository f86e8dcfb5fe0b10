/*
Package types defines the core data structures shared by every package in
this module: object and type identifiers, the on-disk entity record shape,
type-dictionary descriptors, and the small set of enums (tri-color mark,
channel lifecycle state, distribution strategy) that cut across package
boundaries.

# Architecture

This package has no dependencies on any other package in the module. Every
other package imports it; besides the standard library it imports only
github.com/cespare/xxhash/v2 (for HashOID/HashTID). That makes it the
natural home for:

  - Identifiers: OID (object id), TID (type id)
  - The persisted unit: Entity, Position
  - Type metadata: TypeDefinition, Member, Lineage
  - Cross-cutting enums: Color, ChannelState, DistributionStrategy
  - The error taxonomy: ErrorKind, StorageError

# Core Types

Identifiers:

  - OID: a monotonically increasing object identifier, unique for the
    lifetime of a database. NilOID (0) means "no reference".
  - TID: a type identifier. Values below FirstUserTID are reserved for
    built-in primitive types; user-registered types start at FirstUserTID.

Persistence:

  - Entity: the unit of persistence and caching — an OID, its TID, its
    on-disk Position, a LastTouched timestamp for cache eviction, an
    optional in-memory Payload, a GC Color, and the three intrusive chain
    links (NextInFile, NextInType, NextInBucket) that the entity cache uses
    to walk its indexes without a separate index structure.
  - Position: channel, file, and byte offset of one entity record on disk.

Type dictionary:

  - TypeDefinition: one immutable version of a registered type — its
    members, whether it is primitive, whether any member is a persisted
    reference, and its fixed or variable length bounds.
  - Member: one field of a TypeDefinition.
  - Lineage: the ordered version history for one type name, so that
    renaming or adding a field produces a new TypeDefinition without
    losing the ability to read entities written under an older version.

Cross-cutting enums:

  - Color: White, Gray, Black — the tri-color mark used by the garbage
    collector. White entities at sweep time are unreachable.
  - ChannelState: the storage channel worker's lifecycle — stopped,
    starting, running, stopping, error.
  - DistributionStrategy: how the channel manager picks a channel for a
    newly stored entity — round-robin, least-loaded, hash-by-type,
    hash-by-object-id, or weighted-capacity.
  - IDAnalysis: the result of scanning entities (on disk or in the cache)
    for the highest OID/TID seen and a total count, used both at startup
    recovery and by cache validation.

# Error taxonomy

StorageError wraps every failure this module returns in one of the kinds
listed in ErrorKind, matching the error categories named in this
repository's design: storage-initialization, invalid-entity-length,
type-handler-consistency, storage-consistency, io-read, io-write,
not-running, shutting-down, invalid-configuration. StorageError implements
Unwrap, so errors.Is/errors.As work against the wrapped cause as well as
against the StorageError itself.

# Thread Safety

Every type in this package is a plain value or pointer-to-struct with no
internal synchronization. Callers that share an *Entity across goroutines
(the entity cache does, deliberately) are responsible for the locking;
nothing here does it for you.
*/
package types
