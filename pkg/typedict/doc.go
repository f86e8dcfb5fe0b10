// Package typedict implements the type id ↔ type definition registry:
// register_type, type_id, type_of, definition, lineage, handler,
// validate_entity, save, load.
//
// # Registration rules
//
// The first RegisterType call for a type name assigns the next free TID;
// built-ins (types.TIDObject..types.TIDPrimitiveArray) are pre-registered
// by New. A structurally identical re-registration is a no-op that returns
// the existing TID. A structurally different definition for an existing
// name appends a new version to that name's Lineage, provided the new
// version's Version field is strictly greater than the latest and its
// IsPrimitive flag matches — anything else is rejected.
//
// # Persistence
//
// Save/Load serialize the whole dictionary — every TypeDefinition and
// every Lineage — to a single JSON file via github.com/goccy/go-json,
// through a blobstore.Connector so the format works identically against
// local disk or a remote object store. Load recomputes next_tid as
// max(all_tids)+1, per the restorability rule.
//
// # Reference iteration
//
// A Handler walks one type version's byte record and reports every
// non-null reference OID it finds. MemberOffsetHandler, the default,
// reads an 8-byte little-endian OID at each reference member's declared
// ByteOffset; a type with a custom layout can supply its own Handler at
// registration time.
//
// # Integration points
//
//   - pkg/channel calls ValidateEntity for every (length, tid, oid)
//     triple the data file manager's startup scan hands its inventory
//     callback.
//   - pkg/gc calls Handler(tid) during mark to iterate references.
//   - pkg/storagemgr owns the Dictionary's lifetime and calls Load at
//     startup and Save at Shutdown (and into the staging area of
//     CreateBackup); registering a type does not save.
package typedict
