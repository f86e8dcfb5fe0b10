// Package entitycache implements the per-channel OID → entity cache
// described by SPEC_FULL.md §4.4: put, get, load_payload, clear_payload,
// incremental_cache_check, validate_entities, plus the §4.4a/§4.4b
// additions (hash-bucket chain keyed by pkg/types.HashOID, and a
// hashicorp/golang-lru hot-path accelerator in front of load_payload).
//
// # Chains
//
// Every Entity participates in two intrusive, singly-linked chains held as
// OID fields directly on the struct (NextInType, NextInBucket); the third
// link field, NextInFile, is not set by any package. Put always appends to
// the tail of a type's chain and the head of a hash bucket's chain; GC
// sweep calls Detach to unlink an entity from both when it is collected.
//
// # Eviction
//
// The default Evaluator evicts a payload once its age exceeds a fixed
// timeout, or once its size-weighted age exceeds a threshold fraction of
// the cache's current byte count — large, stale payloads go first.
// IncrementalCacheCheck walks the cache from where the previous call left
// off (the cursor), bounded by a time budget, and reports whether it
// completed a full pass.
//
// # Integration points
//
//   - pkg/channel owns one Cache per channel and calls Put after every
//     store, Get/LoadPayload to serve loads.
//   - pkg/gc reads and sets Color directly during mark, and
//     calls Detach during sweep for every entry still white.
//   - pkg/datafile.Manager satisfies PayloadSource.
package entitycache
