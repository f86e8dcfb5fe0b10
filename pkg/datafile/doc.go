// Package datafile implements the data file manager and transaction log
// for one storage channel: store_chunks, read_bytes,
// incremental_file_cleanup, initialize, matching SPEC_FULL.md §4.2.
//
// # On-disk formats
//
// A data file is a contiguous sequence of entity records, each a 32-byte
// header (length, type_id, object_id, reserved, all little-endian int64)
// followed by length-32 payload bytes. A transaction log entry is
// entry_kind (uint8) + timestamp_ms + file_number + offset + length, all
// int64 except the kind byte; entry_kind is one of create/store/transfer/
// delete/truncate.
//
// # Rollover and cleanup
//
// StoreChunks appends to the current head file, rolling over to a new
// file (number = previous + 1) when the batch would push the head past
// MaxFileSize. IncrementalFileCleanup walks non-head files from a
// persisted cursor, evacuating every still-live record in a candidate
// file into the head (via the same StoreChunks path, so the transferred
// record gets a fresh position and a transfer log entry) and deleting the
// candidate once it reaches zero live bytes. Liveness is supplied by the
// caller's LivenessFunc — this package holds no opinion on what "live"
// means, only where bytes live.
//
// # Recovery
//
// Initialize scans every file in file-number order, verifying each
// record's header and truncating a trailing partial record (the
// signature of a crash mid-append), then replays the transaction log
// from the given consistent-store timestamp forward. The replay does not
// alter the scan's result: a complete record with no matching store entry
// in the log is kept.
//
// # Integration points
//
//   - pkg/entitycache.PayloadSource is satisfied by *Manager's ReadBytes.
//   - pkg/channel owns a Manager per channel and supplies the
//     LivenessFunc/RelocateFunc pair cleanup needs from its entity cache.
package datafile
