// Package channel implements the storage channel worker loop described by
// SPEC_FULL.md §4.6: a single goroutine bound to one channel index, owning
// that channel's data file manager, entity cache, and garbage collector,
// processing a FIFO command queue one command at a time.
//
// Grounded on the teacher's pkg/worker/worker.go goroutine-plus-channel
// shape (a long-lived loop reading off a stopCh-guarded channel) and
// pkg/worker/health_monitor.go's ticker-driven periodic check, generalized
// from "execute container tasks" to "execute store/load/housekeeping
// commands against one partition of the object graph".
//
// # Command queue
//
// Every public method (StoreEntities, LoadByOIDs, ...) builds a closure,
// submits it to the worker goroutine over a buffered channel, and blocks
// on a per-call response channel. This keeps the queue a single generic
// type (so adding a command kind never touches the loop itself) while
// still tagging every command with the named kind from SPEC_FULL.md §4.6
// for logging and metrics.
//
// # State machine
//
// States are {stopped, starting, running, stopping, error}, matching
// SPEC_FULL.md §4.6 exactly. Start and Stop drive the transitions; a
// consistency failure (storage-consistency, invalid-entity-length,
// type-handler-consistency) returned by a command's closure moves the
// channel from running to error, while I/O errors are returned to the
// caller without a state change. A channel in the error state refuses
// further commands, and neither Start nor Stop accepts it.
//
// # Startup recovery
//
// Start calls datafile.Manager.Initialize with an InventoryFunc that
// validates every on-disk record against the type dictionary and seeds
// the entity cache (Put + Position + Length, colored black — a persisted
// record is reachable by construction until the next GC cycle says
// otherwise), reproducing the channel's pre-shutdown cache index without
// a second pass over the data files.
package channel
