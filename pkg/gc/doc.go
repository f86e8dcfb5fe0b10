// Package gc implements the per-channel tri-color mark-and-sweep garbage
// collector and the MarkMonitor that coordinates sweep timing across
// channels, matching SPEC_FULL.md §4.5.
//
// # Mark phase
//
// BeginCycle resets every cached entity to white except the channel's
// share of the root set, which starts gray and seeds the mark queue. Mark
// drains the queue: an entity not yet black (white, or a gray root) turns
// gray, its outbound references are
// iterated through the type dictionary's Handler and routed — to this
// channel's own queue if locally owned, otherwise to the owning channel via
// Router — then the entity turns black. Mark yields when its time budget
// is spent, returning false so the caller can reschedule it; it only acks
// MarkMonitor.SetMarkingComplete once its queue is fully drained.
//
// # Pending-store barrier
//
// A channel with a store in flight registers it with the MarkMonitor via
// PendingStoreStart/PendingStoreEnd (wired by pkg/channel around its store
// path); SweepAllowed refuses to green-light sweep anywhere while any
// channel has one outstanding, independent of marking state.
//
// # Sweep phase
//
// Sweep is a no-op until SweepAllowed reports true for the current
// generation. It then walks the cache once, collects every entity still
// white, detaches each one, and tells the data-file manager to subtract the
// freed bytes from the owning file's live-byte counter.
//
// # Fatal conditions
//
// Calling Sweep before this channel's own Mark has drained
// (marking_complete false) is treated as a bug and returns an error
// without sweeping. A reference to an OID absent from the cache during
// marking is a consistency error, not a skip. A root that is missing or
// not black after sweep fails the post-sweep consistency check.
package gc
