// Package channelmgr owns the fixed array of storage channels: it assigns
// each newly stored entity to a channel via a configurable distribution
// strategy, implements gc.Router so a channel's mark phase can hand a
// foreign reference to its owning channel, and aggregates the per-channel
// GC cycle and housekeeping passes into whole-database operations.
//
// Grounded on the teacher's pkg/scheduler/scheduler.go: selectNode's
// "count existing assignments per candidate, pick the minimum" shape is
// the direct ancestor of the least-loaded and weighted-capacity
// strategies below, generalized from "containers per node" to "entities
// per channel". The owner index persisted in Manager plays the role the
// teacher's containerCounts map plays, but built once at startup from
// each channel's cache instead of recomputed every scheduling tick,
// since channel ownership never changes once assigned.
package channelmgr
