/*
Package metrics defines and registers the engine's Prometheus metrics.

This package instruments channel throughput, garbage collection, the entity
cache, the data file manager, the housekeeping scheduler, and the object id
allocator. Per this repository's scope, it only emits raw counters, gauges,
and histograms — it does not ship an HTTP scrape endpoint, a derived SLO, or
an alerting rule; wiring the default Prometheus registry to a scrape server
is the host application's decision, not this library's.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                  │          │
	│  │  Channel: store count/bytes, state          │          │
	│  │  GC: cycles, mark/sweep duration, freed      │          │
	│  │  Cache: entries, bytes, evictions, hot-path  │          │
	│  │  Data file: cleanup evacuations, rollovers   │          │
	│  │  Housekeeping: budget, cycle count           │          │
	│  │  OID allocator: allocations                 │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │             Collector                        │          │
	│  │  - Polls a Source (the storage manager)      │          │
	│  │  - Publishes channel-level gauges on a timer │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

Channel:
  - nebulastore_channel_store_total{channel} (counter)
  - nebulastore_channel_store_bytes_total{channel} (counter)
  - nebulastore_channel_state{channel,state} (gauge, 1 for the current state)

Garbage collector:
  - nebulastore_gc_cycles_total (counter)
  - nebulastore_gc_mark_duration_seconds (histogram)
  - nebulastore_gc_sweep_duration_seconds (histogram)
  - nebulastore_gc_sweep_freed_bytes_total (counter)
  - nebulastore_gc_sweep_freed_entities_total (counter)

Entity cache:
  - nebulastore_cache_entries{channel} (gauge)
  - nebulastore_cache_bytes{channel} (gauge)
  - nebulastore_cache_evictions_total{channel} (counter)
  - nebulastore_cache_hotpath_hits_total / _misses_total (counters)

Data file manager:
  - nebulastore_file_cleanup_evacuated_total{channel} (counter)
  - nebulastore_file_rollover_total{channel} (counter)

Housekeeping:
  - nebulastore_housekeeping_budget_ns (gauge)
  - nebulastore_housekeeping_cycles_total (counter)

Object id allocator:
  - nebulastore_oid_allocated_total (counter)

Type dictionary:
  - nebulastore_typedict_registrations_total (counter)

# Usage

	import "github.com/nebulastore/store/pkg/metrics"

	metrics.ChannelStoreTotal.WithLabelValues("3").Inc()

	timer := metrics.NewTimer()
	// ... run mark phase ...
	timer.ObserveDuration(metrics.GCMarkDuration)

Collector polls a Source (any type with a ChannelSnapshots method;
*storagemgr.Manager has none) on an interval and republishes per-channel
cache gauges, the same poll-and-set shape the teacher used for
cluster-wide node counts:

	collector := metrics.NewCollector(source, 15*time.Second)
	collector.Start()
	defer collector.Stop()

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate names
  - No runtime registration required by callers

Label Discipline:
  - Labels are bounded (channel index, lifecycle state) — never an OID or a
    timestamp, which would make cardinality unbounded

Timer Pattern:
  - NewTimer() at operation start, ObserveDuration/ObserveDurationVec at the end

# Integration Points

  - pkg/channel: increments store counters, sets channel state gauge
  - pkg/gc: times mark/sweep phases, increments freed counters
  - pkg/entitycache: updates cache gauges and hot-path hit/miss counters
  - pkg/datafile: increments cleanup/rollover counters
  - pkg/housekeeping: sets the adaptive budget gauge, increments cycle counter
  - pkg/oid: increments the allocation counter
  - pkg/storagemgr: does not implement Collector's Source interface
*/
package metrics
