package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Channel metrics
	ChannelStoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulastore_channel_store_total",
			Help: "Total number of entities stored, by channel",
		},
		[]string{"channel"},
	)

	ChannelStoreBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulastore_channel_store_bytes_total",
			Help: "Total bytes of entity payload stored, by channel",
		},
		[]string{"channel"},
	)

	ChannelState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulastore_channel_state",
			Help: "Current lifecycle state of each channel (1 = current state, 0 otherwise)",
		},
		[]string{"channel", "state"},
	)

	// Garbage collector metrics
	GCCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_gc_cycles_total",
			Help: "Total number of mark-and-sweep cycles completed",
		},
	)

	GCMarkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nebulastore_gc_mark_duration_seconds",
			Help:    "Time taken by the mark phase of a GC cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GCSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nebulastore_gc_sweep_duration_seconds",
			Help:    "Time taken by the sweep phase of a GC cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GCSweepFreedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_gc_sweep_freed_bytes_total",
			Help: "Total bytes reclaimed by GC sweep phases",
		},
	)

	GCSweepFreedEntitiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_gc_sweep_freed_entities_total",
			Help: "Total entities reclaimed by GC sweep phases",
		},
	)

	// Entity cache metrics
	CacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulastore_cache_entries",
			Help: "Current number of entities held in the cache, by channel",
		},
		[]string{"channel"},
	)

	CacheBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulastore_cache_bytes",
			Help: "Current bytes of payload held in the cache, by channel",
		},
		[]string{"channel"},
	)

	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulastore_cache_evictions_total",
			Help: "Total number of payload evictions from the cache, by channel",
		},
		[]string{"channel"},
	)

	CacheHotPathHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_cache_hotpath_hits_total",
			Help: "Total number of hot-path accelerator hits on load_payload",
		},
	)

	CacheHotPathMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_cache_hotpath_misses_total",
			Help: "Total number of hot-path accelerator misses on load_payload",
		},
	)

	// Data file manager metrics
	FileCleanupEvacuatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulastore_file_cleanup_evacuated_total",
			Help: "Total number of live entities evacuated during incremental file cleanup, by channel",
		},
		[]string{"channel"},
	)

	FileRolloverTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulastore_file_rollover_total",
			Help: "Total number of data file rollovers, by channel",
		},
		[]string{"channel"},
	)

	// Housekeeping metrics
	HousekeepingBudgetNanos = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nebulastore_housekeeping_budget_ns",
			Help: "Current adaptive time budget per housekeeping cycle, in nanoseconds",
		},
	)

	HousekeepingCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_housekeeping_cycles_total",
			Help: "Total number of housekeeping cycles run",
		},
	)

	// Object id allocator metrics
	OIDAllocatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_oid_allocated_total",
			Help: "Total number of object ids allocated",
		},
	)

	// Type dictionary metrics
	TypeDictionaryRegistrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nebulastore_typedict_registrations_total",
			Help: "Total number of type registrations, including new versions from type evolution",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ChannelStoreTotal,
		ChannelStoreBytesTotal,
		ChannelState,
		GCCyclesTotal,
		GCMarkDuration,
		GCSweepDuration,
		GCSweepFreedBytesTotal,
		GCSweepFreedEntitiesTotal,
		CacheEntries,
		CacheBytes,
		CacheEvictionsTotal,
		CacheHotPathHitsTotal,
		CacheHotPathMissesTotal,
		FileCleanupEvacuatedTotal,
		FileRolloverTotal,
		HousekeepingBudgetNanos,
		HousekeepingCyclesTotal,
		OIDAllocatedTotal,
		TypeDictionaryRegistrationsTotal,
	)
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
