package metrics

import (
	"strconv"
	"time"
)

// ChannelSnapshot is one channel's instantaneous stats, as reported by a
// Source. It intentionally mirrors only what Collector needs to publish as
// gauges — it is not the storage manager's full statistics structure.
type ChannelSnapshot struct {
	Channel      int
	State        string
	CacheEntries int64
	CacheBytes   int64
}

// Source supplies the per-channel snapshots Collector publishes. No type in
// this module implements it (the storage manager has no ChannelSnapshots
// method); Collector depends only on this interface, so pkg/metrics has no
// import back onto pkg/storagemgr.
type Source interface {
	ChannelSnapshots() []ChannelSnapshot
}

// Collector periodically polls a Source and publishes its state as
// Prometheus gauges, the same poll-and-set shape the teacher used for
// cluster-wide node/service counts.
type Collector struct {
	source   Source
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector that samples source every interval.
func NewCollector(source Source, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector. It is safe to call at most once.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, snap := range c.source.ChannelSnapshots() {
		channel := strconv.Itoa(snap.Channel)
		CacheEntries.WithLabelValues(channel).Set(float64(snap.CacheEntries))
		CacheBytes.WithLabelValues(channel).Set(float64(snap.CacheBytes))
		ChannelState.WithLabelValues(channel, snap.State).Set(1)
	}
}
