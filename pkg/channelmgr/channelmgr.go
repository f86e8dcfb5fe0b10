package channelmgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/channel"
	"github.com/nebulastore/store/pkg/entitycache"
	"github.com/nebulastore/store/pkg/gc"
	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

// ChannelConfig is the per-channel slice of Config that varies only by
// index (directory and root share); everything else is shared across the
// whole array.
type ChannelConfig struct {
	DataFileMinSize int64
	DataFileMaxSize int64
	MinimumUseRatio float64

	CacheNumBuckets  uint64
	CacheHotPathSize int
	CacheEvaluator   entitycache.Evaluator

	QueueDepth int
}

// Config configures a Manager.
type Config struct {
	ChannelCount     int
	StorageDir       string
	ChannelDirPrefix string
	Strategy         types.DistributionStrategy
	Roots            []types.OID // the full database root set, before per-channel assignment
	Channel          ChannelConfig
}

// Manager owns the fixed channel array. Construct with New, then Start
// before issuing any store/load/GC/housekeeping call.
type Manager struct {
	cfg     Config
	conn    blobstore.Connector
	dict    *typedict.Dictionary
	monitor *gc.MarkMonitor

	channels []*channel.Channel

	ownerMu sync.RWMutex
	owner   map[types.OID]int // oid -> owning channel index, built at Start and kept current by Store

	rrCounter uint64 // atomic, round-robin cursor

	gcMu       sync.Mutex
	gcActive   bool
	generation int

	started bool
}

// New constructs a Manager and every channel it owns, wiring each
// channel's GC with this Manager as its Router. Call Start before use.
func New(conn blobstore.Connector, dict *typedict.Dictionary, cfg Config) (*Manager, error) {
	if cfg.ChannelCount <= 0 {
		return nil, types.NewError(types.ErrKindInvalidConfig, "channelmgr.New", errNoChannels)
	}

	m := &Manager{
		cfg:     cfg,
		conn:    conn,
		dict:    dict,
		monitor: gc.NewMarkMonitor(cfg.ChannelCount),
		owner:   make(map[types.OID]int),
	}

	rootsByChannel := assignRootsToChannels(cfg.Roots, cfg.ChannelCount)

	channels := make([]*channel.Channel, cfg.ChannelCount)
	for i := 0; i < cfg.ChannelCount; i++ {
		ch, err := channel.New(conn, dict, m, m.monitor, channel.Config{
			Channel:          i,
			ChannelDir:       fmt.Sprintf("%s/%s%d", cfg.StorageDir, cfg.ChannelDirPrefix, i),
			DataFileMinSize:  cfg.Channel.DataFileMinSize,
			DataFileMaxSize:  cfg.Channel.DataFileMaxSize,
			MinimumUseRatio:  cfg.Channel.MinimumUseRatio,
			CacheNumBuckets:  cfg.Channel.CacheNumBuckets,
			CacheHotPathSize: cfg.Channel.CacheHotPathSize,
			CacheEvaluator:   cfg.Channel.CacheEvaluator,
			Roots:            rootsByChannel[i],
			QueueDepth:       cfg.Channel.QueueDepth,
		})
		if err != nil {
			return nil, fmt.Errorf("channelmgr.New: channel %d: %w", i, err)
		}
		channels[i] = ch
	}
	m.channels = channels

	return m, nil
}

// assignRootsToChannels is a placeholder assignment used only to seed
// each channel's Config.Roots before Start's on-disk scan discovers the
// real owning channel for every already-persisted root; a brand new
// database has no on-disk roots yet, so every root is provisionally
// owned by channel 0 until the first store assigns it for real.
func assignRootsToChannels(roots []types.OID, channelCount int) [][]types.OID {
	out := make([][]types.OID, channelCount)
	out[0] = append(out[0], roots...)
	return out
}

// Start brings every channel from stopped to running, in channel-index
// order, then rebuilds the owner index from each channel's cache. The
// returned IDAnalysis is the union across all channels: the highest OID
// and TID seen anywhere, and the total entity count.
func (m *Manager) Start(ctx context.Context, consistentStoreTS time.Time) (types.IDAnalysis, error) {
	if m.started {
		return types.IDAnalysis{}, types.NewError(types.ErrKindNotRunning, "channelmgr.Start", errAlreadyOpen)
	}

	var union types.IDAnalysis
	for _, ch := range m.channels {
		analysis, err := ch.Start(ctx, consistentStoreTS)
		if err != nil {
			return union, fmt.Errorf("channelmgr.Start: channel %d: %w", ch.Index(), err)
		}
		if analysis.HighestOID > union.HighestOID {
			union.HighestOID = analysis.HighestOID
		}
		if analysis.HighestTID > union.HighestTID {
			union.HighestTID = analysis.HighestTID
		}
		union.EntityCount += analysis.EntityCount
	}

	m.rebuildOwnerIndex()
	m.started = true

	log.WithComponent("channelmgr").Info().
		Int("channels", len(m.channels)).
		Int64("entities", union.EntityCount).
		Msg("channel manager started")
	return union, nil
}

// rebuildOwnerIndex walks every channel's cache once and records which
// channel owns each OID it already holds. Cheap relative to startup I/O
// and only ever runs once, at Start.
func (m *Manager) rebuildOwnerIndex() {
	m.ownerMu.Lock()
	defer m.ownerMu.Unlock()

	for _, ch := range m.channels {
		idx := ch.Index()
		ch.Cache().ForEach(func(oid types.OID, _ *types.Entity) {
			m.owner[oid] = idx
		})
	}
}

// Stop transitions every channel from running to stopped, in reverse
// channel-index order so the lowest-index channel (which usually holds
// the bulk of the root set) drains last.
func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(m.channels) - 1; i >= 0; i-- {
		if err := m.channels[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.started = false
	return firstErr
}

// Channels returns the fixed channel array, for pkg/storagemgr and
// pkg/housekeeping to iterate without duplicating this package's
// bookkeeping.
func (m *Manager) Channels() []*channel.Channel { return m.channels }

// ChannelCount returns the fan-out of the channel array.
func (m *Manager) ChannelCount() int { return len(m.channels) }
