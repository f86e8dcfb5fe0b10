package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/entitycache"
	"github.com/nebulastore/store/pkg/gc"
	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

type commandKind string

const (
	cmdStoreEntities  commandKind = "store-entities"
	cmdLoadByOIDs     commandKind = "load-by-oids"
	cmdLoadByTIDs     commandKind = "load-by-tids"
	cmdLoadRoots      commandKind = "load-roots"
	cmdSetRoots       commandKind = "set-roots"
	cmdBeginGC        commandKind = "begin-gc-cycle"
	cmdIncrementalGC  commandKind = "incremental-gc"
	cmdSweepGC        commandKind = "sweep-gc"
	cmdFileCleanup    commandKind = "incremental-file-cleanup"
	cmdCacheCheck     commandKind = "incremental-cache-check"
	cmdExportData     commandKind = "export-data"
	cmdImportData     commandKind = "import-data"
	cmdPing           commandKind = "ping"
)

type command struct {
	kind commandKind
	fn   func() (any, error)
	resp chan commandResult
}

type commandResult struct {
	value any
	err   error
}

// Config configures a Channel.
type Config struct {
	Channel int
	ChannelDir string

	DataFileMinSize int64
	DataFileMaxSize int64
	MinimumUseRatio float64

	CacheNumBuckets  uint64
	CacheHotPathSize int
	CacheEvaluator   entitycache.Evaluator

	// Roots is this channel's share of the database root set: the subset
	// of configured root OIDs that hash/owner-assignment placed on this
	// channel. Most configurations have exactly one root, owned by one
	// channel; every other channel's Roots is empty.
	Roots []types.OID

	QueueDepth int // command queue buffer size; 0 defaults to 64
}

// Channel is the worker loop for one storage channel: owns the data file
// manager, entity cache, and garbage collector for its partition of the
// object graph, and serializes every operation through a FIFO command
// queue processed by a single goroutine. See doc.go for the full design.
type Channel struct {
	index int
	cfg   Config

	conn  blobstore.Connector
	dict  *typedict.Dictionary
	files *datafile.Manager
	cache *entitycache.Cache
	gc    *gc.GC

	monitor *gc.MarkMonitor

	cmdCh   chan command
	routeCh chan types.OID
	stopCh  chan struct{}
	doneCh  chan struct{}

	stateMu sync.RWMutex
	state   types.ChannelState
}

// New constructs a Channel. Call Start before issuing any command.
func New(conn blobstore.Connector, dict *typedict.Dictionary, router gc.Router, monitor *gc.MarkMonitor, cfg Config) (*Channel, error) {
	files := datafile.New(conn, datafile.Config{
		Channel:         cfg.Channel,
		ChannelDir:      cfg.ChannelDir,
		MinFileSize:     cfg.DataFileMinSize,
		MaxFileSize:     cfg.DataFileMaxSize,
		MinimumUseRatio: cfg.MinimumUseRatio,
	})

	cache, err := entitycache.New(files, entitycache.Config{
		Channel:     cfg.Channel,
		NumBuckets:  cfg.CacheNumBuckets,
		HotPathSize: cfg.CacheHotPathSize,
		Evaluator:   cfg.CacheEvaluator,
	})
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", cfg.Channel, err)
	}

	g := gc.New(cache, dict, router, monitor, files, gc.Config{
		Channel: cfg.Channel,
		Roots:   cfg.Roots,
	})

	return &Channel{
		index:   cfg.Channel,
		cfg:     cfg,
		conn:    conn,
		dict:    dict,
		files:   files,
		cache:   cache,
		gc:      g,
		monitor: monitor,
		state:   types.ChannelStopped,
	}, nil
}

// Index returns this channel's index within the fixed channel array.
func (c *Channel) Index() int { return c.index }

// GC returns the channel's garbage collector, used by pkg/channelmgr to
// implement gc.Router.RouteToChannel.
func (c *Channel) GC() *gc.GC { return c.gc }

// Cache returns the channel's entity cache. entitycache.Cache guards its
// own state with an internal mutex, so pkg/channelmgr can call this
// directly (e.g. to walk ForEach and build an owner index at startup)
// without routing through the command queue.
func (c *Channel) Cache() *entitycache.Cache { return c.cache }

// EntityCount reports the number of entities this channel currently
// caches, used by pkg/channelmgr's least-loaded and weighted-capacity
// distribution strategies.
func (c *Channel) EntityCount() int64 { return c.cache.EntityCount() }

// State returns the channel's current lifecycle state.
func (c *Channel) State() types.ChannelState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Channel) setState(s types.ChannelState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()

	metrics.ChannelState.WithLabelValues(fmt.Sprintf("%d", c.index), string(s)).Set(1)
}

func (c *Channel) logger() zerolog.Logger {
	return log.WithChannel(c.index)
}

// Start transitions stopped -> starting -> running: it scans the channel's
// data files, validates every on-disk record against the type dictionary,
// seeds the entity cache, replays the transaction log from
// consistentStoreTS forward, and only then starts the worker goroutine.
// The returned IDAnalysis feeds the process-wide OID/TID allocators at
// startup.
func (c *Channel) Start(ctx context.Context, consistentStoreTS time.Time) (types.IDAnalysis, error) {
	if c.State() != types.ChannelStopped {
		return types.IDAnalysis{}, types.NewError(types.ErrKindNotRunning, "channel.Start", errAlreadyRunning)
	}
	c.setState(types.ChannelStarting)

	c.cmdCh = make(chan command, queueDepth(c.cfg.QueueDepth))
	c.routeCh = make(chan types.OID, 4096)
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	analysis, err := c.files.Initialize(ctx, consistentStoreTS, c.inventory)
	if err != nil {
		c.setState(types.ChannelError)
		return analysis, types.NewError(types.ErrKindStorageInit, "channel.Start", err)
	}

	go c.run()
	c.setState(types.ChannelRunning)
	c.logger().Debug().Int64("entities", analysis.EntityCount).Msg("channel started")
	return analysis, nil
}

func queueDepth(n int) int {
	if n <= 0 {
		return 64
	}
	return n
}

// inventory validates and re-caches one on-disk entity record discovered
// during Start's startup scan, satisfying datafile.InventoryFunc.
func (c *Channel) inventory(oid types.OID, tid types.TID, length int64, pos types.Position) error {
	if err := c.dict.ValidateEntity(length, tid, oid); err != nil {
		return types.NewError(types.ErrKindInvalidEntityLength, "channel.inventory", err)
	}
	e := c.cache.Put(oid, tid)
	e.Position = pos
	e.Length = length
	e.Color = types.Black
	return nil
}

// Stop transitions running -> stopping -> stopped: it stops accepting new
// commands, drains and rejects whatever is already queued with
// not-running/shutting-down, and waits for the worker goroutine to exit.
func (c *Channel) Stop(ctx context.Context) error {
	if c.State() != types.ChannelRunning {
		return types.NewError(types.ErrKindNotRunning, "channel.Stop", errNotRunning)
	}
	c.setState(types.ChannelStopping)
	close(c.stopCh)

	select {
	case <-c.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.setState(types.ChannelStopped)
	c.logger().Debug().Msg("channel stopped")
	return nil
}

// Ping round-trips a no-op command through the worker queue, satisfying
// pkg/health.Pinger.
func (c *Channel) Ping(ctx context.Context) error {
	_, err := c.enqueue(ctx, cmdPing, func() (any, error) { return nil, nil })
	return err
}

func (c *Channel) run() {
	defer close(c.doneCh)
	for {
		select {
		case cmd := <-c.cmdCh:
			c.execute(cmd)
		case oid := <-c.routeCh:
			c.gc.RouteToChannel(oid)
		case <-c.stopCh:
			c.drain()
			return
		}
	}
}

func (c *Channel) execute(cmd command) {
	value, err := cmd.fn()
	if err != nil && isFatal(err) {
		c.logger().Error().Err(err).Str("command", string(cmd.kind)).
			Msg("channel command failed a consistency check; transitioning to error state")
		c.setState(types.ChannelError)
	}
	select {
	case cmd.resp <- commandResult{value: value, err: err}:
	default:
	}
}

func (c *Channel) drain() {
	for {
		select {
		case cmd := <-c.cmdCh:
			cmd.resp <- commandResult{err: types.NewError(types.ErrKindShuttingDown, string(cmd.kind), nil)}
		default:
			return
		}
	}
}

func isFatal(err error) bool {
	return types.IsKind(err, types.ErrKindStorageConsistency) ||
		types.IsKind(err, types.ErrKindInvalidEntityLength) ||
		types.IsKind(err, types.ErrKindTypeHandlerMissing)
}

func (c *Channel) enqueue(ctx context.Context, kind commandKind, fn func() (any, error)) (any, error) {
	switch c.State() {
	case types.ChannelStopped, types.ChannelStopping:
		return nil, types.NewError(types.ErrKindShuttingDown, string(kind), nil)
	case types.ChannelError:
		return nil, types.NewError(types.ErrKindNotRunning, string(kind), errChannelInErrorState)
	case types.ChannelStarting:
		return nil, types.NewError(types.ErrKindNotRunning, string(kind), nil)
	}

	respCh := make(chan commandResult, 1)
	select {
	case c.cmdCh <- command{kind: kind, fn: fn, resp: respCh}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.stopCh:
		return nil, types.NewError(types.ErrKindShuttingDown, string(kind), nil)
	}

	select {
	case res := <-respCh:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
