// Package gc implements the tri-color incremental mark-and-sweep garbage
// collector that runs once per channel, coordinated across channels by a
// MarkMonitor.
//
// Grounded on the teacher's pkg/reconciler/reconciler.go loop shape (a
// periodic pass doing bounded work per invocation, logging start/stop
// through pkg/log, timing itself through pkg/metrics) and the graph-walk
// idiom in other_examples' internal/graph/graph.go (queue-driven
// reachability over an adjacency view) — generalized from "walk a static
// dependency graph once" to "walk a live, mutating object graph
// incrementally, yielding on a time budget".
package gc

import (
	"context"
	"time"

	"github.com/nebulastore/store/pkg/datafile"
	"github.com/nebulastore/store/pkg/entitycache"
	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

// Router routes an OID owned by another channel to that channel's mark
// queue. Implemented by pkg/channelmgr, which knows every channel's GC
// instance; defining it here instead of importing pkg/channelmgr avoids a
// dependency cycle.
type Router interface {
	OwnerChannel(oid types.OID) int
	RouteToChannel(channel int, oid types.OID)
}

// LiveFileUpdater adjusts a data file's live-byte counter after sweep
// reclaims an entity. Implemented by *datafile.Manager.
type LiveFileUpdater interface {
	UpdateLiveBytes(fileNumber int64, delta int64)
}

// Config configures a GC instance.
type Config struct {
	Channel int
	Roots   []types.OID // this channel's share of the root set
}

// GC is the garbage collector for one storage channel.
type GC struct {
	channel int
	roots   []types.OID

	cache   *entitycache.Cache
	dict    *typedict.Dictionary
	router  Router
	monitor *MarkMonitor
	files   LiveFileUpdater

	queue      []types.OID
	generation int

	pendingSweep bool
}

// New creates a GC for one channel.
func New(cache *entitycache.Cache, dict *typedict.Dictionary, router Router, monitor *MarkMonitor, files LiveFileUpdater, cfg Config) *GC {
	return &GC{
		channel: cfg.Channel,
		roots:   cfg.Roots,
		cache:   cache,
		dict:    dict,
		router:  router,
		monitor: monitor,
		files:   files,
	}
}

// BeginCycle resets every cached entry to white except the root set
// (which starts gray and is enqueued for marking), and adopts generation
// as this channel's mark generation for the cycle. generation must come
// from a single shared MarkMonitor.BeginCycle() call issued once for the
// whole database (by pkg/channelmgr) — minting it per channel would let
// two channels run the same cycle under different generation numbers,
// and AllMarkingComplete would never see them agree.
func (g *GC) BeginCycle(generation int) {
	g.generation = generation
	g.queue = g.queue[:0]
	g.pendingSweep = false

	rootSet := make(map[types.OID]bool, len(g.roots))
	for _, r := range g.roots {
		rootSet[r] = true
	}

	g.cache.ForEach(func(oid types.OID, e *types.Entity) {
		if rootSet[oid] {
			e.Color = types.Gray
		} else {
			e.Color = types.White
		}
	})

	g.queue = append(g.queue, g.roots...)
}

// RouteToChannel enqueues an OID discovered to belong to this channel,
// called by another channel's GC through the Router interface.
func (g *GC) RouteToChannel(oid types.OID) {
	g.queue = append(g.queue, oid)
}

// SetRoots replaces this channel's share of the database root set. Roots
// are normally fixed at construction from what was already on disk at
// startup; SetRoots exists so that a new root set by the application
// after startup (pkg/storagemgr.SetRoot) is honored by the very next GC
// cycle instead of only taking effect after a restart. Must be called
// through the channel's command queue, the same as BeginCycle, since it
// mutates state the worker goroutine otherwise owns exclusively.
func (g *GC) SetRoots(roots []types.OID) {
	g.roots = roots
}

// Mark processes the mark queue until it drains or budget is exhausted,
// returning true once this channel has no more OIDs to mark for the
// current generation. Acks the monitor when it returns true. ctx bounds
// the payload reads iterateReferences issues for entities whose cached
// payload has been evicted since they were stored.
func (g *GC) Mark(ctx context.Context, budget time.Duration) (bool, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GCMarkDuration)

	deadline := time.Now().Add(budget)
	logger := log.WithComponent("gc").With().Int("channel", g.channel).Logger()

	for len(g.queue) > 0 {
		if time.Now().After(deadline) {
			logger.Debug().Msg("mark phase yielded on time budget")
			return false, nil
		}

		oid := g.queue[0]
		g.queue = g.queue[1:]

		entity, ok := g.cache.Get(oid)
		if !ok {
			logger.Error().Uint64("oid", uint64(oid)).Msg("mark phase found reference to unknown oid")
			return false, errUnknownOID
		}
		if entity.Color == types.Black {
			continue
		}
		entity.Color = types.Gray

		handler, ok := g.dict.Handler(entity.TID)
		if !ok {
			return false, errNoHandler
		}
		def, ok := g.dict.Definition(entity.TID)
		if !ok {
			return false, errNoHandler
		}

		if err := g.iterateReferences(ctx, handler, def, entity); err != nil {
			return false, err
		}

		entity.Color = types.Black
	}

	g.monitor.SetMarkingComplete(g.channel, g.generation)
	g.pendingSweep = true
	return true, nil
}

// iterateReferences walks entity's outbound references, paging its
// payload in from disk first if it was evicted (or never loaded — the
// common case for an entity freshly discovered during startup's
// inventory scan or a plain StoreEntities call, neither of which
// populates Payload) and the type actually carries references. Without
// this, every entity whose payload isn't already resident reports zero
// references and the mark phase silently fails to reach anything beyond
// the roots themselves.
func (g *GC) iterateReferences(ctx context.Context, handler typedict.Handler, def types.TypeDefinition, entity *types.Entity) error {
	refs := entity.RefOIDCache
	if !entity.HasRefCache {
		if entity.Payload == nil && def.HasPersistedRefs {
			payloadLen := entity.Length - datafile.RecordHeaderSize
			if err := g.cache.LoadPayload(ctx, entity, payloadLen); err != nil {
				return err
			}
		}

		var collected []types.OID
		if entity.Payload != nil {
			if err := handler.IterateReferences(def, entity.Payload, func(oid types.OID) {
				collected = append(collected, oid)
			}); err != nil {
				return err
			}
		}
		entity.RefOIDCache = collected
		entity.HasRefCache = true
		refs = collected
	}

	for _, ref := range refs {
		if ref == types.NilOID {
			continue
		}
		owner := g.router.OwnerChannel(ref)
		if owner == g.channel {
			g.queue = append(g.queue, ref)
		} else {
			g.router.RouteToChannel(owner, ref)
		}
	}
	return nil
}

// Sweep reclaims every entity still white, provided the mark monitor
// reports the pending-store barrier clear and marking complete across all
// channels for the current generation. Reaching Sweep with marking
// incomplete for this channel is the fatal condition named in
// SPEC_FULL.md §4.5 and aborts the cycle without sweeping.
func (g *GC) Sweep() (freedEntities int, freedBytes int64, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GCSweepDuration)

	logger := log.WithComponent("gc").With().Int("channel", g.channel).Logger()

	if !g.pendingSweep {
		logger.Error().Msg("sweep attempted with marking_complete=false")
		return 0, 0, errMarkingIncomplete
	}
	if !g.monitor.SweepAllowed(g.generation) {
		return 0, 0, nil
	}

	var whiteOIDs []types.OID
	g.cache.ForEach(func(oid types.OID, e *types.Entity) {
		if e.Color == types.White {
			whiteOIDs = append(whiteOIDs, oid)
		}
	})

	for _, oid := range whiteOIDs {
		entity, ok := g.cache.Get(oid)
		if !ok {
			continue
		}
		g.files.UpdateLiveBytes(entity.Position.File, -entity.Length)
		g.cache.Detach(oid)
		freedEntities++
		freedBytes += entity.Length
	}

	for _, r := range g.roots {
		root, ok := g.cache.Get(r)
		if !ok || root.Color != types.Black {
			logger.Error().Msg("post-sweep consistency check failed: root missing or not black")
			return freedEntities, freedBytes, errRootInconsistent
		}
	}

	metrics.GCCyclesTotal.Inc()
	metrics.GCSweepFreedEntitiesTotal.Add(float64(freedEntities))
	metrics.GCSweepFreedBytesTotal.Add(float64(freedBytes))

	g.pendingSweep = false
	return freedEntities, freedBytes, nil
}
