// Package entitycache implements the per-channel entity cache: an
// OID → *Entity map plus two intrusive chains (per-type, per-hash-bucket)
// and a small hot-path accelerator over recently loaded payloads.
//
// Grounded on the teacher's pkg/worker/worker.go mutex-guarded map pattern
// (a single RWMutex over one authoritative map, with helper methods that
// take the lock internally) generalized from "track running containers"
// to "track cached entities".
package entitycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/types"
)

const defaultHotPathSize = 4096

// Cache is the entity cache for one storage channel. The zero value is not
// usable; construct with New.
type Cache struct {
	mu sync.RWMutex

	byOID map[types.OID]*types.Entity

	// typeChainHead/typeChainTail track the head and tail OID of each
	// type's intrusive chain so Put can append at the tail in O(1).
	typeChainHead map[types.TID]types.OID
	typeChainTail map[types.TID]types.OID

	numBuckets  uint64
	bucketHeads []types.OID

	source PayloadSource
	hot    *lru.Cache // OID -> []byte, recently loaded payloads only

	evaluator Evaluator
	cursor    types.OID // resume point for incremental_cache_check

	cacheBytes  int64
	entityCount int64

	channel    int
	channelTag string
}

// Config configures a new Cache.
type Config struct {
	Channel      int
	NumBuckets   uint64 // hash-bucket count for the intrusive chain; 0 defaults to 1024
	HotPathSize  int    // LRU accelerator capacity; 0 defaults to 4096
	Evaluator    Evaluator
}

// New creates an empty Cache reading payloads through source.
func New(source PayloadSource, cfg Config) (*Cache, error) {
	numBuckets := cfg.NumBuckets
	if numBuckets == 0 {
		numBuckets = 1024
	}
	hotPathSize := cfg.HotPathSize
	if hotPathSize <= 0 {
		hotPathSize = defaultHotPathSize
	}
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = DefaultEvaluator{TimeoutMS: 60_000, Threshold: 0.25}
	}

	hot, err := lru.New(hotPathSize)
	if err != nil {
		return nil, err
	}

	return &Cache{
		byOID:         make(map[types.OID]*types.Entity),
		typeChainHead: make(map[types.TID]types.OID),
		typeChainTail: make(map[types.TID]types.OID),
		numBuckets:    numBuckets,
		bucketHeads:   make([]types.OID, numBuckets),
		source:        source,
		hot:           hot,
		evaluator:     evaluator,
		channel:       cfg.Channel,
		channelTag:    strconv.Itoa(cfg.Channel),
	}, nil
}

func (c *Cache) bucketOf(oid types.OID) uint64 {
	return types.HashOID(oid) % c.numBuckets
}

// Put is idempotent: if oid is new, it creates an entity, links it into
// tid's type chain (appended at the tail) and its hash bucket, and
// increments the entity count; otherwise it returns the existing entity
// unchanged.
func (c *Cache) Put(oid types.OID, tid types.TID) *types.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byOID[oid]; ok {
		return e
	}

	e := &types.Entity{
		OID:         oid,
		TID:         tid,
		LastTouched: time.Now(),
		Color:       types.Black, // newly stored is reachable by construction
	}
	c.byOID[oid] = e
	c.entityCount++

	if tail, ok := c.typeChainTail[tid]; ok {
		c.byOID[tail].NextInType = oid
	} else {
		c.typeChainHead[tid] = oid
	}
	c.typeChainTail[tid] = oid

	bucket := c.bucketOf(oid)
	e.NextInBucket = c.bucketHeads[bucket]
	c.bucketHeads[bucket] = oid

	metrics.CacheEntries.WithLabelValues(c.channelTag).Inc()
	return e
}

// Get returns the cached entity for oid, if present.
func (c *Cache) Get(oid types.OID) (*types.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byOID[oid]
	return e, ok
}

// LoadPayload reads length bytes of entity's on-disk record through the
// cache's PayloadSource, stores them as the entity's cached payload, bumps
// the cache byte counter, and touches last_touched. The hot-path LRU is
// consulted first; a hit skips the backing read entirely.
func (c *Cache) LoadPayload(ctx context.Context, entity *types.Entity, length int64) error {
	if cached, ok := c.hot.Get(entity.OID); ok {
		metrics.CacheHotPathHitsTotal.Inc()
		c.attachPayload(entity, cached.([]byte))
		return nil
	}
	metrics.CacheHotPathMissesTotal.Inc()

	data, err := c.source.ReadBytes(ctx, entity.Position, length)
	if err != nil {
		return err
	}

	c.hot.Add(entity.OID, data)
	c.attachPayload(entity, data)
	return nil
}

func (c *Cache) attachPayload(entity *types.Entity, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entity.Payload = data
	entity.LastTouched = time.Now()
	c.cacheBytes += int64(len(data))
	metrics.CacheBytes.WithLabelValues(c.channelTag).Add(float64(len(data)))
}

// ClearPayload releases entity's cached payload, drops its hot-path entry,
// and returns the number of bytes freed. The on-disk record is untouched.
func (c *Cache) ClearPayload(entity *types.Entity) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	freed := int64(len(entity.Payload))
	entity.Payload = nil
	c.cacheBytes -= freed
	c.hot.Remove(entity.OID)
	metrics.CacheBytes.WithLabelValues(c.channelTag).Sub(float64(freed))
	metrics.CacheEvictionsTotal.WithLabelValues(c.channelTag).Inc()
	return freed
}

// IncrementalCacheCheck walks the cache from its last cursor position,
// clearing any live entry's payload for which evaluator (or the cache's
// configured default, if nil) reports eviction, until budget is exhausted
// or every entry has been visited once. It returns true when it completed
// a full pass; the cursor persists across calls either way.
func (c *Cache) IncrementalCacheCheck(budget time.Duration, evaluator Evaluator) bool {
	if evaluator == nil {
		evaluator = c.evaluator
	}

	deadline := time.Now().Add(budget)
	logger := log.WithComponent("entitycache").With().Int("channel", c.channel).Logger()

	c.mu.RLock()
	oids := make([]types.OID, 0, len(c.byOID))
	for oid := range c.byOID {
		oids = append(oids, oid)
	}
	c.mu.RUnlock()

	if len(oids) == 0 {
		return true
	}

	startIdx := 0
	for i, oid := range oids {
		if oid == c.cursor {
			startIdx = (i + 1) % len(oids)
			break
		}
	}

	now := time.Now()
	visited := 0
	for visited < len(oids) {
		if time.Now().After(deadline) {
			logger.Debug().Msg("cache check yielded on time budget")
			return false
		}

		idx := (startIdx + visited) % len(oids)
		oid := oids[idx]
		visited++
		c.cursor = oid

		entity, ok := c.Get(oid)
		if !ok || entity.Payload == nil {
			continue
		}

		c.mu.RLock()
		currentBytes := c.cacheBytes
		c.mu.RUnlock()

		if evaluator.ShouldEvict(now, entity.LastTouched, entity.Length, currentBytes) {
			c.ClearPayload(entity)
		}
	}

	c.cursor = types.NilOID
	return true
}

// ValidateEntities scans the cache and returns the highest OID, highest
// TID, and entity count observed — the same summary a data-file startup
// scan produces, used to cross-check consistency between the cache and
// the on-disk record set.
func (c *Cache) ValidateEntities() types.IDAnalysis {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var analysis types.IDAnalysis
	analysis.EntityCount = c.entityCount
	for oid, e := range c.byOID {
		if oid > analysis.HighestOID {
			analysis.HighestOID = oid
		}
		if e.TID > analysis.HighestTID {
			analysis.HighestTID = e.TID
		}
	}
	return analysis
}

// Detach removes entity from its type chain and hash bucket and from the
// authoritative map, decrementing the entity count. It is called only by
// the garbage collector's sweep phase on entries that remain white.
func (c *Cache) Detach(oid types.OID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entity, ok := c.byOID[oid]
	if !ok {
		return
	}

	c.unlinkFromTypeChain(entity)
	c.unlinkFromBucket(entity)

	delete(c.byOID, oid)
	c.entityCount--
	c.cacheBytes -= int64(len(entity.Payload))
	c.hot.Remove(oid)
	metrics.CacheEntries.WithLabelValues(c.channelTag).Dec()
}

func (c *Cache) unlinkFromTypeChain(entity *types.Entity) {
	head := c.typeChainHead[entity.TID]
	if head == entity.OID {
		c.typeChainHead[entity.TID] = entity.NextInType
		if entity.NextInType == types.NilOID {
			delete(c.typeChainTail, entity.TID)
		}
		return
	}
	for cur := head; cur != types.NilOID; {
		curEntity := c.byOID[cur]
		if curEntity.NextInType == entity.OID {
			curEntity.NextInType = entity.NextInType
			if entity.NextInType == types.NilOID {
				c.typeChainTail[entity.TID] = cur
			}
			return
		}
		cur = curEntity.NextInType
	}
}

func (c *Cache) unlinkFromBucket(entity *types.Entity) {
	bucket := c.bucketOf(entity.OID)
	head := c.bucketHeads[bucket]
	if head == entity.OID {
		c.bucketHeads[bucket] = entity.NextInBucket
		return
	}
	for cur := head; cur != types.NilOID; {
		curEntity := c.byOID[cur]
		if curEntity.NextInBucket == entity.OID {
			curEntity.NextInBucket = entity.NextInBucket
			return
		}
		cur = curEntity.NextInBucket
	}
}

// CacheBytes returns the current cache byte counter: the total length of
// the payloads currently attached to cached entities.
func (c *Cache) CacheBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cacheBytes
}

// EntityCount returns the number of entities currently tracked.
func (c *Cache) EntityCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entityCount
}

// TypeChain returns every OID in tid's chain, in insertion order, for
// tests and diagnostics.
func (c *Cache) TypeChain(tid types.TID) []types.OID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var chain []types.OID
	for cur := c.typeChainHead[tid]; cur != types.NilOID; {
		chain = append(chain, cur)
		cur = c.byOID[cur].NextInType
	}
	return chain
}

// ForEach calls fn once per cached entity. fn must not call back into the
// Cache — ForEach holds a read lock for its entire iteration.
func (c *Cache) ForEach(fn func(oid types.OID, e *types.Entity)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for oid, e := range c.byOID {
		fn(oid, e)
	}
}
