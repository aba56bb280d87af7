package repository

import (
	"container/list"
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/pkg/metrics"
)

const defaultCacheSize = 4096

// ScoreCache holds computed auto scores keyed by department and year. Each
// entry remembers the fingerprint of the raw data it was computed from and is
// served only while that fingerprint still matches. The least recently used
// entry is evicted once the cache is full.
type ScoreCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[cacheKey]*list.Element
}

type cacheKey struct {
	deptID string
	year   string
}

type cacheEntry struct {
	key         cacheKey
	fingerprint uint64
	summary     model.DepartmentScoreSummary
}

// NewScoreCache creates an empty cache.
func NewScoreCache(opts ...CacheOption) *ScoreCache {
	c := &ScoreCache{
		capacity: defaultCacheSize,
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fingerprint hashes the JSON form of raw. Zero means "not cacheable".
func Fingerprint(raw model.RawData) uint64 {
	b, err := json.Marshal(raw)
	if err != nil {
		return 0 // never cached
	}
	return xxhash.Sum64(b)
}

// Get returns the cached summary if it was computed from data with the given
// fingerprint. A stale entry counts as a miss.
func (c *ScoreCache) Get(deptID, year string, fingerprint uint64) (model.DepartmentScoreSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey{deptID, year}]
	if !ok || fingerprint == 0 || el.Value.(*cacheEntry).fingerprint != fingerprint {
		metrics.RecordCacheMiss()
		return model.DepartmentScoreSummary{}, false
	}
	c.order.MoveToFront(el)
	metrics.RecordCacheHit()
	return el.Value.(*cacheEntry).summary, true
}

// Put stores summary for the department and year.
func (c *ScoreCache) Put(deptID, year string, fingerprint uint64, summary model.DepartmentScoreSummary) {
	if fingerprint == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{deptID, year}
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.fingerprint, e.summary = fingerprint, summary
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, fingerprint: fingerprint, summary: summary})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	metrics.UpdateCacheSize(c.order.Len())
}

// Invalidate drops the entry for the department and year.
func (c *ScoreCache) Invalidate(deptID, year string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[cacheKey{deptID, year}]; ok {
		c.order.Remove(el)
		delete(c.entries, cacheKey{deptID, year})
		metrics.UpdateCacheSize(c.order.Len())
	}
}

// Len returns the number of cached summaries.
func (c *ScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
