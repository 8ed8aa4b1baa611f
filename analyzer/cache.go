package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/seo-optimizer/report-engine/snapshot"
)

// CacheRecorder receives cache hit/miss notifications.
type CacheRecorder interface {
	RecordCacheLookup(hit bool)
}

// Cache entry with expiration
type cacheEntry struct {
	snap      *snapshot.AnalysisSnapshot
	timestamp time.Time
}

// CachedSource is a snapshot.Source that keeps fetched snapshots for a TTL.
// Snapshots are never mutated after decoding, so cached pointers are shared.
type CachedSource struct {
	source   snapshot.Source
	recorder CacheRecorder

	mu      sync.RWMutex
	cache   map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	hits    int
	misses  int
	now     func() time.Time
}

// NewCachedSource wraps src. recorder may be nil.
func NewCachedSource(src snapshot.Source, ttl time.Duration, maxSize int, recorder CacheRecorder) *CachedSource {
	return &CachedSource{
		source:   src,
		recorder: recorder,
		cache:    make(map[string]cacheEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
	}
}

// generateCacheKey creates a unique key for the URL
func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *CachedSource) Snapshot(ctx context.Context, pageURL string) (*snapshot.AnalysisSnapshot, error) {
	key := generateCacheKey(pageURL)

	c.mu.RLock()
	entry, found := c.cache[key]
	c.mu.RUnlock()
	if found && c.now().Sub(entry.timestamp) < c.ttl {
		c.record(true)
		return entry.snap, nil
	}
	c.record(false)

	snap, err := c.source.Snapshot(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{snap: snap, timestamp: c.now()}
	over := len(c.cache) > c.maxSize
	c.mu.Unlock()

	if over {
		c.Cleanup()
	}
	return snap, nil
}

func (c *CachedSource) record(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(hit)
	}
}

// Cleanup removes expired entries and ensures the size limit
func (c *CachedSource) Cleanup() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.cache {
		if now.Sub(entry.timestamp) >= c.ttl {
			delete(c.cache, key)
		}
	}

	// If still over size limit, remove oldest entries
	if len(c.cache) > c.maxSize {
		type aged struct {
			key       string
			timestamp time.Time
		}
		entries := make([]aged, 0, len(c.cache))
		for key, entry := range c.cache {
			entries = append(entries, aged{key, entry.timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})
		for i := 0; i < len(entries)-c.maxSize; i++ {
			delete(c.cache, entries[i].key)
		}
	}
}

// Run cleans the cache every interval until ctx is done.
func (c *CachedSource) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// IsCached checks if a URL is in the cache and not expired
func (c *CachedSource) IsCached(pageURL string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.cache[generateCacheKey(pageURL)]
	return found && c.now().Sub(entry.timestamp) < c.ttl
}

// Clear drops every cached snapshot.
func (c *CachedSource) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func (c *CachedSource) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: len(c.cache),
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     c.ttl,
	}
}
