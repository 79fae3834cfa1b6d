package httpclient

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache defaults.
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 256

	// evictFraction is the share of entries dropped in one eviction batch,
	// so a full cache does not evict on every subsequent insert.
	evictFraction = 0.2
)

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// responseCache stores successful GET responses keyed by method, URL and the
// vary headers. Keys keep the URL in the clear so substring invalidation can
// match request paths.
type responseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	defaultTTL time.Duration
	pathTTLs   map[string]time.Duration

	hits      int64
	misses    int64
	evictions int64
}

func newResponseCache(maxEntries int, defaultTTL time.Duration, pathTTLs map[string]time.Duration) *responseCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}
	return &responseCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		pathTTLs:   pathTTLs,
	}
}

// cacheKey builds the cache key. Vary headers are folded into a hash so the
// key stays compact and invalidation patterns only ever match the URL part.
func cacheKey(method, url string, varyHeaders map[string]string) string {
	h := fnv.New64a()
	names := make([]string, 0, len(varyHeaders))
	for name := range varyHeaders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(varyHeaders[name]))
		h.Write([]byte{';'})
	}
	return fmt.Sprintf("%s %s#%x", method, url, h.Sum64())
}

// ttlFor returns the TTL for a request path, honoring substring overrides.
func (c *responseCache) ttlFor(path string) time.Duration {
	for pattern, ttl := range c.pathTTLs {
		if strings.Contains(path, pattern) {
			return ttl
		}
	}
	return c.defaultTTL
}

// get returns the cached response for key, or nil. Expired entries are
// removed on access.
func (c *responseCache) get(key string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil
	}
	c.hits++
	return entry.response
}

// put stores a response under key. A non-positive ttl selects the default.
// Inserting a new key into a full cache evicts first.
func (c *responseCache) put(key string, resp *Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = &cacheEntry{response: resp, expiresAt: time.Now().Add(ttl)}
}

// evictLocked makes room: expired entries go first, and when that is not
// enough the oldest-expiring entries are dropped in a batch.
func (c *responseCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			c.evictions++
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	type keyed struct {
		key       string
		expiresAt time.Time
	}
	ordered := make([]keyed, 0, len(c.entries))
	for key, entry := range c.entries {
		ordered = append(ordered, keyed{key: key, expiresAt: entry.expiresAt})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].expiresAt.Before(ordered[j].expiresAt)
	})

	drop := int(float64(len(ordered)) * evictFraction)
	if drop < 1 {
		drop = 1
	}
	for _, item := range ordered[:drop] {
		delete(c.entries, item.key)
		c.evictions++
	}
}

// invalidate removes every entry whose key contains pattern, returning the
// number removed. An empty pattern is a no-op rather than a full clear.
func (c *responseCache) invalidate(pattern string) int {
	if pattern == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// clear drops every entry.
func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// stats returns cache counters for observability endpoints.
func (c *responseCache) stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]any{
		"entries":     len(c.entries),
		"max_entries": c.maxEntries,
		"hits":        c.hits,
		"misses":      c.misses,
		"evictions":   c.evictions,
	}
}
