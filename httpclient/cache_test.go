package httpclient

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResponse(status int) *Response {
	return &Response{StatusCode: status, Body: []byte("body")}
}

func TestCacheKeyStability(t *testing.T) {
	vary := map[string]string{"Accept": "application/json"}

	a := cacheKey("GET", "https://api.example/messages", vary)
	b := cacheKey("GET", "https://api.example/messages", vary)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, cacheKey("GET", "https://api.example/folders", vary))
	assert.NotEqual(t, a, cacheKey("GET", "https://api.example/messages", map[string]string{"Accept": "text/html"}))
	assert.NotEqual(t, a, cacheKey("GET", "https://api.example/messages", map[string]string{
		"Accept":             "application/json",
		HeaderOrganizationID: "org-1",
	}))
}

func TestCacheKeyContainsURL(t *testing.T) {
	key := cacheKey("GET", "https://api.example/messages?page=2", nil)
	assert.Contains(t, key, "https://api.example/messages")
}

func TestCacheHitWithinTTL(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put("k", testResponse(200), time.Minute)

	got := c.get("k")
	require.NotNil(t, got)
	assert.Equal(t, 200, got.StatusCode)
}

func TestCacheMissAfterExpiry(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put("k", testResponse(200), 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.get("k"))
	assert.Zero(t, c.len())
}

func TestCacheDefaultTTLForZero(t *testing.T) {
	c := newResponseCache(16, 50*time.Millisecond, nil)
	c.put("k", testResponse(200), 0)

	assert.NotNil(t, c.get("k"))
	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, c.get("k"))
}

func TestCacheTTLOverrides(t *testing.T) {
	c := newResponseCache(16, 5*time.Minute, map[string]time.Duration{
		"/messages": 30 * time.Second,
	})

	assert.Equal(t, 30*time.Second, c.ttlFor("/api/v1/messages"))
	assert.Equal(t, 30*time.Second, c.ttlFor("/messages"))
	assert.Equal(t, 5*time.Minute, c.ttlFor("/folders"))
}

func TestCacheEvictsExpiredFirst(t *testing.T) {
	c := newResponseCache(4, time.Minute, nil)
	c.put("dead-1", testResponse(200), time.Nanosecond)
	c.put("dead-2", testResponse(200), time.Nanosecond)
	c.put("live-1", testResponse(200), time.Hour)
	c.put("live-2", testResponse(200), time.Hour)

	// Insert at capacity: the two expired entries go, the live ones stay.
	c.put("live-3", testResponse(200), time.Hour)

	assert.NotNil(t, c.get("live-1"))
	assert.NotNil(t, c.get("live-2"))
	assert.NotNil(t, c.get("live-3"))
	assert.Equal(t, 3, c.len())
}

func TestCacheEvictsOldestExpiringWhenFull(t *testing.T) {
	c := newResponseCache(10, time.Minute, nil)
	for i := 0; i < 10; i++ {
		// Strictly increasing expiries; entry 0 expires soonest.
		c.put(fmt.Sprintf("k-%d", i), testResponse(200), time.Duration(i+1)*time.Hour)
	}

	c.put("k-new", testResponse(200), 24*time.Hour)

	// 20% of 10 entries = the 2 oldest-expiring were dropped.
	assert.Nil(t, c.get("k-0"))
	assert.Nil(t, c.get("k-1"))
	assert.NotNil(t, c.get("k-2"))
	assert.NotNil(t, c.get("k-9"))
	assert.NotNil(t, c.get("k-new"))
	assert.Equal(t, 9, c.len())
}

func TestCacheUpdateExistingKeyDoesNotEvict(t *testing.T) {
	c := newResponseCache(2, time.Minute, nil)
	c.put("a", testResponse(200), time.Hour)
	c.put("b", testResponse(200), time.Hour)

	c.put("a", testResponse(204), time.Hour)

	assert.Equal(t, 2, c.len())
	assert.Equal(t, 204, c.get("a").StatusCode)
	assert.NotNil(t, c.get("b"))
}

func TestCacheInvalidateBySubstring(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put(cacheKey("GET", "https://api.example/messages", nil), testResponse(200), time.Hour)
	c.put(cacheKey("GET", "https://api.example/messages?page=2", nil), testResponse(200), time.Hour)
	c.put(cacheKey("GET", "https://api.example/folders", nil), testResponse(200), time.Hour)

	removed := c.invalidate("/messages")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.len())
	assert.NotNil(t, c.get(cacheKey("GET", "https://api.example/folders", nil)))
}

func TestCacheInvalidateEmptyPatternIsNoop(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put("k", testResponse(200), time.Hour)

	assert.Zero(t, c.invalidate(""))
	assert.Equal(t, 1, c.len())
}

func TestCacheClear(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put("a", testResponse(200), time.Hour)
	c.put("b", testResponse(200), time.Hour)

	c.clear()
	assert.Zero(t, c.len())
	assert.Nil(t, c.get("a"))
}

func TestCacheStats(t *testing.T) {
	c := newResponseCache(16, time.Minute, nil)
	c.put("k", testResponse(200), time.Hour)

	c.get("k")
	c.get("k")
	c.get("missing")

	stats := c.stats()
	assert.Equal(t, 1, stats["entries"])
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 16, stats["max_entries"])
}
