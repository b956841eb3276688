// Package cache memoises search scrapes in process, keyed by the arguments
// that determine the scraped result set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/producerecipe/models"
)

// entry holds cached results with their creation timestamp.
type entry struct {
	results   []models.RawSearchResult
	createdAt time.Time
}

// Cache is a bounded in-memory cache of raw search results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache holding at most maxEntries scrapes for ttl each.
// A background goroutine evicts expired entries every ttl/4 (at least once a
// minute) until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the scrape arguments. Label order matters
// because it is the order of the query terms.
func Key(engine models.Engine, cuisine models.Cuisine, limit int, labels []string) string {
	h := sha256.New()
	h.Write([]byte(engine))
	h.Write([]byte("|"))
	h.Write([]byte(cuisine))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(labels, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for key if they are younger than the TTL.
// Callers must not modify the returned slice.
func (c *Cache) Get(key string) ([]models.RawSearchResult, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return nil, false
	}
	return e.results, true
}

// Set stores results. If the cache is at capacity, the oldest entry is
// evicted to make room.
func (c *Cache) Set(key string, results []models.RawSearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{
		results:   results,
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl
}

// evictExpired removes every entry older than the TTL.
func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if c.expired(e) {
			delete(c.store, k)
		}
	}
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}
