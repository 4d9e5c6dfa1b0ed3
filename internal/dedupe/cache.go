// ABOUTME: Bounded TTL cache of completed turns keyed by thread and request id
// ABOUTME: Lets a retried request replay its committed result instead of dispatching again

package dedupe

import (
	"errors"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidSize is returned when the cache is created with no capacity.
var ErrInvalidSize = errors.New("replay cache size must be positive")

// entry stores a value with the time it was recorded.
type entry[V any] struct {
	value     V
	timestamp time.Time
}

// Cache is a thread-safe, size-limited LRU whose entries expire after a TTL.
// Expired entries are dropped lazily on access, so there is no background
// goroutine to stop.
type Cache[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry[V]]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache holding at most maxEntries values for ttl each.
// A non-positive ttl keeps entries until they are evicted by size.
func New[V any](ttl time.Duration, maxEntries int) (*Cache[V], error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidSize
	}
	l, err := lru.New[string, entry[V]](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: l, ttl: ttl, now: time.Now}, nil
}

// Key joins the parts of a composite key. Parts must not contain NUL.
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Check returns true if the key has been recorded and is not expired.
func (c *Cache[V]) Check(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Put records value under key, replacing any previous value and
// evicting the least recently used entry when full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry[V]{value: value, timestamp: c.now()})
}

// Len returns the number of entries, including ones not yet found expired.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Purge removes every entry.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

func (c *Cache[V]) expired(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.timestamp) >= c.ttl
}
