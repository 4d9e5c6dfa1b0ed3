// ABOUTME: Ristretto-backed cache for knowledge base search results
// ABOUTME: Entries expire after a TTL and the whole cache is cleared when records are reseeded

package capability

import (
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultCacheCounters = 1e4
	defaultCacheMaxCost  = 1 << 20 // bytes of article text
	defaultCacheBuffer   = 64
	defaultCacheTTL      = 5 * time.Minute
)

// searchCache memoizes SearchKnowledge results by normalized query.
type searchCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newSearchCache(ttl time.Duration) (*searchCache, error) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultCacheCounters,
		MaxCost:     defaultCacheMaxCost,
		BufferItems: defaultCacheBuffer,
	})
	if err != nil {
		return nil, err
	}
	return &searchCache{cache: cache, ttl: ttl}, nil
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *searchCache) get(query string) ([]Article, bool) {
	v, ok := c.cache.Get(cacheKey(query))
	if !ok {
		return nil, false
	}
	articles, ok := v.([]Article)
	if !ok {
		return nil, false
	}
	out := make([]Article, len(articles))
	copy(out, articles)
	return out, true
}

func (c *searchCache) set(query string, articles []Article) {
	stored := make([]Article, len(articles))
	copy(stored, articles)
	var cost int64 = 1
	for _, a := range articles {
		cost += int64(len(a.Title) + len(a.Content) + len(a.Tags))
	}
	c.cache.SetWithTTL(cacheKey(query), stored, cost, c.ttl)
	// Make the entry visible to the next Get; ristretto applies sets asynchronously.
	c.cache.Wait()
}

func (c *searchCache) clear() {
	c.cache.Clear()
}

func (c *searchCache) close() {
	c.cache.Close()
}
