package query

import (
	"sync"
	"time"
)

// cache stores read results by key. gen moves on every invalidation so a
// fetch that started before a write cannot store its stale result after it.
// Entries older than maxAge miss; zero keeps them until invalidated.
type cache struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[string]entry
	maxAge  time.Duration
	now     func() time.Time
}

type entry struct {
	key   Key
	value any
	at    time.Time
}

func newCache() *cache {
	return &cache{entries: make(map[string]entry), now: time.Now}
}

func (c *cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *cache) get(k Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k.String()]
	if !ok || (c.maxAge > 0 && c.now().Sub(e.at) >= c.maxAge) {
		return nil, false
	}
	return e.value, true
}

// put stores v unless an invalidation happened since gen was read.
func (c *cache) put(k Key, v any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.entries[k.String()] = entry{key: k, value: v, at: c.now()}
	return true
}

// invalidate drops every entry under any of the prefixes and returns the
// keys it removed.
func (c *cache) invalidate(prefixes ...Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	var dropped []Key
	for s, e := range c.entries {
		for _, p := range prefixes {
			if e.key.HasPrefix(p) {
				delete(c.entries, s)
				dropped = append(dropped, e.key)
				break
			}
		}
	}
	return dropped
}

func (c *cache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]entry)
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
