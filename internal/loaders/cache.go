package loaders

import "sync"

// valueCache memoizes external lookups for the life of the loader. Only
// default-version reads are cached; pinned versions are immutable upstream
// anyway, and callers asking for a pinned version usually do so once.
type valueCache struct {
	mu     sync.RWMutex
	values map[string]string
}

func newValueCache() *valueCache {
	return &valueCache{values: make(map[string]string)}
}

func (c *valueCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *valueCache) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}
