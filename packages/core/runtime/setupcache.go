package runtime

import "sync"

// SetupCache memoizes setupOnce results for one feature run. Each key
// computes at most once, with concurrent callers for the same key blocking
// on the first computation; cached reads take only the map lock.
type SetupCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	value any
	err   error
}

func NewSetupCache() *SetupCache {
	return &SetupCache{entries: map[string]*cacheEntry{}}
}

// Resolve returns the cached value for key, running compute on first use.
// A compute error is cached too; setupOnce failures do not retry.
func (c *SetupCache) Resolve(key string, compute func() (any, error)) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()
	e.once.Do(func() {
		e.value, e.err = compute()
	})
	return e.value, e.err
}
