package probe

import (
	"sync"
)

// Cache stores probe results across passes and runs. It is append-only:
// the first successful result stored for a key is the one kept, and
// failures are recorded separately so that they never mask a later
// success.
type Cache interface {
	// Get returns the successful result stored for the key.
	Get(k Key) (Result, bool, error)
	// Put stores a successful result. Storing a key twice is a no-op.
	Put(r Result) error
	// PutFailure records a failed probe.
	PutFailure(r Result) error
	// All returns every successful result, sorted by key.
	All() ([]Result, error)
	// Failures returns every recorded failure, sorted by key.
	Failures() ([]Result, error)
	// Len returns the number of successful results.
	Len() (int, error)
}

// MemoryCache is a Cache held in memory.
type MemoryCache struct {
	mu       sync.RWMutex
	results  map[Key]Result
	failures map[Key]Result
}

var _ Cache = &MemoryCache{}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		results:  make(map[Key]Result),
		failures: make(map[Key]Result),
	}
}

func (c *MemoryCache) Get(k Key) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[k]
	return r, ok, nil
}

func (c *MemoryCache) Put(r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[r.Key()]; !ok {
		c.results[r.Key()] = r
	}
	return nil
}

func (c *MemoryCache) PutFailure(r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[r.Key()] = r
	return nil
}

func (c *MemoryCache) All() ([]Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sorted(c.results), nil
}

func (c *MemoryCache) Failures() ([]Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sorted(c.failures), nil
}

func (c *MemoryCache) Len() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results), nil
}

func sorted(m map[Key]Result) []Result {
	result := make([]Result, 0, len(m))
	for _, r := range m {
		result = append(result, r)
	}
	SortResults(result)
	return result
}
