package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memoryCache implements AudioCache with a strict in-process LRU. Inserting
// past capacity evicts exactly the least-recently-used entry; both Get and Put
// refresh recency.
type memoryCache struct {
	entries *lru.Cache[string, Entry]
}

func newMemoryCache(capacity int) (*memoryCache, error) {
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &memoryCache{entries: entries}, nil
}

// Get implements AudioCache.
func (c *memoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Put implements AudioCache.
func (c *memoryCache) Put(_ context.Context, key string, entry Entry) error {
	c.entries.Add(key, entry)
	return nil
}

// Len reports the current number of entries, used as an observability gauge.
func (c *memoryCache) Len() int {
	return c.entries.Len()
}

// Close implements AudioCache.
func (c *memoryCache) Close() error {
	c.entries.Purge()
	return nil
}
