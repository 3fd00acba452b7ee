package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for synthesized audio entries.
const audioKeyPrefix = "tts:audio:"

// redisCache implements AudioCache on Redis for deployments that share the
// audio cache across processes. Capacity is bounded by per-entry TTL plus the
// server's own maxmemory eviction rather than a local counter; reads refresh
// the TTL so hot entries behave LRU-like.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Get implements AudioCache.
func (c *redisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	val, err := c.client.Get(ctx, audioKeyPrefix+key).Result()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return Entry{}, false, err
	}

	// Refresh TTL on read; a failure here is not a cache miss.
	_ = c.client.Expire(ctx, audioKeyPrefix+key, c.ttl).Err()

	return entry, true, nil
}

// Put implements AudioCache.
func (c *redisCache) Put(ctx context.Context, key string, entry Entry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, audioKeyPrefix+key, val, c.ttl).Err()
}

// Close implements AudioCache.
func (c *redisCache) Close() error {
	return c.client.Close()
}
