package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver represents the backing store for the audio cache.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

// DefaultCapacity bounds the in-memory cache when no capacity is configured.
const DefaultCapacity = 100

type storeConfig struct {
	capacity    int
	redisClient *redis.Client
	redisTTL    time.Duration
}

// Option configures the cache returned by New.
type Option func(*storeConfig)

// WithCapacity sets the maximum number of entries held by the memory driver.
func WithCapacity(n int) Option {
	return func(c *storeConfig) { c.capacity = n }
}

// WithRedisClient supplies the client required by the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithRedisTTL overrides the per-entry expiration used by the redis driver.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *storeConfig) { c.redisTTL = ttl }
}

// New creates an AudioCache for the given driver. Supports "memory" and
// "redis"; redis requires WithRedisClient.
func New(driver Driver, opts ...Option) (AudioCache, error) {
	config := &storeConfig{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(config)
	}

	switch driver {
	case DriverMemory:
		if config.capacity <= 0 {
			return nil, ErrInvalidConfig
		}
		return newMemoryCache(config.capacity)

	case DriverRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisCache{client: config.redisClient, ttl: ttl}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
