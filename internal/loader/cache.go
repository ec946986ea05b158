package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores document text by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, content string) error
}

// MemoryCache is a process-local cache.
type MemoryCache struct {
	mu   sync.RWMutex
	docs map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{docs: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.docs[key]
	return content, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = content
	return nil
}

// RedisOptions configures the redis cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "docqa:doc:"
	TTL      time.Duration // 0 keeps documents until evicted
}

// RedisCache shares loaded documents between processes through redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a redis-backed cache.
func NewRedisCache(opts RedisOptions) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "docqa:doc:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: opts.TTL}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	content, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return content, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, content string) error {
	if err := c.client.Set(ctx, c.prefix+key, content, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
