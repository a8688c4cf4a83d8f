// Package redisstore holds the service's redis-backed caches.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// LookupCache is a read-through JSON cache for directory records, keyed by
// record kind and code.
type LookupCache struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

// NewLookupCache builds a cache with the given key prefix and TTL.
func NewLookupCache(rdb *redis.Client, keyPrefix string, ttl time.Duration) *LookupCache {
	if keyPrefix == "" {
		keyPrefix = "insights:lookup:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LookupCache{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (c *LookupCache) key(kind, code string) string { return c.keyNS + kind + ":" + code }

// Put stores a record under kind/code.
func (c *LookupCache) Put(ctx context.Context, kind, code string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(kind, code), b, c.ttl).Err()
}

// Get loads a record into dest. The bool reports a cache hit.
func (c *LookupCache) Get(ctx context.Context, kind, code string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, c.key(kind, code)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Del drops a cached record.
func (c *LookupCache) Del(ctx context.Context, kind, code string) error {
	return c.rdb.Del(ctx, c.key(kind, code)).Err()
}
