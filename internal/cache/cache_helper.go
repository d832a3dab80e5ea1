package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper is a JSON cache over one key namespace.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper scopes client to keys starting with prefix.
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig pairs a key namespace with its default expiry.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Questions change rarely once an exam is being assembled.
	QuestionCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "question:",
	}

	// Batches are immutable after generation.
	BatchCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "batch:",
	}

	VariantCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "variant:",
	}

	BundleCacheConfig = CacheConfig{
		TTL:    30 * time.Minute,
		Prefix: "bundle:",
	}
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// Key returns the namespaced redis key.
func (c *CacheHelper) Key(key string) string {
	return c.prefix + key
}

// Available reports whether a redis client is configured.
func (c *CacheHelper) Available() bool {
	return c.client != nil
}

// Get decodes the cached JSON value of key into dest.
func (c *CacheHelper) Get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", c.Key(key), err)
	}
	return nil
}

// Set stores value as JSON. Without a client it does nothing.
func (c *CacheHelper) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", c.Key(key), err)
	}
	return c.SetBytes(ctx, key, data, ttl)
}

// GetBytes returns a raw cached value.
func (c *CacheHelper) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheNotFound
	case err != nil:
		return nil, fmt.Errorf("read %s from cache: %w", c.Key(key), err)
	}
	return data, nil
}

// SetBytes stores a raw value without re-encoding it.
func (c *CacheHelper) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.Key(key), value, ttl).Err()
}

// Delete drops keys in a single DEL.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.Key(k))
	}
	return c.client.Del(ctx, full...).Err()
}

// Exists reports whether key is cached.
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}
	n, err := c.client.Exists(ctx, c.Key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check %s in cache: %w", c.Key(key), err)
	}
	return n > 0, nil
}

// InvalidatePattern drops every key of the namespace matching pattern. It
// walks the keyspace with SCAN and deletes in pipelined chunks.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	const chunk = 100
	pipe := c.client.Pipeline()
	queued := 0
	iter := c.client.Scan(ctx, 0, c.Key(pattern), chunk).Iterator()
	batch := make([]string, 0, chunk)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == chunk {
			pipe.Del(ctx, batch...)
			queued++
			batch = make([]string, 0, chunk)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", c.Key(pattern), err)
	}
	if len(batch) > 0 {
		pipe.Del(ctx, batch...)
		queued++
	}
	if queued == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", c.Key(pattern), err)
	}
	return nil
}

// CacheOrExecute implements the cache-aside pattern. A cache failure never
// fails the call; fetchFunc's error always does.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest any, ttl time.Duration, fetchFunc func() (any, error)) error {
	switch err := c.Get(ctx, key, dest); {
	case err == nil:
		return nil
	case !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable):
		slog.WarnContext(ctx, "Cache read failed, falling back to source", "error", err, "key", c.Key(key))
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode fetched %s: %w", c.Key(key), err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.SetBytes(writeCtx, key, data, ttl); err != nil {
		slog.WarnContext(ctx, "Cache write failed", "error", err, "key", c.Key(key))
	}
	return json.Unmarshal(data, dest)
}

// CacheManager holds one helper per cached resource.
type CacheManager struct {
	Question *CacheHelper
	Batch    *CacheHelper
	Variant  *CacheHelper
	Bundle   *CacheHelper

	client *redis.Client
}

// NewCacheManager creates cache manager with all cache helpers. A nil
// client yields helpers that never hit.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Question: NewCacheHelper(client, QuestionCacheConfig.Prefix),
		Batch:    NewCacheHelper(client, BatchCacheConfig.Prefix),
		Variant:  NewCacheHelper(client, VariantCacheConfig.Prefix),
		Bundle:   NewCacheHelper(client, BundleCacheConfig.Prefix),
		client:   client,
	}
}

// HealthCheck pings redis.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}

	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
