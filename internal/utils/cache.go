package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Integer to string conversion for cache keys
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}

// ProductListKey is the cache key for the product list view
func ProductListKey() string {
	return "products:list"
}

// ProductDetailKey is the cache key for a single product detail view
func ProductDetailKey(id uint) string {
	return "products:detail:" + strconv.Itoa(int(id))
}

// InvalidateProduct drops the cached list plus one product's detail entry.
// Called after any write that changes what those views would render.
func InvalidateProduct(ctx context.Context, rdb *redis.Client, id uint) {
	_ = DeleteCache(ctx, rdb, ProductListKey())     // Invalidate list cache
	_ = DeleteCache(ctx, rdb, ProductDetailKey(id)) // Invalidate detail cache
}
