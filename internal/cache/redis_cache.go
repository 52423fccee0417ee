package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evyataryagoni/ipweather/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements DefaultCache for one session of a RedisStore
//
// Key Format: ipweather:default:<instance id>:<session id>
// Value: JSON-encoded DefaultEntry
type RedisCache struct {
	client *redis.Client
	key    string
}

// Get implements DefaultCache
func (c *RedisCache) Get(ctx context.Context) (*models.DefaultEntry, bool, error) {
	val, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("Redis query failed: %w", err)
	}

	var entry models.DefaultEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode default entry: %w", err)
	}

	return &entry, true, nil
}

// SetOnce implements DefaultCache with SETNX (no expiration)
func (c *RedisCache) SetOnce(ctx context.Context, entry models.DefaultEntry) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("failed to encode default entry: %w", err)
	}

	stored, err := c.client.SetNX(ctx, c.key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store in Redis: %w", err)
	}

	return stored, nil
}

// Backend implements DefaultCache
func (c *RedisCache) Backend() string {
	return "redis"
}

// Key returns the Redis key owned by this session
func (c *RedisCache) Key() string {
	return c.key
}

// Close deletes this session's key. The shared connection stays open
func (c *RedisCache) Close() error {
	return c.client.Del(context.Background(), c.key).Err()
}
