package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MemoryStore gives every session its own in-process cache
type MemoryStore struct{}

// NewMemoryStore creates a memory-backed store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ForSession implements Store
func (s *MemoryStore) ForSession(id string) DefaultCache {
	return NewMemoryCache()
}

// Backend implements Store
func (s *MemoryStore) Backend() string {
	return "memory"
}

// Close implements Store. Session caches are dropped with their controllers
func (s *MemoryStore) Close() error {
	return nil
}

// RedisStore shares one connection between all sessions
//
// Key Format: ipweather:default:<instance id>:<session id>
//
// The instance id is random per process, so two processes never see each
// other's entries even when session ids collide
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: "ipweather:default:" + uuid.NewString() + ":",
	}, nil
}

// ForSession implements Store
func (s *RedisStore) ForSession(id string) DefaultCache {
	return &RedisCache{client: s.client, key: s.prefix + id}
}

// Backend implements Store
func (s *RedisStore) Backend() string {
	return "redis"
}

// Prefix returns the key prefix owned by this process
func (s *RedisStore) Prefix() string {
	return s.prefix
}

// Close deletes every key under this process's prefix and closes the connection
func (s *RedisStore) Close() error {
	ctx := context.Background()

	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	scanErr := iter.Err()

	var delErr error
	if len(keys) > 0 {
		delErr = s.client.Del(ctx, keys...).Err()
	}
	return errors.Join(scanErr, delErr, s.client.Close())
}
