package cache

import (
	"context"
	"fmt"
	"strings"
)

// Config holds configuration for creating a default cache
type Config struct {
	Type string // "memory" or "redis"

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates a per-session cache store based on the configuration (factory pattern)
func New(ctx context.Context, cfg Config) (Store, error) {
	cacheType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch cacheType {
	case "memory", "":
		return NewMemoryStore(), nil

	case "redis":
		s, err := NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown default cache type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
