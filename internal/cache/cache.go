package cache

import (
	"context"

	"github.com/evyataryagoni/ipweather/internal/models"
)

// DefaultCache holds the one "home" lookup found on the first unprompted load
// of a page session. The entry is written at most once and lives exactly as
// long as the session
type DefaultCache interface {
	// Get returns the cached entry and whether one exists
	Get(ctx context.Context) (*models.DefaultEntry, bool, error)

	// SetOnce stores entry if nothing is cached yet.
	// Returns false when an entry already existed (the new one is discarded)
	SetOnce(ctx context.Context, entry models.DefaultEntry) (bool, error)

	// Backend identifies the implementation in logs and metrics
	Backend() string

	// Close releases resources and drops the entry
	Close() error
}

// Store hands out one DefaultCache per page session
type Store interface {
	// ForSession returns the cache owned by session id. Closing it drops
	// only that session's entry
	ForSession(id string) DefaultCache

	// Backend identifies the implementation in logs and metrics
	Backend() string

	// Close drops every session entry and releases the connection
	Close() error
}
