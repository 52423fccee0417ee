package page

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/evyataryagoni/ipweather/internal/cache"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/provider"
	"github.com/evyataryagoni/ipweather/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestSessions(t *testing.T, store cache.Store, ttl time.Duration, m *metrics.Metrics) (*Sessions, *provider.MockGeoProvider) {
	t.Helper()
	geo := provider.NewMockGeoProvider()
	lookups := service.NewLookupService(geo, provider.NewMockWeatherProvider(), nil, logger.NewNop())
	return NewSessions(lookups, store, ttl, Options{Metrics: m, Logger: logger.NewNop()}), geo
}

func newRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := cache.NewRedisStore(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return store, mr
}

// TestSessions_Isolated tests that each visitor has its own page and default
func TestSessions_Isolated(t *testing.T) {
	sessions, _ := newTestSessions(t, cache.NewMemoryStore(), time.Hour, nil)
	defer sessions.Close()
	ctx := context.Background()

	alice := sessions.Controller("alice")
	bob := sessions.Controller("bob")
	if alice == bob {
		t.Fatal("expected a controller per session")
	}
	if sessions.Controller("alice") != alice {
		t.Error("expected the same controller for a returning session")
	}

	alice.Load(ctx, "8.8.8.8")
	bob.Load(ctx, "1.1.1.1")
	bob.Search(ctx, "Paris")

	if got := alice.Display().IP; got != "8.8.8.8" {
		t.Errorf("expected alice's page untouched, got %s", got)
	}
	if display, _ := alice.ReloadDefault(ctx, ""); display.IP != "8.8.8.8" {
		t.Errorf("expected alice's own default, got %s", display.IP)
	}
	if display, _ := bob.ReloadDefault(ctx, ""); display.IP != "1.1.1.1" {
		t.Errorf("expected bob's own default, got %s", display.IP)
	}
}

// TestSessions_RedisKeysPerSession tests that sessions use separate Redis keys
// and that expiry drops the session's key
func TestSessions_RedisKeysPerSession(t *testing.T) {
	store, mr := newRedisStore(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	sessions, _ := newTestSessions(t, store, 200*time.Millisecond, m)
	defer sessions.Close()
	ctx := context.Background()

	first := sessions.Controller("s1")
	first.Load(ctx, "")
	sessions.Controller("s2").Load(ctx, "8.8.8.8")

	if !mr.Exists(store.Prefix()+"s1") || !mr.Exists(store.Prefix()+"s2") {
		t.Fatalf("expected one key per session, got %v", mr.Keys())
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 2 {
		t.Errorf("expected 2 active sessions, got %v", got)
	}

	time.Sleep(400 * time.Millisecond)

	// The expired session starts over with an empty page
	again := sessions.Controller("s1")
	if again == first {
		t.Error("expected a new controller after expiry")
	}
	if again.Display().Marker != nil {
		t.Error("expected a fresh page")
	}
	if mr.Exists(store.Prefix() + "s1") {
		t.Error("expected the expired session's default to be dropped")
	}
}

// TestSessions_Close tests that Close drops every session and the store
func TestSessions_Close(t *testing.T) {
	store, mr := newRedisStore(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	sessions, _ := newTestSessions(t, store, 0, m)
	ctx := context.Background()

	sessions.Controller("s1").Load(ctx, "")
	sessions.Controller("s2").Load(ctx, "")
	if sessions.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", sessions.Len())
	}

	if err := sessions.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if sessions.Len() != 0 {
		t.Errorf("expected no sessions after Close, got %d", sessions.Len())
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected every key deleted, got %v", keys)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 0 {
		t.Errorf("expected gauge reset, got %v", got)
	}
}

// TestSessions_NoExpiry tests that a zero TTL keeps sessions
func TestSessions_NoExpiry(t *testing.T) {
	sessions, geo := newTestSessions(t, cache.NewMemoryStore(), 0, nil)
	defer sessions.Close()
	ctx := context.Background()

	sessions.Controller("s1").Load(ctx, "")
	calls := geo.Calls()

	if display, _ := sessions.Controller("s1").ReloadDefault(ctx, ""); display.IP != "203.0.113.7" {
		t.Errorf("expected cached default, got %s", display.IP)
	}
	if geo.Calls() != calls {
		t.Error("expected reload from cache")
	}
}
