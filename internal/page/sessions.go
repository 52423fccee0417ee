package page

import (
	"sync"
	"time"

	"github.com/evyataryagoni/ipweather/internal/cache"
	"github.com/evyataryagoni/ipweather/internal/logger"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle page session is kept
const DefaultSessionTTL = 24 * time.Hour

// Sessions keeps one Controller per visitor. Idle sessions expire after the
// TTL; an expired session's controller is closed, which drops its default
// cache entry
type Sessions struct {
	lookups Lookuper
	store   cache.Store
	opts    Options
	logger  *logger.Logger

	mu          sync.Mutex
	controllers *gocache.Cache
}

// NewSessions creates an empty session registry. ttl <= 0 keeps sessions
// until Close
func NewSessions(lookups Lookuper, store cache.Store, ttl time.Duration, opts Options) *Sessions {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault()
	}

	expiration, cleanup := ttl, ttl
	if ttl <= 0 {
		expiration, cleanup = gocache.NoExpiration, 0
	}

	s := &Sessions{
		lookups:     lookups,
		store:       store,
		opts:        opts,
		logger:      opts.Logger.WithComponent("Sessions"),
		controllers: gocache.New(expiration, cleanup),
	}
	s.controllers.OnEvicted(s.evicted)
	return s
}

// Controller returns the controller for session id, creating it on first
// use. Every call pushes the session's expiry out by the TTL
func (s *Sessions) Controller(id string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, found := s.controllers.Get(id); found {
		s.controllers.SetDefault(id, value)
		return value.(*Controller)
	}

	// Expired but not yet collected by the janitor
	s.controllers.Delete(id)

	controller := NewController(s.lookups, s.store.ForSession(id), s.opts)
	s.controllers.SetDefault(id, controller)
	s.logger.WithSession(id).Debug().Msg("Session started")
	s.setGauge()
	return controller
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	return s.controllers.ItemCount()
}

func (s *Sessions) evicted(id string, value interface{}) {
	if err := value.(*Controller).Close(); err != nil {
		s.logger.WithSession(id).Warn().Err(err).Msg("Failed to drop session default")
	} else {
		s.logger.WithSession(id).Debug().Msg("Session expired")
	}
	s.setGauge()
}

func (s *Sessions) setGauge() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ActiveSessions.Set(float64(s.controllers.ItemCount()))
	}
}

// Close closes every session and then the store
func (s *Sessions) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.controllers.DeleteExpired()
	for id, item := range s.controllers.Items() {
		if err := item.Object.(*Controller).Close(); err != nil {
			s.logger.WithSession(id).Warn().Err(err).Msg("Failed to drop session default")
		}
	}
	s.controllers.Flush()
	s.setGauge()
	return s.store.Close()
}
