// Package app wires providers, the default cache store and the page
// sessions from configuration. It is shared by the server and the lookup CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/evyataryagoni/ipweather/internal/cache"
	"github.com/evyataryagoni/ipweather/internal/config"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/page"
	"github.com/evyataryagoni/ipweather/internal/provider"
	"github.com/evyataryagoni/ipweather/internal/service"
)

// App holds the long-lived components
type App struct {
	Lookups  *service.LookupService
	Sessions *page.Sessions
}

// New builds the application. m may be nil
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*App, error) {
	// No client timeout and no retries: a lookup is bounded only by ctx
	client := &http.Client{}

	geo, err := provider.NewGeoProvider(provider.GeoConfig{
		Type:         cfg.GeoProvider,
		IpifyBaseURL: cfg.IpifyBaseURL,
		IpifyAPIKey:  cfg.IpifyAPIKey,
		MMDBPath:     cfg.MMDBPath,
	}, client, m, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create geolocation provider: %w", err)
	}
	log.Info().Str("provider", geo.Name()).Msg("Geolocation provider initialized")

	weather := provider.NewOpenWeatherMapClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, client, m, log)

	store, err := cache.New(ctx, cache.Config{
		Type:          cfg.DefaultCacheType,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		geo.Close()
		return nil, fmt.Errorf("failed to create default cache: %w", err)
	}
	log.Info().Str("backend", store.Backend()).Dur("session_ttl", cfg.SessionTTL).Msg("Default cache initialized")

	lookups := service.NewLookupService(geo, weather, m, log)
	sessions := page.NewSessions(lookups, store, cfg.SessionTTL, page.Options{
		Zoom:    cfg.MapZoom,
		Metrics: m,
		Logger:  log,
	})

	return &App{Lookups: lookups, Sessions: sessions}, nil
}

// Close drops every session, then releases the cache store and the
// geolocation provider
func (a *App) Close() error {
	return errors.Join(a.Sessions.Close(), a.Lookups.Close())
}
