package config

import (
	"reflect"
	"testing"
	"time"
)

// TestLoad_Defaults tests the values used when nothing is set
func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.GeoProvider != "ipify" {
		t.Errorf("expected geo provider ipify, got %s", cfg.GeoProvider)
	}
	if cfg.MapZoom != 13 {
		t.Errorf("expected zoom 13, got %d", cfg.MapZoom)
	}
	if cfg.DefaultCacheType != "memory" {
		t.Errorf("expected memory default cache, got %s", cfg.DefaultCacheType)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Errorf("expected CORS origins [*], got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL, got %s", cfg.SessionTTL)
	}
}

// TestLoad_FromEnvironment tests environment overrides
func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("GEO_PROVIDER", "MMDB")
	t.Setenv("MMDB_PATH", "/data/GeoLite2-City.mmdb")
	t.Setenv("MAP_ZOOM", "10")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DEFAULT_CACHE_TYPE", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.GeoProvider != "mmdb" {
		t.Errorf("expected geo provider to be lowercased, got %s", cfg.GeoProvider)
	}
	if cfg.MapZoom != 10 {
		t.Errorf("expected zoom 10, got %d", cfg.MapZoom)
	}
	if cfg.LogPretty {
		t.Error("expected LOG_PRETTY=false to disable pretty output")
	}
	if cfg.RedisDB != 2 {
		t.Errorf("expected redis db 2, got %d", cfg.RedisDB)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session TTL, got %s", cfg.SessionTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("expected %v, got %v", want, cfg.CORSAllowedOrigins)
	}
}

// TestLoad_InvalidNumbersFallBack tests that bad numbers use defaults
func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAP_ZOOM", "close")
	t.Setenv("LOG_PRETTY", "maybe")
	t.Setenv("SESSION_TTL", "a day")

	cfg := Load()

	if cfg.MapZoom != 13 {
		t.Errorf("expected default zoom 13, got %d", cfg.MapZoom)
	}
	if !cfg.LogPretty {
		t.Error("expected default LOG_PRETTY=true")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL, got %s", cfg.SessionTTL)
	}
}

func validConfig() *Config {
	return &Config{
		Port:               "3000",
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
		GeoProvider:        "ipify",
		IpifyAPIKey:        "key",
		IpifyBaseURL:       "https://geo.ipify.org/api/v2/country,city",
		WeatherAPIKey:      "key",
		WeatherBaseURL:     "https://api.openweathermap.org/data/2.5/weather",
		TileURL:            "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		MapZoom:            13,
		DefaultCacheType:   "memory",
	}
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing ipify key", func(c *Config) { c.IpifyAPIKey = "" }, true},
		{"mmdb without path", func(c *Config) { c.GeoProvider = "mmdb"; c.IpifyAPIKey = "" }, true},
		{"mmdb with path", func(c *Config) { c.GeoProvider = "mmdb"; c.IpifyAPIKey = ""; c.MMDBPath = "/x.mmdb" }, false},
		{"unknown provider", func(c *Config) { c.GeoProvider = "maxmind" }, true},
		{"missing weather key", func(c *Config) { c.WeatherAPIKey = "" }, true},
		{"bad weather url", func(c *Config) { c.WeatherBaseURL = "not a url" }, true},
		{"zoom too large", func(c *Config) { c.MapZoom = 25 }, true},
		{"unknown cache type", func(c *Config) { c.DefaultCacheType = "disk" }, true},
		{"redis without addr", func(c *Config) { c.DefaultCacheType = "redis" }, true},
		{"redis with addr", func(c *Config) { c.DefaultCacheType = "redis"; c.RedisAddr = "localhost:6379" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"non numeric port", func(c *Config) { c.Port = "http" }, true},
		{"negative session ttl", func(c *Config) { c.SessionTTL = -time.Minute }, true},
		{"sessions kept until shutdown", func(c *Config) { c.SessionTTL = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
