package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port               string   `validate:"required,numeric"`
	CORSAllowedOrigins []string `validate:"required,min=1"`

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogPretty bool
	LogFile   string

	// Geolocation provider
	GeoProvider  string `validate:"required,oneof=ipify mmdb"` // "ipify" or "mmdb"
	IpifyAPIKey  string `validate:"required_if=GeoProvider ipify"`
	IpifyBaseURL string `validate:"required,url"`
	MMDBPath     string `validate:"required_if=GeoProvider mmdb"`

	// Weather provider
	WeatherAPIKey  string `validate:"required"`
	WeatherBaseURL string `validate:"required,url"`

	// Map
	TileURL         string `validate:"required"` // Slippy-map template, e.g. https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png
	TileAttribution string
	MapZoom         int `validate:"min=1,max=19"`

	// Default location cache
	DefaultCacheType string `validate:"required,oneof=memory redis"` // "memory" or "redis"

	// Page sessions idle longer than this are dropped with their default entry.
	// Zero keeps them until shutdown
	SessionTTL time.Duration `validate:"gte=0"`

	// Redis configuration
	RedisAddr     string `validate:"required_if=DefaultCacheType redis"`
	RedisPassword string
	RedisDB       int `validate:"min=0,max=15"`
}

// Load reads configuration from environment variables
// with sensible defaults
func Load() *Config {
	// Load .env file if it exists (for local development)
	// In production/Docker, environment variables are set directly
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		LogFile:   getEnv("LOG_FILE", ""),

		GeoProvider:  strings.ToLower(getEnv("GEO_PROVIDER", "ipify")),
		IpifyAPIKey:  getEnv("IPIFY_API_KEY", ""),
		IpifyBaseURL: getEnv("IPIFY_BASE_URL", "https://geo.ipify.org/api/v2/country,city"),
		MMDBPath:     getEnv("MMDB_PATH", ""),

		WeatherAPIKey:  getEnv("WEATHER_API_KEY", ""),
		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),

		TileURL:         getEnv("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttribution: getEnv("TILE_ATTRIBUTION", "&copy; OpenStreetMap contributors"),
		MapZoom:         getEnvAsInt("MAP_ZOOM", 13),

		DefaultCacheType: strings.ToLower(getEnv("DEFAULT_CACHE_TYPE", "memory")),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as a time.Duration ("30m", "24h")
// Returns default if not set or invalid
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as a boolean
// Accepts anything strconv.ParseBool does; returns default otherwise
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsList reads a comma-separated environment variable
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
