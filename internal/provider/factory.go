package provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
)

// GeoConfig holds configuration for creating a geolocation provider
type GeoConfig struct {
	Type string // "ipify" or "mmdb"

	// ipify-specific config
	IpifyBaseURL string
	IpifyAPIKey  string

	// mmdb-specific config
	MMDBPath string
}

// NewGeoProvider creates a geolocation provider based on the configuration (factory pattern)
func NewGeoProvider(cfg GeoConfig, client *http.Client, m *metrics.Metrics, log *logger.Logger) (GeoProvider, error) {
	providerType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch providerType {
	case "ipify", "":
		return NewIpifyClient(cfg.IpifyBaseURL, cfg.IpifyAPIKey, client, m, log), nil

	case "mmdb":
		p, err := NewMMDBProvider(cfg.MMDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create MMDB provider: %w", err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown geolocation provider: %s (supported: 'ipify', 'mmdb')", cfg.Type)
	}
}
