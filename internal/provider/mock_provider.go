package provider

import (
	"context"
	"sync"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/models"
)

// MockGeoProvider is a test double for the GeoProvider interface.
// Every call counts as one network call
type MockGeoProvider struct {
	mu sync.Mutex

	// Self is returned by LookupSelf; Data maps IP -> location for LookupIP
	Self *models.LocationResult
	Data map[string]*models.LocationResult

	// Track method calls for verification in tests
	LookupSelfCalls int
	LookupIPCalls   []string
	CloseCalled     bool

	// Control behavior for error scenarios
	Err error
}

// NewMockGeoProvider creates a mock pre-populated with common test IPs
func NewMockGeoProvider() *MockGeoProvider {
	return &MockGeoProvider{
		Self: &models.LocationResult{
			IP:          "203.0.113.7",
			City:        "Amsterdam",
			Region:      "North Holland",
			PostalCode:  "1012",
			Country:     "NL",
			Coordinates: &models.Coordinates{Lat: 52.37403, Lng: 4.88969},
			Timezone:    "+02:00",
			ISP:         "Example Broadband",
		},
		Data: map[string]*models.LocationResult{
			"8.8.8.8": {
				IP:          "8.8.8.8",
				City:        "Mountain View",
				Region:      "California",
				PostalCode:  "94043",
				Country:     "US",
				Coordinates: &models.Coordinates{Lat: 37.38605, Lng: -122.08385},
				Timezone:    "-07:00",
				ISP:         "Google LLC",
			},
			"1.1.1.1": {
				IP:          "1.1.1.1",
				City:        "Sydney",
				Region:      "New South Wales",
				PostalCode:  "2000",
				Country:     "AU",
				Coordinates: &models.Coordinates{Lat: -33.86785, Lng: 151.20732},
				Timezone:    "+10:00",
				ISP:         "Cloudflare, Inc.",
			},
			"192.0.2.1": {
				IP:       "192.0.2.1",
				City:     "Unknown",
				Country:  "ZZ",
				Timezone: "+00:00",
				ISP:      "Documentation Net",
			},
		},
	}
}

// LookupSelf implements GeoProvider
func (m *MockGeoProvider) LookupSelf(ctx context.Context) (*models.LocationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupSelfCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Self == nil {
		return nil, apperr.New(apperr.KindProvider, "mock", "lookup_self", "no self location configured")
	}
	copied := *m.Self
	return &copied, nil
}

// LookupIP implements GeoProvider
func (m *MockGeoProvider) LookupIP(ctx context.Context, ip string) (*models.LocationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupIPCalls = append(m.LookupIPCalls, ip)
	if m.Err != nil {
		return nil, m.Err
	}
	location, exists := m.Data[ip]
	if !exists {
		return nil, apperr.New(apperr.KindProvider, "mock", "lookup_ip", "IP address not found")
	}
	copied := *location
	return &copied, nil
}

// Calls returns the total number of lookups made
func (m *MockGeoProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LookupSelfCalls + len(m.LookupIPCalls)
}

// Name implements GeoProvider
func (m *MockGeoProvider) Name() string {
	return "mock"
}

// Close implements GeoProvider
func (m *MockGeoProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// MockWeatherProvider is a test double for the WeatherProvider interface
type MockWeatherProvider struct {
	mu sync.Mutex

	// Result is returned for every coordinates lookup; Cities maps name -> weather
	Result *models.WeatherResult
	Cities map[string]*models.WeatherResult

	// Track method calls for verification in tests
	ByCoordinatesCalls []models.Coordinates
	ByCityCalls        []string

	// Control behavior for error scenarios
	Err error
}

// NewMockWeatherProvider creates a mock with a fixed coordinates result and a few cities
func NewMockWeatherProvider() *MockWeatherProvider {
	return &MockWeatherProvider{
		Result: &models.WeatherResult{
			TemperatureC:   18.4,
			Description:    "scattered clouds",
			Place:          "Mountain View",
			CountryCode:    "US",
			Coordinates:    models.Coordinates{Lat: 37.39, Lng: -122.08},
			TimezoneOffset: -25200,
		},
		Cities: map[string]*models.WeatherResult{
			"Paris": {
				TemperatureC:   21.2,
				Description:    "clear sky",
				Place:          "Paris",
				CountryCode:    "FR",
				Coordinates:    models.Coordinates{Lat: 48.8534, Lng: 2.3488},
				TimezoneOffset: 7200,
			},
		},
	}
}

// ByCoordinates implements WeatherProvider. Like the real client it rejects
// non-finite coordinates without counting a network call
func (m *MockWeatherProvider) ByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherResult, error) {
	if err := CheckCoordinates(lat, lon); err != nil {
		err.Provider = "mock"
		err.Op = "by_coordinates"
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ByCoordinatesCalls = append(m.ByCoordinatesCalls, models.Coordinates{Lat: lat, Lng: lon})
	if m.Err != nil {
		return nil, m.Err
	}
	copied := *m.Result
	return &copied, nil
}

// ByCity implements WeatherProvider
func (m *MockWeatherProvider) ByCity(ctx context.Context, name string) (*models.WeatherResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ByCityCalls = append(m.ByCityCalls, name)
	if m.Err != nil {
		return nil, m.Err
	}
	weather, exists := m.Cities[name]
	if !exists {
		return nil, apperr.New(apperr.KindProvider, "mock", "by_city", "city not found")
	}
	copied := *weather
	return &copied, nil
}

// Calls returns the total number of weather lookups made
func (m *MockWeatherProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ByCoordinatesCalls) + len(m.ByCityCalls)
}

// Name implements WeatherProvider
func (m *MockWeatherProvider) Name() string {
	return "mock"
}
