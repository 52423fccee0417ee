package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/classifier"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/models"
	"github.com/evyataryagoni/ipweather/internal/provider"
	"github.com/go-playground/validator/v10"
)

// LookupResult is the outcome of one lookup.
// A weather failure does not fail the lookup; it is carried in WeatherErr
type LookupResult struct {
	Input      classifier.Kind
	Query      string
	Location   models.LocationResult
	Weather    *models.WeatherResult
	WeatherErr error
}

// LookupService dispatches user input to the geolocation or weather provider
//
// Responsibilities:
//   - Classify input (self / IP / place name)
//   - Call exactly one provider per step, no retries
//   - Augment IP lookups with weather at the returned coordinates
//   - Return typed errors; rendering is the caller's business
type LookupService struct {
	geo       provider.GeoProvider
	weather   provider.WeatherProvider
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewLookupService creates a new lookup service
// m and log may be nil
func NewLookupService(geo provider.GeoProvider, weather provider.WeatherProvider, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		geo:       geo,
		weather:   weather,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("LookupService"),
	}
}

// Lookup classifies input and runs the matching lookup.
// Empty input means the caller's own IP
func (s *LookupService) Lookup(ctx context.Context, input string) (*LookupResult, error) {
	query := strings.TrimSpace(input)
	kind := classifier.Classify(query)

	if err := s.validator.Var(query, "max=200"); err != nil {
		s.logger.Warn().Int("length", len(query)).Msg("Lookup input too long")
		return nil, s.fail(kind, apperr.New(apperr.KindInvalidInput, "lookup", "validate", "input too long"))
	}

	var (
		result *LookupResult
		err    error
	)
	switch kind {
	case classifier.KindEmpty:
		result, err = s.lookupLocation(ctx, kind, "", s.geo.LookupSelf)
	case classifier.KindIP:
		result, err = s.lookupLocation(ctx, kind, query, func(ctx context.Context) (*models.LocationResult, error) {
			return s.geo.LookupIP(ctx, query)
		})
	default:
		result, err = s.lookupPlace(ctx, query)
	}
	if err != nil {
		return nil, s.fail(kind, err)
	}

	s.logger.Info().
		Str("input", kind.String()).
		Str("city", result.Location.City).
		Str("country", result.Location.Country).
		Bool("weather", result.Weather != nil).
		Msg("Lookup successful")
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(kind.String(), "success").Inc()
	}
	return result, nil
}

// lookupLocation runs a geolocation call and then the weather step
func (s *LookupService) lookupLocation(ctx context.Context, kind classifier.Kind, query string, locate func(context.Context) (*models.LocationResult, error)) (*LookupResult, error) {
	location, err := locate(ctx)
	if err != nil {
		return nil, err
	}

	result := &LookupResult{
		Input:    kind,
		Query:    query,
		Location: *location,
	}
	result.Weather, result.WeatherErr = s.WeatherFor(ctx, location)
	if result.WeatherErr != nil {
		s.logger.Warn().Err(result.WeatherErr).Str("ip", location.IP).Msg("Weather unavailable for location")
		if s.metrics != nil {
			s.metrics.LookupsErrors.WithLabelValues(string(apperr.KindOf(result.WeatherErr))).Inc()
		}
	}
	return result, nil
}

// lookupPlace is a single forward weather lookup; the location is built from it
func (s *LookupService) lookupPlace(ctx context.Context, query string) (*LookupResult, error) {
	weather, err := s.weather.ByCity(ctx, query)
	if err != nil {
		return nil, err
	}

	coords := weather.Coordinates
	return &LookupResult{
		Input: classifier.KindPlace,
		Query: query,
		Location: models.LocationResult{
			City:        weather.Place,
			Country:     weather.CountryCode,
			Coordinates: &coords,
			Timezone:    FormatOffset(weather.TimezoneOffset),
		},
		Weather: weather,
	}, nil
}

// WeatherFor fetches weather at the location's coordinates.
// A location without coordinates is an error and no request is made
func (s *LookupService) WeatherFor(ctx context.Context, location *models.LocationResult) (*models.WeatherResult, error) {
	if location.Coordinates == nil {
		return nil, apperr.New(apperr.KindMissingCoordinates, s.weather.Name(), "by_coordinates", "location has no coordinates")
	}
	return s.weather.ByCoordinates(ctx, location.Coordinates.Lat, location.Coordinates.Lng)
}

// fail records a failed lookup and passes the error through
func (s *LookupService) fail(kind classifier.Kind, err error) error {
	errKind := apperr.KindOf(err)
	s.logger.Error().Err(err).Str("input", kind.String()).Str("error_kind", string(errKind)).Msg("Lookup failed")
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(kind.String(), "error").Inc()
		s.metrics.LookupsErrors.WithLabelValues(string(errKind)).Inc()
	}
	return err
}

// Close cleans up resources
// This will close the underlying geolocation provider
func (s *LookupService) Close() error {
	return s.geo.Close()
}

// FormatOffset renders an offset in seconds east of UTC as "+02:00" / "-05:30"
func FormatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
