// Package page holds the state of the map page: the displayed fields, the
// single marker and the cached default lookup. Every visitor session gets
// its own Controller through Sessions.
package page

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"
	"sync"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/cache"
	"github.com/evyataryagoni/ipweather/internal/classifier"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/models"
	"github.com/evyataryagoni/ipweather/internal/service"
	"github.com/umahmood/haversine"
)

const (
	DefaultZoom = 13

	// Shown before the first lookup
	initialZoom = 2

	NotApplicable      = "N/A"
	WeatherUnavailable = "Weather unavailable"
)

// Lookuper runs one lookup for raw user input
type Lookuper interface {
	Lookup(ctx context.Context, input string) (*service.LookupResult, error)
}

// Options configures a Controller. Zero values fall back to defaults
type Options struct {
	Zoom    int
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// Controller owns everything the page shows.
//
// Lookups run without holding the lock; only rendering is serialized. Two
// overlapping lookups are not coordinated and whichever finishes last is shown
type Controller struct {
	lookups  Lookuper
	defaults cache.DefaultCache
	zoom     int
	metrics  *metrics.Metrics
	logger   *logger.Logger

	mu           sync.Mutex
	display      models.Display
	marker       *models.Marker      // nil until the first located result
	markerHidden bool                // last result had no coordinates
	home         *models.Coordinates // default location, once known
}

// NewController creates a controller with an empty display centred on 0,0
func NewController(lookups Lookuper, defaults cache.DefaultCache, opts Options) *Controller {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault()
	}
	return &Controller{
		lookups:  lookups,
		defaults: defaults,
		zoom:     opts.Zoom,
		metrics:  opts.Metrics,
		logger:   opts.Logger.WithComponent("PageController"),
		display: models.Display{
			Map: models.MapView{Zoom: initialZoom},
		},
	}
}

// Load runs the unprompted lookup of the visitor's own IP. clientIP is the
// visitor's public address; empty means "whoever is making the call", which
// resolves to this process's egress IP. A successful result is stored in the
// default cache unless one is already there, and only the stored entry
// becomes the home location
func (c *Controller) Load(ctx context.Context, clientIP string) (models.Display, error) {
	result, err := c.lookups.Lookup(ctx, clientIP)
	if err != nil {
		return c.renderError(classifier.Classify(clientIP), err), err
	}

	entry := models.DefaultEntry{Location: result.Location, Weather: result.Weather}
	stored, cacheErr := c.defaults.SetOnce(ctx, entry)
	setHome := stored
	if cacheErr != nil {
		c.logger.Warn().Err(cacheErr).Str("backend", c.defaults.Backend()).Msg("Failed to cache default lookup")
		// Without a cache the first successful load stands in as home
		setHome = !c.hasHome()
	} else if stored {
		c.logger.Info().Str("ip", entry.Location.IP).Str("backend", c.defaults.Backend()).Msg("Default lookup cached")
	}

	return c.render(result.Location, result.Weather, result.WeatherErr, setHome), nil
}

// Search looks up raw user input. Blank input leaves the page untouched
// and makes no call
func (c *Controller) Search(ctx context.Context, raw string) (models.Display, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return c.Display(), nil
	}

	result, err := c.lookups.Lookup(ctx, query)
	if err != nil {
		return c.renderError(classifier.Classify(query), err), err
	}
	return c.render(result.Location, result.Weather, result.WeatherErr, false), nil
}

// ReloadDefault restores the cached default lookup without any network call.
// When nothing is cached yet it falls back to Load for clientIP
func (c *Controller) ReloadDefault(ctx context.Context, clientIP string) (models.Display, error) {
	entry, found, err := c.defaults.Get(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("backend", c.defaults.Backend()).Msg("Default cache read failed, treating as miss")
		found = false
	}

	if !found {
		c.recordCache("miss")
		return c.Load(ctx, clientIP)
	}

	c.recordCache("hit")
	c.logger.Debug().Str("ip", entry.Location.IP).Msg("Restoring default lookup from cache")

	var weatherErr error
	if entry.Weather == nil {
		weatherErr = apperr.New(apperr.KindMissingCoordinates, "cache", "reload", "no weather cached")
	}
	return c.render(entry.Location, entry.Weather, weatherErr, true), nil
}

// Display returns a copy of the current page state
func (c *Controller) Display() models.Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) hasHome() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.home != nil
}

// render writes every field for a successful lookup. A result without
// coordinates leaves the map where it was and hides the marker
func (c *Controller) render(location models.LocationResult, weather *models.WeatherResult, weatherErr error, setHome bool) models.Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.IP = location.IP
	if c.display.IP == "" {
		c.display.IP = NotApplicable
	}
	c.display.Location = FormatLocation(location)
	c.display.Timezone = "UTC " + location.Timezone
	c.display.ISP = location.ISP
	c.display.Weather = FormatWeather(weather, weatherErr)
	c.display.Error = ""
	c.display.DistanceKM = nil

	c.markerHidden = location.Coordinates == nil

	if coords := location.Coordinates; coords != nil {
		c.display.Map = models.MapView{Center: *coords, Zoom: c.zoom}

		if c.marker == nil {
			c.marker = &models.Marker{}
		}
		c.marker.Position = *coords
		c.marker.Popup = FormatPopup(c.display.IP, location)

		if setHome {
			home := *coords
			c.home = &home
		}
		if c.home != nil {
			km := DistanceKM(*c.home, *coords)
			c.display.DistanceKM = &km
		}
	}

	return c.snapshot()
}

// renderError keeps the previous fields and reports the failure
func (c *Controller) renderError(kind classifier.Kind, err error) models.Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.Weather = WeatherUnavailable
	c.display.Error = ErrorMessage(kind, err)
	return c.snapshot()
}

// snapshot copies the display so callers never share the marker. Caller holds mu
func (c *Controller) snapshot() models.Display {
	out := c.display
	if c.marker != nil && !c.markerHidden {
		marker := *c.marker
		out.Marker = &marker
	}
	if c.display.DistanceKM != nil {
		km := *c.display.DistanceKM
		out.DistanceKM = &km
	}
	return out
}

func (c *Controller) recordCache(result string) {
	if c.metrics != nil {
		c.metrics.DefaultCacheHits.WithLabelValues(c.defaults.Backend(), result).Inc()
	}
}

// Close releases the default cache
func (c *Controller) Close() error {
	return c.defaults.Close()
}

// FormatLocation renders "City, Region Postal". Place-name lookups have
// neither region nor postal code and render as just the city
func FormatLocation(location models.LocationResult) string {
	rest := strings.TrimSpace(location.Region + " " + location.PostalCode)
	if rest == "" {
		return location.City
	}
	return location.City + ", " + rest
}

// FormatWeather renders "<t>°C, <description>", or the placeholder when
// weather could not be fetched
func FormatWeather(weather *models.WeatherResult, err error) string {
	if err != nil || weather == nil {
		return WeatherUnavailable
	}
	return fmt.Sprintf("%.1f°C, %s", weather.TemperatureC, weather.Description)
}

// FormatPopup renders the marker popup. Provider text is escaped
func FormatPopup(ip string, location models.LocationResult) string {
	return fmt.Sprintf("<b>%s</b><br>%s, %s",
		html.EscapeString(ip),
		html.EscapeString(location.City),
		html.EscapeString(location.Country),
	)
}

// DistanceKM is the great-circle distance between two points, rounded to 0.1 km
func DistanceKM(from, to models.Coordinates) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: from.Lat, Lon: from.Lng},
		haversine.Coord{Lat: to.Lat, Lon: to.Lng},
	)
	return math.Round(km*10) / 10
}

// ErrorMessage picks the user-visible message for a failed lookup
func ErrorMessage(kind classifier.Kind, err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return "Invalid search input."
	case apperr.KindProvider:
		if kind == classifier.KindPlace {
			return "No weather found for that place."
		}
		return "No location found for that IP address."
	}
	if kind == classifier.KindPlace {
		return "Unable to get weather details."
	}
	return "Unable to get IP details."
}
