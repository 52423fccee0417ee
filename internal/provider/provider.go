package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/models"
)

// GeoProvider looks up geographic information for IP addresses
// Implementations: IpifyClient (remote API) and MMDBProvider (local database)
type GeoProvider interface {
	// LookupSelf locates the caller's own public IP
	LookupSelf(ctx context.Context) (*models.LocationResult, error)

	// LookupIP locates the given IP address
	LookupIP(ctx context.Context, ip string) (*models.LocationResult, error)

	// Name identifies the provider in logs and metrics
	Name() string

	// Close releases any resources (database handles, idle connections)
	Close() error
}

// WeatherProvider fetches current weather
type WeatherProvider interface {
	// ByCoordinates is the reverse lookup: weather at a point
	ByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherResult, error)

	// ByCity is the forward lookup: weather for a place name
	ByCity(ctx context.Context, name string) (*models.WeatherResult, error)

	Name() string
}

// errorPayloadFunc extracts a provider-specific error from a response body.
// It returns nil when the body carries no error payload
type errorPayloadFunc func(body []byte) *apperr.Error

// jsonClient issues one GET per call and decodes the JSON response.
// There is no retry; the timeout is whatever the http.Client carries
type jsonClient struct {
	client       *http.Client
	baseURL      string
	provider     string
	errorPayload errorPayloadFunc
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func newJSONClient(client *http.Client, baseURL, provider string, errorPayload errorPayloadFunc, m *metrics.Metrics, log *logger.Logger) *jsonClient {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &jsonClient{
		client:       client,
		baseURL:      baseURL,
		provider:     provider,
		errorPayload: errorPayload,
		metrics:      m,
		logger:       log.WithComponent("provider").WithProvider(provider),
	}
}

// get performs the request and decodes into v.
// params are merged into any query string already present in baseURL
func (c *jsonClient) get(ctx context.Context, op string, params url.Values, v interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.observe(op, start, err)
	}()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, c.provider, op, fmt.Errorf("invalid base URL: %w", err))
	}
	query := u.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, c.provider, op, err)
	}
	req.Header.Set("Accept", "application/json")

	// The URL carries the API key, so only the operation is logged
	c.logger.Debug().Str("op", op).Msg("Sending provider request")

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error repeats the URL, API key included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return apperr.Wrap(apperr.KindNetwork, c.provider, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, c.provider, op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if perr := c.errorPayload(body); perr != nil {
			perr.Op = op
			perr.StatusCode = resp.StatusCode
			return perr
		}
		return &apperr.Error{
			Kind:       apperr.KindStatus,
			Provider:   c.provider,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	if perr := c.errorPayload(body); perr != nil {
		perr.Op = op
		perr.StatusCode = resp.StatusCode
		return perr
	}

	if err := json.Unmarshal(body, v); err != nil {
		return apperr.Wrap(apperr.KindDecode, c.provider, op, err)
	}

	return nil
}

// observe records the outcome of one provider call
func (c *jsonClient) observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = string(apperr.KindOf(err))
		c.logger.Warn().Err(err).Str("op", op).Msg("Provider request failed")
	}
	if c.metrics == nil {
		return
	}
	c.metrics.ProviderRequestsTotal.WithLabelValues(c.provider, op, result).Inc()
	c.metrics.ProviderRequestDuration.WithLabelValues(c.provider, op).Observe(time.Since(start).Seconds())
}
