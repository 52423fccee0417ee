package provider

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/models"
)

const openWeatherMapName = "openweathermap"

// owmResponse mirrors the OpenWeatherMap current weather response
type owmResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

// owmError covers both success and error bodies: cod is 200 (number) on
// success and "404" (string) on errors such as {"cod":"404","message":"city not found"}
type owmError struct {
	Cod     json.Number `json:"cod"`
	Message string      `json:"message"`
}

// OpenWeatherMapClient implements WeatherProvider against api.openweathermap.org.
// Temperatures are requested in metric units
type OpenWeatherMapClient struct {
	http   *jsonClient
	apiKey string
}

// NewOpenWeatherMapClient creates a client for baseURL (e.g. https://api.openweathermap.org/data/2.5/weather)
func NewOpenWeatherMapClient(baseURL, apiKey string, client *http.Client, m *metrics.Metrics, log *logger.Logger) *OpenWeatherMapClient {
	return &OpenWeatherMapClient{
		http:   newJSONClient(client, baseURL, openWeatherMapName, owmErrorPayload, m, log),
		apiKey: apiKey,
	}
}

// ByCoordinates fetches weather at lat/lon. Non-finite or out-of-range
// coordinates are rejected without issuing a request
func (c *OpenWeatherMapClient) ByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherResult, error) {
	if err := CheckCoordinates(lat, lon); err != nil {
		err.Provider = openWeatherMapName
		err.Op = "by_coordinates"
		return nil, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, "by_coordinates", params)
}

// ByCity fetches weather for a place name such as "Paris" or "London,GB"
func (c *OpenWeatherMapClient) ByCity(ctx context.Context, name string) (*models.WeatherResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidInput, openWeatherMapName, "by_city", "empty place name")
	}

	params := url.Values{}
	params.Set("q", name)
	return c.fetch(ctx, "by_city", params)
}

func (c *OpenWeatherMapClient) fetch(ctx context.Context, op string, params url.Values) (*models.WeatherResult, error) {
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var resp owmResponse
	if err := c.http.get(ctx, op, params, &resp); err != nil {
		return nil, err
	}

	result := &models.WeatherResult{
		TemperatureC:   resp.Main.Temp,
		Place:          resp.Name,
		CountryCode:    resp.Sys.Country,
		Coordinates:    models.Coordinates{Lat: resp.Coord.Lat, Lng: resp.Coord.Lon},
		TimezoneOffset: resp.Timezone,
	}
	if len(resp.Weather) > 0 {
		result.Description = resp.Weather[0].Description
	}

	return result, nil
}

// Name implements WeatherProvider
func (c *OpenWeatherMapClient) Name() string {
	return openWeatherMapName
}

// CheckCoordinates returns an invalid_input error for NaN, infinite or
// out-of-range coordinates
func CheckCoordinates(lat, lon float64) *apperr.Error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0):
		return &apperr.Error{Kind: apperr.KindInvalidInput, Message: "coordinates must be finite"}
	case lat < -90 || lat > 90 || lon < -180 || lon > 180:
		return &apperr.Error{Kind: apperr.KindInvalidInput, Message: "coordinates out of range"}
	}
	return nil
}

func owmErrorPayload(body []byte) *apperr.Error {
	var payload owmError
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	if payload.Cod == "" || payload.Cod == "200" {
		return nil
	}
	message := payload.Message
	if message == "" {
		message = "error code " + payload.Cod.String()
	}
	return &apperr.Error{
		Kind:     apperr.KindProvider,
		Provider: openWeatherMapName,
		Message:  message,
	}
}
