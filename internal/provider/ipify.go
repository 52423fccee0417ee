package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/models"
)

const ipifyName = "ipify"

// ipifyResponse mirrors the geo.ipify.org "country,city" response
type ipifyResponse struct {
	IP       string `json:"ip"`
	Location struct {
		Country    string   `json:"country"`
		Region     string   `json:"region"`
		City       string   `json:"city"`
		Lat        *float64 `json:"lat"`
		Lng        *float64 `json:"lng"`
		PostalCode string   `json:"postalCode"`
		Timezone   string   `json:"timezone"`
	} `json:"location"`
	ISP string `json:"isp"`
}

// ipifyError is the error payload, e.g. {"code":422,"messages":"Input correct IP address."}
type ipifyError struct {
	Code     int    `json:"code"`
	Messages string `json:"messages"`
}

// IpifyClient implements GeoProvider against the IP Geolocation API by ipify
type IpifyClient struct {
	http   *jsonClient
	apiKey string
}

// NewIpifyClient creates a client for baseURL (e.g. https://geo.ipify.org/api/v2/country,city).
// A nil client means a plain &http.Client{}; m and log may be nil
func NewIpifyClient(baseURL, apiKey string, client *http.Client, m *metrics.Metrics, log *logger.Logger) *IpifyClient {
	return &IpifyClient{
		http:   newJSONClient(client, baseURL, ipifyName, ipifyErrorPayload, m, log),
		apiKey: apiKey,
	}
}

// LookupSelf locates the public IP the request comes from
func (c *IpifyClient) LookupSelf(ctx context.Context) (*models.LocationResult, error) {
	return c.lookup(ctx, "lookup_self", "")
}

// LookupIP locates the given address
func (c *IpifyClient) LookupIP(ctx context.Context, ip string) (*models.LocationResult, error) {
	if ip == "" {
		return nil, apperr.New(apperr.KindInvalidInput, ipifyName, "lookup_ip", "empty IP address")
	}
	return c.lookup(ctx, "lookup_ip", ip)
}

func (c *IpifyClient) lookup(ctx context.Context, op, ip string) (*models.LocationResult, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if ip != "" {
		params.Set("ipAddress", ip)
	}

	var resp ipifyResponse
	if err := c.http.get(ctx, op, params, &resp); err != nil {
		return nil, err
	}

	location := &models.LocationResult{
		IP:         resp.IP,
		City:       resp.Location.City,
		Region:     resp.Location.Region,
		PostalCode: resp.Location.PostalCode,
		Country:    resp.Location.Country,
		Timezone:   resp.Location.Timezone,
		ISP:        resp.ISP,
	}
	if resp.Location.Lat != nil && resp.Location.Lng != nil {
		location.Coordinates = &models.Coordinates{Lat: *resp.Location.Lat, Lng: *resp.Location.Lng}
	}

	return location, nil
}

// Name implements GeoProvider
func (c *IpifyClient) Name() string {
	return ipifyName
}

// Close releases idle connections
func (c *IpifyClient) Close() error {
	c.http.client.CloseIdleConnections()
	return nil
}

func ipifyErrorPayload(body []byte) *apperr.Error {
	var payload ipifyError
	if err := json.Unmarshal(body, &payload); err != nil || payload.Messages == "" {
		return nil
	}
	return &apperr.Error{
		Kind:     apperr.KindProvider,
		Provider: ipifyName,
		Message:  payload.Messages,
	}
}
