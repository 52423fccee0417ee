package models

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationResult represents geographic information for an IP address or place.
// It is fully replaced on each lookup
type LocationResult struct {
	IP          string       `json:"ip,omitempty"` // Empty for place-name lookups
	City        string       `json:"city"`
	Region      string       `json:"region"`
	PostalCode  string       `json:"postal_code"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"` // nil when the provider returned none
	Timezone    string       `json:"timezone"`              // Offset label, e.g. "-07:00"
	ISP         string       `json:"isp"`
}

// WeatherResult represents current weather at a place
type WeatherResult struct {
	TemperatureC   float64     `json:"temperature_c"`
	Description    string      `json:"description"`
	Place          string      `json:"place"`
	CountryCode    string      `json:"country_code"`
	Coordinates    Coordinates `json:"coordinates"`
	TimezoneOffset int         `json:"timezone_offset"` // Seconds east of UTC
}

// DefaultEntry is the cached "home" lookup: the location found for the
// caller's own IP together with the weather fetched alongside it
type DefaultEntry struct {
	Location LocationResult `json:"location"`
	Weather  *WeatherResult `json:"weather,omitempty"`
}

// MapView is the map centre and zoom level
type MapView struct {
	Center Coordinates `json:"center"`
	Zoom   int         `json:"zoom"`
}

// Marker is the single map marker shown for the latest result
type Marker struct {
	Position Coordinates `json:"position"`
	Popup    string      `json:"popup"` // HTML, already escaped
}

// Display is everything the page renders
type Display struct {
	IP         string   `json:"ip"`
	Location   string   `json:"location"`
	Timezone   string   `json:"timezone"`
	ISP        string   `json:"isp"`
	Weather    string   `json:"weather"`
	Map        MapView  `json:"map"`
	Marker     *Marker  `json:"marker,omitempty"`
	DistanceKM *float64 `json:"distance_km,omitempty"` // Distance from the default location
	Error      string   `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format
// Display carries the page state after the failure was rendered
type ErrorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Display *Display `json:"display,omitempty"`
}
