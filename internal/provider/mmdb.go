package provider

import (
	"context"
	"fmt"
	"net"
	"time"
	_ "time/tzdata" // offsetLabel must not depend on the host zoneinfo

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/models"
	"github.com/oschwald/geoip2-golang"
)

const mmdbName = "mmdb"

// MMDBProvider implements GeoProvider using a local MaxMind City database
// (GeoLite2-City or GeoIP2-City). It never touches the network, so it cannot
// discover the caller's own public IP
type MMDBProvider struct {
	db *geoip2.Reader
}

// NewMMDBProvider opens the MMDB file at path
func NewMMDBProvider(path string) (*MMDBProvider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MMDB file: %w", err)
	}
	return &MMDBProvider{db: db}, nil
}

// LookupSelf is not supported by a local database
func (p *MMDBProvider) LookupSelf(ctx context.Context) (*models.LocationResult, error) {
	return nil, apperr.New(apperr.KindProvider, mmdbName, "lookup_self", "self lookup needs a remote geolocation provider")
}

// LookupIP reads the City record for ip
func (p *MMDBProvider) LookupIP(ctx context.Context, ip string) (*models.LocationResult, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, apperr.New(apperr.KindInvalidInput, mmdbName, "lookup_ip", "invalid IP address")
	}

	record, err := p.db.City(parsed)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProvider, mmdbName, "lookup_ip", err)
	}
	if record.Country.IsoCode == "" && record.City.Names["en"] == "" {
		return nil, apperr.New(apperr.KindProvider, mmdbName, "lookup_ip", "IP address not found")
	}

	location := &models.LocationResult{
		IP:         ip,
		City:       record.City.Names["en"],
		PostalCode: record.Postal.Code,
		Country:    record.Country.IsoCode,
		Timezone:   offsetLabel(record.Location.TimeZone, time.Now()),
	}
	if len(record.Subdivisions) > 0 {
		location.Region = record.Subdivisions[0].Names["en"]
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		location.Coordinates = &models.Coordinates{
			Lat: record.Location.Latitude,
			Lng: record.Location.Longitude,
		}
	}

	return location, nil
}

// Name implements GeoProvider
func (p *MMDBProvider) Name() string {
	return mmdbName
}

// Close releases the MMDB reader resources
func (p *MMDBProvider) Close() error {
	return p.db.Close()
}

// offsetLabel turns an IANA zone name into an offset like "-07:00" at instant
// now, matching what ipify reports. Unknown zones are returned unchanged
func offsetLabel(zone string, now time.Time) string {
	if zone == "" {
		return ""
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return zone
	}
	return now.In(loc).Format("-07:00")
}
