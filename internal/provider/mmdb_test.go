package provider

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/evyataryagoni/ipweather/internal/apperr"
)

const testMMDBPath = "../../testdata/GeoIP2-City-Test.mmdb"

func skipIfNoMMDB(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testMMDBPath); os.IsNotExist(err) {
		t.Skip("test MMDB file not found; download it with: curl -L -o testdata/GeoIP2-City-Test.mmdb https://github.com/maxmind/MaxMind-DB/raw/main/test-data/GeoIP2-City-Test.mmdb")
	}
}

func TestNewMMDBProvider_InvalidPath(t *testing.T) {
	_, err := NewMMDBProvider("/nonexistent/path.mmdb")
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestMMDBProvider_LookupIP(t *testing.T) {
	skipIfNoMMDB(t)

	p, err := NewMMDBProvider(testMMDBPath)
	if err != nil {
		t.Fatalf("failed to open MMDB: %v", err)
	}
	defer p.Close()

	location, err := p.LookupIP(context.Background(), "81.2.69.160")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if location.Country != "GB" {
		t.Errorf("expected country GB, got %s", location.Country)
	}
	if location.City != "London" {
		t.Errorf("expected city London, got %s", location.City)
	}
	if location.Coordinates == nil {
		t.Error("expected coordinates")
	}
}

func TestMMDBProvider_LookupIP_Errors(t *testing.T) {
	skipIfNoMMDB(t)

	p, err := NewMMDBProvider(testMMDBPath)
	if err != nil {
		t.Fatalf("failed to open MMDB: %v", err)
	}
	defer p.Close()

	tests := []struct {
		name string
		ip   string
		want apperr.Kind
	}{
		{"not an IP", "999.1.1.1", apperr.KindInvalidInput},
		{"not in database", "10.0.0.1", apperr.KindProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.LookupIP(context.Background(), tt.ip)
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("expected kind %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestMMDBProvider_LookupSelfUnsupported(t *testing.T) {
	p := &MMDBProvider{}

	_, err := p.LookupSelf(context.Background())
	if apperr.KindOf(err) != apperr.KindProvider {
		t.Errorf("expected provider error, got %v", err)
	}
	if p.Name() != "mmdb" {
		t.Errorf("expected name mmdb, got %s", p.Name())
	}
}

func TestOffsetLabel(t *testing.T) {
	summer := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		zone string
		at   time.Time
		want string
	}{
		{"America/Los_Angeles", summer, "-07:00"},
		{"America/Los_Angeles", winter, "-08:00"},
		{"Asia/Kolkata", summer, "+05:30"},
		{"UTC", summer, "+00:00"},
		{"Not/AZone", summer, "Not/AZone"},
		{"", summer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			if got := offsetLabel(tt.zone, tt.at); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewGeoProvider(t *testing.T) {
	p, err := NewGeoProvider(GeoConfig{Type: "ipify", IpifyBaseURL: "https://geo.ipify.org", IpifyAPIKey: "k"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ipify" {
		t.Errorf("expected ipify provider, got %s", p.Name())
	}

	if _, err := NewGeoProvider(GeoConfig{Type: "mmdb", MMDBPath: "/nonexistent.mmdb"}, nil, nil, nil); err == nil {
		t.Error("expected error for missing MMDB file")
	}

	if _, err := NewGeoProvider(GeoConfig{Type: "geoip"}, nil, nil, nil); err == nil {
		t.Error("expected error for unknown provider type")
	}
}
