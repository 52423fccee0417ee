package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evyataryagoni/ipweather/internal/cache"
	"github.com/evyataryagoni/ipweather/internal/handler"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/page"
	"github.com/evyataryagoni/ipweather/internal/provider"
	"github.com/evyataryagoni/ipweather/internal/service"
	"github.com/evyataryagoni/ipweather/internal/web"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	svc := service.NewLookupService(provider.NewMockGeoProvider(), provider.NewMockWeatherProvider(), m, log)
	sessions := page.NewSessions(svc, cache.NewMemoryStore(), time.Hour, page.Options{Metrics: m, Logger: log})
	t.Cleanup(func() { sessions.Close() })
	renderer, err := web.NewRenderer(web.PageData{TileURL: "https://tiles.example.com/{z}/{x}/{y}.png"})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	return SetupRouter(handler.NewPageHandler(sessions, renderer, log), m, log, Options{
		AllowedOrigins: []string{"https://maps.example.com"},
		Gatherer:       reg,
	})
}

// TestRouter_Routes tests that every route is wired
func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		path           string
		expectedStatus int
		bodyContains   string
	}{
		{"/", http.StatusOK, "<title>IP Weather</title>"},
		{"/health", http.StatusOK, "OK"},
		{"/v1/load", http.StatusOK, `"ip":"203.0.113.7"`},
		{"/v1/search?q=8.8.8.8", http.StatusOK, `"ip":"8.8.8.8"`},
		{"/v1/search?q=Atlantis", http.StatusNotFound, `"kind":"provider"`},
		{"/v1/reload-default", http.StatusOK, `"ip":"203.0.113.7"`},
		{"/v1/display", http.StatusOK, `"ip":"203.0.113.7"`},
		{"/v1/find-country?ip=8.8.8.8", http.StatusNotFound, ""},
	}

	// Order matters: reload and display follow the load above in the same session
	var cookies []*http.Cookie
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)
		if issued := rec.Result().Cookies(); len(issued) > 0 {
			if cookies != nil {
				t.Errorf("%s: expected the session to be reused", tt.path)
			}
			cookies = issued
		}

		if rec.Code != tt.expectedStatus {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.expectedStatus, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.bodyContains) {
			t.Errorf("%s: expected body to contain %s, got %s", tt.path, tt.bodyContains, rec.Body.String())
		}
	}
}

// TestRouter_ForwardedClientIP tests that the visitor address from a proxy
// header drives the unprompted lookup
func TestRouter_ForwardedClientIP(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/load", nil)
	req.RemoteAddr = "10.0.0.5:40000"
	req.Header.Set("X-Forwarded-For", "8.8.8.8, 10.0.0.5")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ip":"8.8.8.8"`) {
		t.Errorf("expected forwarded visitor to be located, got %s", rec.Body.String())
	}
}

// TestRouter_Metrics tests that lookups show up on /metrics
func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/search?q=Paris", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`http_requests_total{endpoint="/v1/search",method="GET",status="200"} 1`,
		`lookups_total{input="place",result="success"} 1`,
		`active_sessions 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %s", want)
		}
	}
}

// TestRouter_CORS tests the CORS preflight
func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/search?q=Paris", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/display", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}
