package router

import (
	"net/http"

	"github.com/evyataryagoni/ipweather/internal/handler"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	custommiddleware "github.com/evyataryagoni/ipweather/internal/middleware"
	v1 "github.com/evyataryagoni/ipweather/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the router
type Options struct {
	AllowedOrigins []string

	// Gatherer serves /metrics. Defaults to the global registry
	Gatherer prometheus.Gatherer
}

// SetupRouter creates and configures the Chi router with all middleware and routes
//
// Parameters:
//   - pageHandler: the map page handler
//   - m: metrics collector
//   - log: structured logger
//   - opts: CORS origins and metrics registry
func SetupRouter(pageHandler *handler.PageHandler, m *metrics.Metrics, log *logger.Logger, opts Options) chi.Router {
	r := chi.NewRouter()

	// Order matters: RequestID first so every log line carries it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// The map page
	r.Get("/", pageHandler.Index)

	r.Mount("/v1", v1.SetupRoutes(pageHandler))

	// Health check endpoint - used by load balancers and monitoring
	r.Get("/health", healthCheckHandler)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthCheckHandler returns 200 OK while the process is up
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
