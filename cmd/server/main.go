package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/ipweather/internal/app"
	"github.com/evyataryagoni/ipweather/internal/config"
	"github.com/evyataryagoni/ipweather/internal/handler"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/metrics"
	"github.com/evyataryagoni/ipweather/internal/router"
	"github.com/evyataryagoni/ipweather/internal/web"
)

func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	if err := appConfig.Validate(); err != nil {
		appLogger.Fatal().Err(err).Msg("Configuration rejected")
	}

	metricsCollector := setupMetrics(appLogger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application, err := app.New(startupCtx, appConfig, metricsCollector, appLogger)
	cancel()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("Error during cleanup")
		}
	}()

	renderer, err := web.NewRenderer(web.PageData{
		TileURL:         appConfig.TileURL,
		TileAttribution: appConfig.TileAttribution,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to load page template")
	}

	// Build application layers
	pageHandler := handler.NewPageHandler(application.Sessions, renderer, appLogger)
	appRouter := router.SetupRouter(pageHandler, metricsCollector, appLogger, router.Options{
		AllowedOrigins: appConfig.CORSAllowedOrigins,
	})

	// Start server
	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:      appConfig.LogLevel,
		Pretty:     appConfig.LogPretty,
		OutputFile: appConfig.LogFile,
		Service:    "ipweather",
	})

	appLogger.Info().Msg("Starting IP Weather Server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("geo_provider", appConfig.GeoProvider).
		Str("default_cache_type", appConfig.DefaultCacheType).
		Dur("session_ttl", appConfig.SessionTTL).
		Int("map_zoom", appConfig.MapZoom).
		Strs("cors_allowed_origins", appConfig.CORSAllowedOrigins).
		Msg("Configuration loaded")

	return appLogger
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer runs the HTTP server until SIGINT/SIGTERM, then shuts down gracefully
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", appConfig.Port).
			Str("page", "http://localhost:"+appConfig.Port+"/").
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/search?q=<ip or place>").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped")
}
