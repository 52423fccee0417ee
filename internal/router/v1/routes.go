package v1

import (
	"github.com/evyataryagoni/ipweather/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all v1 API routes
// This function is called by the main router to setup /v1/* endpoints
func SetupRoutes(pageHandler *handler.PageHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/search?q=<ip or place>
	r.Get("/search", pageHandler.Search)

	// Unprompted lookup of the caller's own IP, run on page load
	r.Get("/load", pageHandler.Load)

	// Restore the cached default lookup
	r.Get("/reload-default", pageHandler.ReloadDefault)

	r.Get("/display", pageHandler.Display)

	return r
}
