package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"net/netip"

	"github.com/evyataryagoni/ipweather/internal/apperr"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/models"
	"github.com/evyataryagoni/ipweather/internal/page"
	"github.com/evyataryagoni/ipweather/internal/web"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// SessionCookie carries the visitor's page session id
const SessionCookie = "ipweather_session"

// Ranges the geolocation provider cannot place. A visitor arriving from one
// of these is looked up by this server's own egress IP instead
var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),   // carrier-grade NAT
	netip.MustParsePrefix("192.0.2.0/24"),    // documentation
	netip.MustParsePrefix("198.51.100.0/24"), // documentation
	netip.MustParsePrefix("203.0.113.0/24"),  // documentation
	netip.MustParsePrefix("2001:db8::/32"),   // documentation
}

// PageHandler handles HTTP requests for the map page
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Resolve the visitor's session and public IP
//   - Call that session's page controller
//   - Format HTTP responses (JSON or HTML)
//   - Map error kinds to status codes
type PageHandler struct {
	sessions *page.Sessions
	renderer *web.Renderer
	logger   *logger.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(sessions *page.Sessions, renderer *web.Renderer, log *logger.Logger) *PageHandler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &PageHandler{
		sessions: sessions,
		renderer: renderer,
		logger:   log.WithComponent("PageHandler"),
	}
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w); err != nil {
		h.logger.WithRequestID(middleware.GetReqID(r.Context())).Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// Search handles GET /v1/search?q=<ip or place>
// Blank q returns the current display without a lookup
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	controller, log := h.session(w, r)
	display, err := controller.Search(r.Context(), r.URL.Query().Get("q"))
	h.respond(w, log, display, err)
}

// Load handles GET /v1/load, the unprompted lookup of the visitor's own IP
func (h *PageHandler) Load(w http.ResponseWriter, r *http.Request) {
	controller, log := h.session(w, r)
	clientIP := ClientIP(r)
	log.WithClientIP(clientIP).Debug().Msg("Loading visitor location")

	display, err := controller.Load(r.Context(), clientIP)
	h.respond(w, log, display, err)
}

// ReloadDefault handles GET /v1/reload-default
func (h *PageHandler) ReloadDefault(w http.ResponseWriter, r *http.Request) {
	controller, log := h.session(w, r)
	display, err := controller.ReloadDefault(r.Context(), ClientIP(r))
	h.respond(w, log, display, err)
}

// Display handles GET /v1/display
func (h *PageHandler) Display(w http.ResponseWriter, r *http.Request) {
	controller, _ := h.session(w, r)
	h.respondJSON(w, http.StatusOK, controller.Display())
}

// session returns the caller's controller, issuing a session cookie on the
// first request. Unknown or malformed cookie values start a new session
func (h *PageHandler) session(w http.ResponseWriter, r *http.Request) (*page.Controller, *logger.Logger) {
	var id string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			id = cookie.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	log := h.logger.WithRequestID(middleware.GetReqID(r.Context())).WithSession(id)
	return h.sessions.Controller(id), log
}

func (h *PageHandler) respond(w http.ResponseWriter, log *logger.Logger, display models.Display, err error) {
	if err != nil {
		h.respondError(w, log, err, display)
		return
	}
	h.respondJSON(w, http.StatusOK, display)
}

// respondJSON writes a JSON response with the given status code
func (h *PageHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes an error response carrying the rendered display
func (h *PageHandler) respondError(w http.ResponseWriter, log *logger.Logger, err error, display models.Display) {
	kind := apperr.KindOf(err)
	log.Warn().Err(err).Str("error_kind", string(kind)).Msg("Lookup request failed")

	message := display.Error
	if message == "" {
		message = err.Error()
	}
	h.respondJSON(w, StatusFor(kind), models.ErrorResponse{
		Error:   message,
		Kind:    string(kind),
		Display: &display,
	})
}

// ClientIP returns the visitor's public address from r.RemoteAddr, which
// chi's RealIP middleware has already taken from X-Forwarded-For or
// X-Real-IP when a proxy set them. Addresses the provider cannot place
// (loopback, private, link-local, documentation) return ""
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return ""
	}
	addr = addr.Unmap().WithZone("")

	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || addr.IsMulticast() {
		return ""
	}
	for _, prefix := range nonPublicPrefixes {
		if prefix.Contains(addr) {
			return ""
		}
	}
	return addr.String()
}

// StatusFor maps an error kind to an HTTP status
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindProvider:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
