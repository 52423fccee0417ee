package middleware

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// LoggingMiddleware attaches a request-scoped logger to the context and
// writes one access line per request. The line is logged at error for 5xx,
// warn for 4xx and info otherwise
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	stages := []func(http.Handler) http.Handler{
		hlog.NewHandler(*log.WithComponent("HTTP").Logger),
		requestIDHandler,
		hlog.MethodHandler("method"),
		hlog.RemoteAddrHandler("remote_addr"),
		hlog.UserAgentHandler("user_agent"),
		hlog.AccessHandler(logAccess),
	}

	return func(next http.Handler) http.Handler {
		for i := len(stages) - 1; i >= 0; i-- {
			next = stages[i](next)
		}
		return next
	}
}

// requestIDHandler copies chi's request id into the request logger
func requestIDHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func logAccess(r *http.Request, status, size int, duration time.Duration) {
	log := hlog.FromRequest(r)

	var event *zerolog.Event
	switch {
	case status >= 500:
		event = log.Error()
	case status >= 400:
		event = log.Warn()
	default:
		event = log.Info()
	}

	event.
		Str("path", r.URL.Path).
		Int("status", status).
		Int("bytes", size).
		Dur("duration_ms", duration).
		Msg("Request completed")
}
