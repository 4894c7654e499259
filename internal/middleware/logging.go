package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/taskvault/internal/metrics"
	pkglogger "github.com/BradenHooton/taskvault/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SecureLogger logs each request with sensitive query strings redacted and
// records request metrics labelled by chi route pattern.
func SecureLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := routePattern(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			path := r.URL.Path
			if pkglogger.SanitizeQueryString(r.URL.RawQuery) {
				path += "?[REDACTED]"
			} else if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "http_request",
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// routePattern keeps metric cardinality bounded. Unmatched paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
