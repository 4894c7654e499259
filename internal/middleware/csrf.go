package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/taskvault/internal/auth"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
)

// CSRFProtection guards cookie-authenticated endpoints with the double-submit pattern:
// state-changing requests must echo the csrf_token cookie in the X-CSRF-Token header.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(auth.CSRFTokenHeader)
			cookie, err := r.Cookie(auth.CSRFTokenCookie)
			if err != nil || cookie.Value == "" || header == "" {
				logger.Warn("CSRF token missing in request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "CSRF token missing")
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
