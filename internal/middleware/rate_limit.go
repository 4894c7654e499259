package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitByIP limits requests per client IP over a one minute window. The IP
// comes from resolver, so forwarding headers count only behind trusted proxies.
func RateLimitByIP(resolver *pkghttp.IPResolver, requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(ipKey(resolver)),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// RateLimitByAccount limits authenticated requests per account. Requests without
// claims in context are keyed by IP.
func RateLimitByAccount(resolver *pkghttp.IPResolver, requestsPerMinute int) func(next http.Handler) http.Handler {
	byIP := ipKey(resolver)
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if claims := auth.GetUserFromContext(r); claims != nil && claims.UserID != "" {
				return "account:" + claims.UserID, nil
			}
			return byIP(r)
		}),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func ipKey(resolver *pkghttp.IPResolver) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		return "ip:" + resolver.ClientIP(r), nil
	}
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}
