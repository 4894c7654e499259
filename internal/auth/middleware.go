package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/taskvault/internal/models"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing token claims in context
	UserContextKey contextKey = "user"
)

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationConfig holds configuration for token revocation behavior
type RevocationConfig struct {
	FailClosed bool // If true, deny access if revocation check fails; if false, allow access (fail open)
}

// AuthMiddleware validates bearer access tokens, checks revocation and injects claims into context
func AuthMiddleware(tm *TokenManager, revocationChecker TokenRevocationChecker, revocationConfig RevocationConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			// Refresh tokens are only accepted by /auth/refresh
			claims, err := tm.ValidateToken(tokenString, TokenTypeAccess)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			if revocationChecker != nil {
				revoked, err := revocationChecker.IsTokenRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("token revocation check failed", slog.Any("error", err))
					if revocationConfig.FailClosed {
						pkghttp.WriteServiceUnavailable(w, "unable to verify token status")
						return
					}
				}
				if revoked {
					pkghttp.WriteUnauthorized(w, "token has been revoked")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts token claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns a copy of ctx carrying claims. Used by handler tests.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
