package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/BradenHooton/taskvault/internal/handlers"
	"github.com/BradenHooton/taskvault/internal/middleware"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth  *handlers.AuthHandler
	Tasks *handlers.TaskHandler
	Audit *handlers.AuditHandler
}

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	revocations auth.TokenRevocationChecker,
	limits config.RateLimitConfig,
	ipResolver *pkghttp.IPResolver,
	logger *slog.Logger,
) {
	requireAuth := auth.AuthMiddleware(tokenManager, revocations, auth.RevocationConfig{FailClosed: true}, logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Public login flow
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(ipResolver, limits.LoginRequestsPerMinute)).Post("/register", h.Auth.Register)
			r.With(middleware.RateLimitByIP(ipResolver, limits.LoginRequestsPerMinute)).Post("/login", h.Auth.Login)
			r.With(middleware.RateLimitByIP(ipResolver, limits.VerifyRequestsPerMinute)).Post("/verify-otp", h.Auth.VerifyOTP)
			r.With(middleware.RateLimitByIP(ipResolver, limits.ResendRequestsPerMinute)).Post("/resend-otp", h.Auth.ResendOTP)

			// Refresh is authenticated by cookie, so it carries the CSRF check
			r.With(
				middleware.RateLimitByIP(ipResolver, limits.LoginRequestsPerMinute),
				middleware.CSRFProtection(logger),
			).Post("/refresh", h.Auth.Refresh)

			r.With(requireAuth).Post("/logout", h.Auth.Logout)
		})

		// Authenticated API
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RateLimitByAccount(ipResolver, limits.APIRequestsPerMinute))

			r.Get("/me/security-events", h.Audit.ListMine)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.List)
				r.Post("/", h.Tasks.Create)
				r.Get("/stats", h.Tasks.Stats)
				r.Get("/{id}", h.Tasks.Get)
				r.Patch("/{id}", h.Tasks.Update)
				r.Delete("/{id}", h.Tasks.Delete)
			})
		})
	})
}

// RegisterOperational mounts /health and /metrics. Every check must pass for a 200.
func RegisterOperational(router chi.Router, checks map[string]HealthCheck) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "up"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		pkghttp.WriteJSON(w, status, map[string]interface{}{
			"status":     overall,
			"components": components,
		})
	})

	router.Handle("/metrics", promhttp.Handler())
}
