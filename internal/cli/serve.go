package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/background"
	"github.com/BradenHooton/taskvault/internal/handlers"
	custommw "github.com/BradenHooton/taskvault/internal/middleware"
	"github.com/BradenHooton/taskvault/internal/repositories"
	"github.com/BradenHooton/taskvault/internal/routes"
	"github.com/BradenHooton/taskvault/internal/services"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, d)
		},
	}
}

func serve(ctx context.Context, d *deps) error {
	cfg, logger := d.cfg, d.logger

	// Repositories
	accountRepo := repositories.NewAccountRepository(d.db)
	eventRepo := repositories.NewSecurityEventRepository(d.db)
	revokeRepo := repositories.NewTokenRevocationRepository(d.db)
	taskRepo := repositories.NewTaskRepository(d.db)
	otpStore := d.otpStore()

	sender, err := d.codeSender(ctx)
	if err != nil {
		return err
	}

	// Services
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)
	timing := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	auditService := services.NewAuditService(eventRepo, logger)
	accountService := services.NewAccountService(accountRepo, auditService, logger)
	sessionService := services.NewSessionService(tokenManager, revokeRepo, accountRepo, auditService, logger)
	taskService := services.NewTaskService(taskRepo, logger)
	rateLimitService := services.NewRateLimitService(eventRepo, services.RateLimitConfig{
		MaxFailedPerIP:     cfg.RateLimit.MaxFailedPerIP,
		MaxFailedPerDevice: cfg.RateLimit.MaxFailedPerDevice,
		LookbackWindow:     cfg.RateLimit.LookbackWindow,
	}, logger)

	guard := services.NewLoginGuard(accountRepo, otpStore, auditService, sender, timing, services.LoginGuardConfig{
		MaxLoginAttempts: cfg.LoginGuard.MaxLoginAttempts,
		LockoutDuration:  cfg.LoginGuard.LockoutDuration,
		OTPExpiry:        cfg.LoginGuard.OTPExpiry,
		MaxOTPAttempts:   cfg.LoginGuard.MaxOTPAttempts,
	}, logger)

	// Handlers
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Server.Env == "production",
		SameSite: cfg.Auth.CookieSameSite,
	}
	ipResolver, err := pkghttp.NewIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	h := routes.Handlers{
		Auth:  handlers.NewAuthHandler(guard, accountService, sessionService, rateLimitService, ipResolver, cookieConfig, logger),
		Tasks: handlers.NewTaskHandler(taskService),
		Audit: handlers.NewAuditHandler(auditService),
	}

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(custommw.SecurityHeaders(custommw.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(custommw.CORS(custommw.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(custommw.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, tokenManager, revokeRepo, cfg.RateLimit, ipResolver, logger)

	checks := map[string]routes.HealthCheck{"database": d.db.HealthCheck}
	if d.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.redis.Ping(ctx).Err() }
	}
	routes.RegisterOperational(router, checks)

	if err := d.db.RegisterPoolMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("database pool metrics unavailable", slog.Any("error", err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(otpStore, revokeRepo, logger, cfg.Auth.CleanupInterval)
	go cleanupManager.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		cleanupManager.Stop()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	cleanupManager.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
