package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/BradenHooton/taskvault/internal/database"
	"github.com/BradenHooton/taskvault/internal/repositories"
	"github.com/BradenHooton/taskvault/internal/services"
	"github.com/redis/go-redis/v9"
)

// deps holds the process-wide dependencies shared by every subcommand
type deps struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.DB
	redis  *redis.Client
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// bootstrap loads configuration and opens the database. Redis is connected only
// when it backs the OTP store.
func (a *app) bootstrap(ctx context.Context) (*deps, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(a.stdout, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &deps{cfg: cfg, logger: logger, db: db}

	if cfg.LoginGuard.OTPStoreDriver == config.OTPStoreRedis {
		client, err := database.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.redis = client
	}

	return d, nil
}

func (d *deps) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn("failed to close redis client", slog.Any("error", err))
		}
	}
	d.db.Close()
}

// otpStore returns the configured challenge store
func (d *deps) otpStore() services.OTPStore {
	if d.redis != nil {
		return repositories.NewRedisOTPRepository(d.redis)
	}
	return repositories.NewOTPRepository(d.db)
}

// codeSender returns the configured notification transport
func (d *deps) codeSender(ctx context.Context) (services.CodeSender, error) {
	return newCodeSender(ctx, d.cfg.Notifier, d.logger)
}

func newCodeSender(ctx context.Context, cfg config.NotifierConfig, logger *slog.Logger) (services.CodeSender, error) {
	switch cfg.Driver {
	case config.NotifierSES:
		sender, err := services.NewSESCodeSender(ctx, cfg.AWSRegion, cfg.FromAddress, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ses notifier: %w", err)
		}
		return sender, nil
	case config.NotifierSMTP:
		return services.NewSMTPCodeSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromAddress, logger), nil
	case config.NotifierLog:
		logger.Warn("login codes are written to the log; do not use the log notifier in production")
		return services.NewLogCodeSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
	}
}
