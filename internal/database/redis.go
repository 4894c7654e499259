package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	logger.Info("redis connection established", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))

	return client, nil
}
