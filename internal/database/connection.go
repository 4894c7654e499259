package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/taskvault/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewConnection opens a pgx pool sized from cfg and pings it before returning
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info("database connection established",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
		slog.Int("max_conns", int(cfg.MaxConns)),
	)

	return &DB{Pool: pool, logger: logger}, nil
}

// NewFromPool wraps an existing pool, e.g. one created by a test container.
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	return &DB{Pool: pool, logger: logger}
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.Pool.Close()
}

// HealthCheck pings the database with a short deadline
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// RegisterPoolMetrics exposes pool occupancy as gauges read at scrape time
func (db *DB) RegisterPoolMetrics(reg prometheus.Registerer) error {
	gauges := map[string]func(*pgxpool.Stat) int32{
		"taskvault_db_pool_acquired_conns": (*pgxpool.Stat).AcquiredConns,
		"taskvault_db_pool_idle_conns":     (*pgxpool.Stat).IdleConns,
		"taskvault_db_pool_total_conns":    (*pgxpool.Stat).TotalConns,
	}

	for name, read := range gauges {
		read := read
		gauge := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: "pgx pool connections (" + name + ")"},
			func() float64 { return float64(read(db.Pool.Stat())) },
		)
		if err := reg.Register(gauge); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}
	return nil
}
