package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies a goose command (up, down, status) using the embedded SQL migrations.
func (db *DB) Migrate(ctx context.Context, command string) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, sqlDB, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, sqlDB, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, sqlDB, migrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	db.logger.Info("migrations applied", slog.String("command", command))
	return nil
}
