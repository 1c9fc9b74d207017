package pg

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies pending schema migrations from cfg.MigrationsPath. goose
// speaks database/sql, so the pool is temporarily exposed through the pgx
// stdlib adapter; closing the adapter does not close the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	if cfg.MigrationsPath == "" {
		return ErrMigrationPathNotProvided
	}
	if info, err := os.Stat(cfg.MigrationsPath); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMigrationsDirNotFound, cfg.MigrationsPath)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if log != nil {
		goose.SetLogger(gooseLogger{log: log})
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToApplyMigrations, err)
	}
	return nil
}

// gooseLogger bridges goose's printf-style logging onto slog.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
