package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/streak-engine/internal/config"
)

// Open connects the repository selected by cfg.Driver, applying migrations first for Postgres
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		return NewMemoryRepository(), nil

	case config.DriverPostgres:
		slog.Info("running database migrations", "dir", cfg.MigrationsDir)
		if err := MigrateFromDSN(ctx, cfg.DSN, MigrationSource(cfg.MigrationsDir)); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		repo, err := NewPostgresRepository(ctx, PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxOpenConns),
			MaxIdleConns: int32(cfg.MaxIdleConns),
		})
		if err != nil {
			return nil, err
		}
		slog.Info("database connected successfully")
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}
