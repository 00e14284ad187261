package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/config"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/database"
)

// Open builds the configured backend and initializes its storage.
func Open(ctx context.Context, cfg config.StoreConfig, db config.DatabaseConfig, logger *slog.Logger) (EventStore, error) {
	var store EventStore
	switch cfg.Backend {
	case config.BackendCSV:
		store = NewCSVStore(cfg.CSVPath, logger)
	case config.BackendSQLite:
		sqlDB, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = NewSQLiteStore(sqlDB)
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, db, logger)
		if err != nil {
			return nil, err
		}
		store = NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize %s store: %w", cfg.Backend, err)
	}
	logger.Info("event store ready", slog.String("backend", cfg.Backend))
	return store, nil
}
