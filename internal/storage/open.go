package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/setlog/internal/config"
	"github.com/claude/setlog/internal/metrics"
	"github.com/claude/setlog/internal/storage/sqlite"
	"github.com/claude/setlog/internal/training"
)

// Open connects the store selected by cfg.Driver. Postgres migrations are
// applied first and the pool stats are registered with inst, which may be
// nil. The returned func releases the store.
func Open(ctx context.Context, cfg config.DatabaseConfig, inst *metrics.Instrumentation, log *slog.Logger) (training.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database opened", "driver", cfg.Driver, "path", cfg.Path)
		return db, func() {
			if err := db.Close(); err != nil {
				log.Warn("closing database", "error", err)
			}
		}, nil

	case config.DriverPostgres:
		dsn := cfg.DSN()
		if err := RunMigrations(dsn); err != nil {
			return nil, nil, fmt.Errorf("migrating: %w", err)
		}
		log.Info("migrations applied")

		db, err := New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		collector := pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Name})
		if err := inst.Register(collector); err != nil {
			log.Warn("registering pool metrics", "error", err)
		}
		log.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
