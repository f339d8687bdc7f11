// Package bootstrap opens the configured storage backend for the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/sqlite"
)

// Backend is an opened store plus what is needed to probe and close it.
type Backend struct {
	Store repository.Store
	// Driver names the backend, e.g. in readiness output.
	Driver string
	Pinger persistence.Pinger
	close  func()
}

// Close releases the underlying connections.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// OpenStore connects to the backend selected by STORAGE_DRIVER and applies
// migrations when enabled.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Storage.RunMigrations {
			if err := persistence.RunPostgresMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		pool := pg.PoolHandle()
		return &Backend{
			Store: repository.Store{
				Users:   repository.NewUserRepository(pool),
				Tickets: repository.NewTicketRepository(pool),
			},
			Driver: config.DriverPostgres,
			Pinger: pg,
			close:  pg.Close,
		}, nil

	case config.DriverSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.RunMigrations {
			if err := persistence.RunSQLiteMigrations(ctx, db.DB, logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		return &Backend{
			Store:  sqlite.NewStore(db.DB),
			Driver: config.DriverSQLite,
			Pinger: db,
			close:  db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
