// Package storage opens the repositories selected by STORAGE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"shopbridge/internal/config"
	"shopbridge/internal/db"
	"shopbridge/internal/repository/memory"
	orderrepo "shopbridge/internal/repository/order"
	productrepo "shopbridge/internal/repository/product"
	rolerepo "shopbridge/internal/repository/role"
	sessionrepo "shopbridge/internal/repository/session"
	settingsrepo "shopbridge/internal/repository/settings"
	userrepo "shopbridge/internal/repository/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Repos is one complete set of repositories. Pool is nil for the memory
// driver.
type Repos struct {
	Products productrepo.Repository
	Settings settingsrepo.Repository
	Orders   orderrepo.Repository
	Sessions sessionrepo.Repository
	Roles    rolerepo.Repository
	Users    userrepo.Repository
	Pool     *pgxpool.Pool
}

// Close releases the database pool, if any.
func (r *Repos) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}

func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Repos, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return Memory(memory.NewStore()), nil
	case config.StoragePostgres, "":
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		return Postgres(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func Postgres(pool *pgxpool.Pool, logger *zap.Logger) *Repos {
	return &Repos{
		Products: productrepo.NewPostgres(pool, logger),
		Settings: settingsrepo.NewPostgres(pool, logger),
		Orders:   orderrepo.NewPostgres(pool, logger),
		Sessions: sessionrepo.NewPostgres(pool),
		Roles:    rolerepo.NewPostgres(pool),
		Users:    userrepo.NewPostgres(pool, logger),
		Pool:     pool,
	}
}

func Memory(store *memory.Store) *Repos {
	return &Repos{
		Products: store.Products(),
		Settings: store.Settings(),
		Orders:   store.Orders(),
		Sessions: store.Sessions(),
		Roles:    store.Roles(),
		Users:    store.Users(),
	}
}
