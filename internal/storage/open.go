package storage

import (
	"context"
	"fmt"

	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"go.uber.org/zap"
)

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", constants.StorageMemory:
		return NewMemory(), nil
	case constants.StorageSQLite:
		path := cfg.Path
		if path == "" {
			path = constants.DefaultSQLitePath
		}
		store, err := NewSQLite(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case constants.StoragePostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("storage: postgres driver requires a dsn")
		}
		store, err := NewPostgres(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}
