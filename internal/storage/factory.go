package storage

import (
	"context"
	"fmt"

	"github.com/vietdungregister/nthl/internal/models"
)

// NewStorage creates a Storage implementation based on the configuration.
func NewStorage(ctx context.Context, cfg models.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case models.StorageTypeMemory:
		return NewMemoryStorage(), nil
	case models.StorageTypeSQLite:
		return NewSQLiteStorage(ctx, cfg.Database)
	case models.StorageTypePostgres:
		return NewPostgresStorage(ctx, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
