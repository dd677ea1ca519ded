package store

import (
	"context"
	"fmt"

	"github.com/aerialtv/aerial/internal/db"
)

// NewStore creates a store for the given backend type.
// Supported types: "memory", "sqlite", "postgres".
// For sqlite the DSN is a filesystem path (or ":memory:"); for postgres a
// standard connection URL.
func NewStore(ctx context.Context, storeType, dsn string) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		pool, err := db.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		return NewPostgresStore(ctx, pool)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
