package factory

import (
	"context"
	"fmt"

	"github.com/swipetrader/newsfeed/internal/storage"
	"github.com/swipetrader/newsfeed/internal/storage/in_mem"
	"github.com/swipetrader/newsfeed/internal/storage/pg"
)

// NewFeedStore creates the snapshot + lock store selected by the config.
// The store is injected everywhere it is needed; there is no package-level
// fallback cache.
func NewFeedStore(ctx context.Context, cfg StorageConfig) (storage.FeedStore, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL config for storage type %q", cfg.Type)
		}

		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}

		return pg.NewStore(pool)

	case storage.InMem:
		return in_mem.NewInMemStore(pg.DefaultLockName), nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStore), cfg.Type)
	}
}
