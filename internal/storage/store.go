package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/swipetrader/newsfeed/internal/domain"
)

// SnapshotStore holds the single current snapshot, keyed by a fixed logical
// name. Save replaces the stored value wholesale.
type SnapshotStore interface {
	// Load returns the current snapshot, or (nil, nil) when none exists.
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}

// LockStore is the distributed mutual-exclusion primitive guarding a refresh.
// Single-attempt and non-blocking: callers must treat a false result as
// "someone else is refreshing" and serve what they already have.
type LockStore interface {
	// Acquire takes the lock iff no non-expired lock exists. A holder that
	// already owns the lock re-acquires it.
	Acquire(ctx context.Context, holderID uuid.UUID, ttl time.Duration) (bool, error)
	// Release deletes the lock row unconditionally.
	Release(ctx context.Context) error
}

// FeedStore is the full shared-store surface the refresh orchestrator needs:
// the snapshot plus the lock that serializes its replacement.
type FeedStore interface {
	SnapshotStore
	LockStore
}

type Type string

const (
	PG    Type = "pg"
	InMem Type = "in_mem"
)

type StoreError string

const (
	ErrUnsupportedStore StoreError = "unsupported store type: %s"
)

func (e StoreError) Error() string {
	return string(e)
}
