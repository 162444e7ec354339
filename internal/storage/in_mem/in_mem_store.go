package in_mem

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/swipetrader/newsfeed/internal/domain"
)

// InMemStore keeps the snapshot and the refresh lock in process memory.
// Suitable for single-instance deployments and tests; multi-instance
// deployments need the shared pg store for cross-process exclusion.
type InMemStore struct {
	mu       sync.RWMutex
	snapshot *domain.Snapshot
	lock     *domain.RefreshLock

	lockName string
	now      func() time.Time
}

func NewInMemStore(lockName string) *InMemStore {
	return &InMemStore{
		lockName: lockName,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *InMemStore) WithClock(now func() time.Time) *InMemStore {
	s.now = now
	return s
}

func (s *InMemStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, nil
	}
	snap := *s.snapshot
	return &snap, nil
}

func (s *InMemStore) Save(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = &snapshot
	slog.Debug("Saved snapshot to in-memory store",
		"bucket", snapshot.Bucket,
		"articles", len(snapshot.Articles),
	)
	return nil
}

func (s *InMemStore) Acquire(ctx context.Context, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.lock != nil && !s.lock.Expired(now) && s.lock.HolderID != holderID {
		return false, nil
	}

	s.lock = &domain.RefreshLock{
		Name:       s.lockName,
		HolderID:   holderID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	return true, nil
}

func (s *InMemStore) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lock = nil
	return nil
}
