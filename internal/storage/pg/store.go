package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swipetrader/newsfeed/internal/domain"
)

const (
	DefaultSnapshotName = "news_feed"
	DefaultLockName     = "news_feed_refresh"
)

// Store persists the snapshot and the refresh lock in Postgres, one row each
// keyed by a fixed logical name. The lock acquire is a single atomic
// statement so two racing instances cannot both win.
type Store struct {
	db *pgxpool.Pool

	snapshotName string
	lockName     string
}

type StoreOption func(*Store)

func WithSnapshotName(name string) StoreOption {
	return func(s *Store) {
		s.snapshotName = name
	}
}

func WithLockName(name string) StoreOption {
	return func(s *Store) {
		s.lockName = name
	}
}

func NewStore(pool *ConnectionPool, opts ...StoreOption) (*Store, error) {
	s := &Store{
		db:           pool.GetConn(),
		snapshotName: DefaultSnapshotName,
		lockName:     DefaultLockName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	query := `
        SELECT bucket, articles, updated_at
        FROM feed_snapshots
        WHERE name = $1;
    `

	var (
		bucket       string
		articlesJSON []byte
		updatedAt    time.Time
	)
	err := s.db.QueryRow(ctx, query, s.snapshotName).Scan(&bucket, &articlesJSON, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var articles []domain.Article
	if err := json.Unmarshal(articlesJSON, &articles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot articles: %w", err)
	}

	return &domain.Snapshot{
		Bucket:    bucket,
		Articles:  articles,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *Store) Save(ctx context.Context, snapshot domain.Snapshot) error {
	articlesJSON, err := json.Marshal(snapshot.Articles)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot articles: %w", err)
	}

	cmd := `
        INSERT INTO feed_snapshots (name, bucket, articles, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE SET
            bucket = EXCLUDED.bucket,
            articles = EXCLUDED.articles,
            updated_at = EXCLUDED.updated_at;
    `
	if _, err := s.db.Exec(ctx, cmd, s.snapshotName, snapshot.Bucket, articlesJSON, snapshot.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Acquire takes the refresh lock iff no row exists, the existing row has
// expired, or the caller already holds it. The upsert's WHERE clause makes
// the expiry check and the overwrite a single atomic step.
func (s *Store) Acquire(ctx context.Context, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	cmd := `
        INSERT INTO refresh_locks (name, holder_id, acquired_at, expires_at)
        VALUES ($1, $2, now(), now() + $3)
        ON CONFLICT (name) DO UPDATE SET
            holder_id = EXCLUDED.holder_id,
            acquired_at = EXCLUDED.acquired_at,
            expires_at = EXCLUDED.expires_at
        WHERE refresh_locks.expires_at <= now()
           OR refresh_locks.holder_id = EXCLUDED.holder_id
        RETURNING holder_id;
    `

	var winner uuid.UUID
	err := s.db.QueryRow(ctx, cmd, s.lockName, holderID, ttl).Scan(&winner)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict row still live and held by someone else.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire refresh lock: %w", err)
	}

	return winner == holderID, nil
}

// Healthy reports whether the backing pool answers a ping. Satisfies the
// server health-check interface.
func (s *Store) Healthy(ctx context.Context) bool {
	return s.db.Ping(ctx) == nil
}

func (s *Store) Release(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM refresh_locks WHERE name = $1;`, s.lockName); err != nil {
		return fmt.Errorf("failed to release refresh lock: %w", err)
	}
	return nil
}
