package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/swipetrader/newsfeed/internal/apperr"
	"github.com/swipetrader/newsfeed/internal/dedupe"
	"github.com/swipetrader/newsfeed/internal/domain"
	"github.com/swipetrader/newsfeed/internal/normalize"
	"github.com/swipetrader/newsfeed/internal/storage"
	"github.com/swipetrader/newsfeed/internal/upstream"
)

// State is the terminal outcome of one read request's pass through the
// refresh decision. No cross-request state exists beyond the stored
// snapshot and lock.
type State string

const (
	StateNoRefreshNeeded  State = "no-refresh-needed"
	StateDeniedStaleServe State = "refresh-denied-stale-serve"
	StateCommitted        State = "refresh-committed"
	StateFailedStaleServe State = "refresh-failed-stale-serve"
)

type Config struct {
	// WindowMinutes is the upstream look-back window. Articles that age out
	// drop naturally by not being re-fetched.
	WindowMinutes int
	PageSize      int
	LockTTL       time.Duration
}

const (
	DefaultWindowMinutes = 60
	DefaultPageSize      = 100
	DefaultLockTTL       = 5 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.WindowMinutes <= 0 {
		c.WindowMinutes = DefaultWindowMinutes
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
}

// Orchestrator decides, inside the handling of each read request, whether
// the snapshot is due for a refresh, and performs it under the distributed
// lock. Losers of the lock race serve stale data; they never wait.
type Orchestrator struct {
	store      storage.FeedStore
	fetcher    upstream.Fetcher
	normalizer *normalize.Normalizer
	buckets    *BucketCalculator

	cfg      Config
	holderID uuid.UUID
	now      func() time.Time
}

type OrchestratorOption func(*Orchestrator)

// WithNow overrides the orchestrator clock, for tests.
func WithNow(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(
	store storage.FeedStore,
	fetcher upstream.Fetcher,
	normalizer *normalize.Normalizer,
	buckets *BucketCalculator,
	cfg Config,
	opts ...OrchestratorOption,
) *Orchestrator {
	cfg.applyDefaults()

	o := &Orchestrator{
		store:      store,
		fetcher:    fetcher,
		normalizer: normalizer,
		buckets:    buckets,
		cfg:        cfg,
		holderID:   uuid.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the snapshot a read request should serve, refreshing it
// first when the time bucket has rolled over and this instance wins the
// lock. Every failure path degrades to the existing snapshot; a cold start
// with nothing fetched yields an empty snapshot, not an error.
func (o *Orchestrator) Snapshot(ctx context.Context) (domain.Snapshot, State) {
	currentBucket := o.buckets.Bucket(o.now())

	existing, err := o.store.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load snapshot, treating as absent", "error", err)
		existing = nil
	}

	if existing != nil && existing.Bucket == currentBucket {
		return *existing, StateNoRefreshNeeded
	}

	acquired, err := o.store.Acquire(ctx, o.holderID, o.cfg.LockTTL)
	if err != nil {
		// Fail open: losing mutual exclusion beats a total outage. A
		// duplicate concurrent refresh is an accepted cost.
		slog.Warn("Lock store unreachable, proceeding without mutual exclusion", "error", err)
		acquired = true
	}

	if !acquired {
		slog.Debug("Refresh lock held elsewhere, serving existing snapshot", "bucket", currentBucket)
		return o.staleOrEmpty(existing, currentBucket), StateDeniedStaleServe
	}

	snapshot, state := o.refresh(ctx, existing, currentBucket)
	return snapshot, state
}

// refresh runs fetch -> normalize -> dedupe -> store under the lock. The
// release sits in a defer so a panic or early return can never leave the
// lock held past its natural expiry.
func (o *Orchestrator) refresh(ctx context.Context, existing *domain.Snapshot, bucket string) (domain.Snapshot, State) {
	start := o.now()

	defer func() {
		if err := o.store.Release(ctx); err != nil {
			slog.Warn("Failed to release refresh lock, leaving it to expire", "error", err)
		}
	}()

	raw, err := o.fetcher.Fetch(ctx, o.cfg.WindowMinutes, o.cfg.PageSize)
	if err != nil {
		var rle *apperr.RateLimitError
		if errors.As(err, &rle) && len(raw) > 0 {
			// Rate-limited mid-pagination: proceed with the partial batch.
			slog.Warn("Upstream rate limited, proceeding with partial fetch",
				"fetched", len(raw),
				"reset", rle.Reset,
			)
		} else {
			slog.Error("Refresh fetch failed, serving existing snapshot",
				"error", err,
				"bucket", bucket,
			)
			return o.staleOrEmpty(existing, bucket), StateFailedStaleServe
		}
	}

	articles := dedupe.Batch(o.normalizer.Normalize(raw))

	snapshot := domain.Snapshot{
		Bucket:    bucket,
		Articles:  articles,
		UpdatedAt: o.now().UTC(),
	}

	if err := o.store.Save(ctx, snapshot); err != nil {
		slog.Error("Failed to store refreshed snapshot, serving existing one",
			"error", err,
			"bucket", bucket,
		)
		return o.staleOrEmpty(existing, bucket), StateFailedStaleServe
	}

	slog.Info("Refresh committed",
		"bucket", bucket,
		"fetched", len(raw),
		"kept", len(articles),
		"duration", o.now().Sub(start),
	)
	return snapshot, StateCommitted
}

// staleOrEmpty returns the previous snapshot untouched, or an empty one
// tagged with the current bucket when nothing has ever been stored. "No news
// right now" is a valid state, not an error.
func (o *Orchestrator) staleOrEmpty(existing *domain.Snapshot, bucket string) domain.Snapshot {
	if existing != nil {
		return *existing
	}
	return domain.Snapshot{
		Bucket:   bucket,
		Articles: []domain.Article{},
	}
}
