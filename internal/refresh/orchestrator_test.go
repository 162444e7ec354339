package refresh_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipetrader/newsfeed/internal/apperr"
	"github.com/swipetrader/newsfeed/internal/domain"
	"github.com/swipetrader/newsfeed/internal/normalize"
	"github.com/swipetrader/newsfeed/internal/refresh"
	"github.com/swipetrader/newsfeed/internal/storage"
	"github.com/swipetrader/newsfeed/internal/storage/in_mem"
	"github.com/swipetrader/newsfeed/internal/upstream"
)

// Sunday midday UTC, firmly off-hours so the bucket stays put for minutes.
var testNow = time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	articles []upstream.RawArticle
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(ctx context.Context, windowMinutes int, pageSize int) ([]upstream.RawArticle, error) {
	f.calls++
	return f.articles, f.err
}

// denyLockStore simulates another instance holding the refresh lock.
type denyLockStore struct {
	storage.FeedStore
}

func (s *denyLockStore) Acquire(ctx context.Context, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	return false, nil
}

// brokenLockStore simulates the lock backend being unreachable.
type brokenLockStore struct {
	storage.FeedStore
}

func (s *brokenLockStore) Acquire(ctx context.Context, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	return false, errors.New("lock backend unreachable")
}

// brokenSaveStore accepts locks but cannot persist snapshots.
type brokenSaveStore struct {
	storage.FeedStore
}

func (s *brokenSaveStore) Save(ctx context.Context, snapshot domain.Snapshot) error {
	return errors.New("write failed")
}

func rawBatch(titles ...string) []upstream.RawArticle {
	out := make([]upstream.RawArticle, 0, len(titles))
	for _, title := range titles {
		out = append(out, upstream.RawArticle{
			Title:       title,
			Source:      "reuters.com",
			URL:         "https://reuters.com/" + title,
			PublishedAt: testNow.Add(-10 * time.Minute).Format(time.RFC3339),
		})
	}
	return out
}

func newOrchestrator(t *testing.T, store storage.FeedStore, fetcher upstream.Fetcher) *refresh.Orchestrator {
	t.Helper()

	buckets, err := refresh.NewBucketCalculator("America/New_York")
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	return refresh.NewOrchestrator(
		store,
		fetcher,
		normalize.New(nil, normalize.WithClock(clock)),
		buckets,
		refresh.Config{},
		refresh.WithNow(clock),
	)
}

func TestSnapshotColdStartCommits(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("BTC rallies", "ETH follows")}

	snap, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())

	assert.Equal(t, refresh.StateCommitted, state)
	assert.Len(t, snap.Articles, 2)
	assert.Equal(t, 1, fetcher.calls)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snap, *stored)
}

func TestSnapshotSameBucketSkipsUpstream(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("one story")}
	o := newOrchestrator(t, store, fetcher)
	ctx := context.Background()

	_, state := o.Snapshot(ctx)
	require.Equal(t, refresh.StateCommitted, state)

	// Same instant, same bucket: the stored snapshot is current.
	snap, state := o.Snapshot(ctx)
	assert.Equal(t, refresh.StateNoRefreshNeeded, state)
	assert.Len(t, snap.Articles, 1)
	assert.Equal(t, 1, fetcher.calls, "no second upstream call inside one bucket")
}

func TestSnapshotLockDeniedServesStale(t *testing.T) {
	inner := in_mem.NewInMemStore("news_feed_refresh")
	previous := domain.Snapshot{
		Bucket:   "offhours-0",
		Articles: []domain.Article{{ID: "stale-1", Title: "yesterday's news"}},
	}
	require.NoError(t, inner.Save(context.Background(), previous))

	fetcher := &stubFetcher{articles: rawBatch("fresh story")}
	o := newOrchestrator(t, &denyLockStore{FeedStore: inner}, fetcher)

	snap, state := o.Snapshot(context.Background())

	assert.Equal(t, refresh.StateDeniedStaleServe, state)
	assert.Equal(t, previous, snap, "losers serve the previous snapshot untouched")
	assert.Zero(t, fetcher.calls)
}

func TestSnapshotLockDeniedColdStart(t *testing.T) {
	inner := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("fresh story")}
	o := newOrchestrator(t, &denyLockStore{FeedStore: inner}, fetcher)

	snap, state := o.Snapshot(context.Background())

	assert.Equal(t, refresh.StateDeniedStaleServe, state)
	assert.NotNil(t, snap.Articles)
	assert.Empty(t, snap.Articles)
	assert.NotEmpty(t, snap.Bucket)
}

func TestSnapshotLockErrorFailsOpen(t *testing.T) {
	inner := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("still published")}
	o := newOrchestrator(t, &brokenLockStore{FeedStore: inner}, fetcher)

	snap, state := o.Snapshot(context.Background())

	assert.Equal(t, refresh.StateCommitted, state)
	assert.Len(t, snap.Articles, 1)
	assert.Equal(t, 1, fetcher.calls, "an unreachable lock backend must not block the refresh")
}

func TestSnapshotFetchFailureServesStale(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	previous := domain.Snapshot{
		Bucket:   "offhours-0",
		Articles: []domain.Article{{ID: "stale-1"}},
	}
	require.NoError(t, store.Save(context.Background(), previous))

	fetcher := &stubFetcher{err: apperr.NewUpstream(502, "bad gateway")}
	o := newOrchestrator(t, store, fetcher)

	snap, state := o.Snapshot(context.Background())

	assert.Equal(t, refresh.StateFailedStaleServe, state)
	assert.Equal(t, previous, snap)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, previous, *stored, "a failed refresh never overwrites the stored snapshot")
}

func TestSnapshotFetchFailureColdStart(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{err: apperr.NewUpstream(500, "boom")}

	snap, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())

	assert.Equal(t, refresh.StateFailedStaleServe, state)
	assert.Empty(t, snap.Articles)
	assert.NotEmpty(t, snap.Bucket)
}

func TestSnapshotRateLimitKeepsPartialBatch(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{
		articles: rawBatch("page one story"),
		err:      &apperr.RateLimitError{Limit: 100, Reset: testNow.Add(time.Minute)},
	}

	snap, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())

	assert.Equal(t, refresh.StateCommitted, state)
	assert.Len(t, snap.Articles, 1, "partial fetch is still worth committing")
}

func TestSnapshotRateLimitWithNothingFetched(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{err: &apperr.RateLimitError{Limit: 100}}

	_, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())

	assert.Equal(t, refresh.StateFailedStaleServe, state)
}

func TestSnapshotSaveFailureServesStale(t *testing.T) {
	inner := in_mem.NewInMemStore("news_feed_refresh")
	previous := domain.Snapshot{Bucket: "offhours-0", Articles: []domain.Article{{ID: "stale-1"}}}
	require.NoError(t, inner.Save(context.Background(), previous))

	fetcher := &stubFetcher{articles: rawBatch("fresh story")}
	o := newOrchestrator(t, &brokenSaveStore{FeedStore: inner}, fetcher)

	snap, state := o.Snapshot(context.Background())

	assert.Equal(t, refresh.StateFailedStaleServe, state)
	assert.Equal(t, previous, snap)
}

func TestSnapshotReleasesLockAfterRefresh(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("a story")}

	_, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())
	require.Equal(t, refresh.StateCommitted, state)

	held, err := store.Acquire(context.Background(), uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, held, "the refresh lock must be released once the refresh ends")
}

func TestSnapshotCollapsesDuplicates(t *testing.T) {
	store := in_mem.NewInMemStore("news_feed_refresh")
	fetcher := &stubFetcher{articles: rawBatch("Same Headline", "same headline", "Different Headline")}

	snap, state := newOrchestrator(t, store, fetcher).Snapshot(context.Background())

	require.Equal(t, refresh.StateCommitted, state)
	assert.Len(t, snap.Articles, 2, "case-variant duplicates collapse before storage")
}
