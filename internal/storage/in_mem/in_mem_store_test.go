package in_mem

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipetrader/newsfeed/internal/domain"
)

func TestLoadEmptyStore(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "absence is nil, not an error")
}

func TestSaveThenLoad(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	in := domain.Snapshot{
		Bucket:    "market-123",
		Articles:  []domain.Article{{ID: "a1", Title: "headline"}},
		UpdatedAt: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestSaveReplacesWholeSnapshot(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Snapshot{Bucket: "market-1", Articles: []domain.Article{{ID: "a"}, {ID: "b"}}}))
	require.NoError(t, s.Save(ctx, domain.Snapshot{Bucket: "market-2", Articles: []domain.Article{{ID: "c"}}}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "market-2", out.Bucket)
	require.Len(t, out.Articles, 1)
	assert.Equal(t, "c", out.Articles[0].ID)
}

func TestAcquireMutualExclusion(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	first, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "held and unexpired lock must deny other holders")
}

func TestAcquireReentrantForSameHolder(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()
	holder := uuid.New()

	first, err := s.Acquire(ctx, holder, 5*time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	again, err := s.Acquire(ctx, holder, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestAcquireAfterExpiry(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	s := NewInMemStore("news_feed_refresh").WithClock(func() time.Time { return now })
	ctx := context.Background()

	held, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	// Holder crashed without releasing; the TTL passes.
	now = now.Add(5*time.Minute + time.Second)

	stolen, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, stolen, "expired locks are up for grabs")
}

func TestReleaseFreesLock(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	held, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, s.Release(ctx))

	next, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, next)
}

func TestAcquireConcurrentSingleWinner(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	const contenders = 32
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Acquire(ctx, uuid.New(), 5*time.Minute)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one contender may hold the lock")
}

func TestLoadReturnsCopy(t *testing.T) {
	s := NewInMemStore("news_feed_refresh")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Snapshot{Bucket: "market-1"}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	out.Bucket = "tampered"

	reread, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "market-1", reread.Bucket)
}
