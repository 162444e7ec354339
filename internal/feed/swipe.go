package feed

import (
	"sort"

	"github.com/samber/lo"
	"github.com/swipetrader/newsfeed/internal/domain"
)

// SwipeResult is the priority-ordered selection for the swipe deck.
// FellBackToOlder signals that freshness guarantees were relaxed to fill the
// requested count.
type SwipeResult struct {
	Articles        []domain.Article
	FellBackToOlder bool
}

// SelectSwipe fills up to limit articles from the snapshot: unseen hot
// first, then unseen recent, then unseen older, each newest-first. When the
// unseen pool runs dry it backfills from previously-seen articles in the
// same bucket order, so the deck is only empty when the snapshot itself is.
// Pure function: the snapshot is never mutated.
func SelectSwipe(snapshot domain.Snapshot, excludedIDs []string, limit int) SwipeResult {
	if limit <= 0 || len(snapshot.Articles) == 0 {
		return SwipeResult{Articles: []domain.Article{}}
	}

	excluded := lo.SliceToMap(excludedIDs, func(id string) (string, struct{}) {
		return id, struct{}{}
	})

	unseen, seen := lo.FilterReject(snapshot.Articles, func(a domain.Article, _ int) bool {
		_, ok := excluded[a.ID]
		return !ok
	})

	result := SwipeResult{Articles: make([]domain.Article, 0, limit)}

	for _, pool := range []struct {
		articles []domain.Article
		backfill bool
	}{
		{unseen, false},
		{seen, true},
	} {
		hot := bucketSorted(pool.articles, domain.FreshnessHot)
		recent := bucketSorted(pool.articles, domain.FreshnessRecent)
		older := bucketSorted(pool.articles, domain.FreshnessOlder)

		for _, a := range hot {
			if len(result.Articles) >= limit {
				return result
			}
			result.Articles = append(result.Articles, a)
			if pool.backfill {
				result.FellBackToOlder = true
			}
		}
		for _, a := range recent {
			if len(result.Articles) >= limit {
				return result
			}
			result.Articles = append(result.Articles, a)
			if pool.backfill {
				result.FellBackToOlder = true
			}
		}
		for _, a := range older {
			if len(result.Articles) >= limit {
				return result
			}
			result.Articles = append(result.Articles, a)
			result.FellBackToOlder = true
		}
	}

	return result
}

// bucketSorted extracts one freshness bucket, newest published first. Ties
// break on id so the ordering is stable across instances.
func bucketSorted(articles []domain.Article, bucket domain.FreshnessBucket) []domain.Article {
	matched := lo.Filter(articles, func(a domain.Article, _ int) bool {
		return a.Freshness == bucket
	})

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}
