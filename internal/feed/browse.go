package feed

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/swipetrader/newsfeed/internal/domain"
)

// SelectBrowse is the chronological view: optional category filter (matched
// against the inferred primary asset symbol), published_at descending,
// hard-truncated to limit. No exclusion or fallback logic; repeats of
// previously-seen items are fine here.
func SelectBrowse(snapshot domain.Snapshot, limit int, category string) []domain.Article {
	if limit <= 0 {
		return []domain.Article{}
	}

	articles := snapshot.Articles
	if category != "" {
		articles = lo.Filter(articles, func(a domain.Article, _ int) bool {
			return strings.EqualFold(a.AssetSymbol(), category)
		})
	}

	sorted := make([]domain.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
