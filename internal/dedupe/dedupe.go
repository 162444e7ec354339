package dedupe

import (
	"log/slog"

	"github.com/samber/lo"
	"github.com/swipetrader/newsfeed/internal/domain"
)

// sourceTrustRanks is the static per-source ranking used to break ties
// between duplicates observed at the same instant. Unlisted domains rank 0.
var sourceTrustRanks = map[string]int{
	"reuters.com":       3,
	"bloomberg.com":     3,
	"wsj.com":           3,
	"ft.com":            3,
	"coindesk.com":      3,
	"theblock.co":       3,
	"cnbc.com":          2,
	"cointelegraph.com": 2,
	"decrypt.co":        2,
	"dlnews.com":        2,
	"blockworks.co":     2,
}

// SourceTrustRank returns the static trust rank for a source domain.
func SourceTrustRank(source string) int {
	return sourceTrustRanks[source]
}

// Batch collapses duplicate records by dedup hash. Within a group the
// article first observed wins; ties go to the higher-trust source, then to
// the lexicographically smallest id so the result is deterministic.
// Idempotent: deduplicating an already-deduplicated batch is a no-op.
func Batch(articles []domain.Article) []domain.Article {
	winners := make(map[string]domain.Article, len(articles))
	order := make([]string, 0, len(articles))

	for _, a := range articles {
		current, seen := winners[a.DedupHash]
		if !seen {
			winners[a.DedupHash] = a
			order = append(order, a.DedupHash)
			continue
		}
		if preferred(a, current) {
			winners[a.DedupHash] = a
		}
	}

	result := make([]domain.Article, 0, len(winners))
	for _, hash := range order {
		result = append(result, winners[hash])
	}

	if dropped := len(articles) - len(result); dropped > 0 {
		slog.Debug("Collapsed duplicate articles in batch", "dropped", dropped, "kept", len(result))
	}
	return result
}

// AgainstExisting removes from new any article whose hash already appears in
// existing, then collapses what remains. Existing articles are never
// reconsidered or evicted here.
func AgainstExisting(new []domain.Article, existing []domain.Article) []domain.Article {
	existingHashes := lo.SliceToMap(existing, func(a domain.Article) (string, struct{}) {
		return a.DedupHash, struct{}{}
	})

	fresh := lo.Filter(new, func(a domain.Article, _ int) bool {
		_, dup := existingHashes[a.DedupHash]
		return !dup
	})

	return Batch(fresh)
}

// preferred reports whether a should replace b as its group's winner.
func preferred(a, b domain.Article) bool {
	if !a.FetchedAt.Equal(b.FetchedAt) {
		return a.FetchedAt.Before(b.FetchedAt)
	}

	aRank, bRank := SourceTrustRank(a.Source), SourceTrustRank(b.Source)
	if aRank != bRank {
		return aRank > bRank
	}

	return a.ID < b.ID
}
