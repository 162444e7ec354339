package dto

import (
	"time"

	"github.com/swipetrader/newsfeed/internal/domain"
)

// FeedItem is the read-side article shape served to the presentation layer.
// Stable contract regardless of the source provider.
type FeedItem struct {
	ID              string    `json:"id"`
	Headline        string    `json:"headline"`
	Brief           string    `json:"brief,omitempty"`
	Source          string    `json:"source"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"publishedAt"`
	FirstSeenAt     time.Time `json:"firstSeenAt"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	FreshnessBucket string    `json:"freshnessBucket"`
	AgeMinutes      int       `json:"ageMinutes"`
	PrimaryAsset    string    `json:"primaryAsset,omitempty"`
	AssetConfidence float64   `json:"assetConfidence"`
	Tier            string    `json:"tier"`
}

// FeedResponse is the envelope for both feed endpoints. FellBackToOlder is
// present only on the swipe feed.
type FeedResponse struct {
	Success         bool       `json:"success"`
	Items           []FeedItem `json:"items"`
	Count           int        `json:"count"`
	FellBackToOlder *bool      `json:"fellBackToOlder,omitempty"`
	Bucket          string     `json:"bucket"`
	Timestamp       time.Time  `json:"timestamp"`
}

func FromArticle(a domain.Article) FeedItem {
	return FeedItem{
		ID:              a.ID,
		Headline:        a.Title,
		Brief:           a.Description,
		Source:          a.Source,
		URL:             a.URL,
		PublishedAt:     a.PublishedAt,
		FirstSeenAt:     a.FetchedAt,
		ImageURL:        a.ImageURL,
		FreshnessBucket: string(a.Freshness),
		AgeMinutes:      a.AgeMinutes,
		PrimaryAsset:    a.AssetSymbol(),
		AssetConfidence: a.AssetConfidence(),
		Tier:            string(a.Tier),
	}
}

func FromArticles(articles []domain.Article) []FeedItem {
	items := make([]FeedItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, FromArticle(a))
	}
	return items
}
