package domain

import (
	"time"
)

// FreshnessBucket is a coarse age classification assigned at normalization
// time, relative to the fetch clock. It is not recomputed on read; drift is
// bounded by the refresh bucket width.
type FreshnessBucket string

const (
	FreshnessHot    FreshnessBucket = "hot"    // age <= 15 min
	FreshnessRecent FreshnessBucket = "recent" // 15 min < age <= 120 min
	FreshnessOlder  FreshnessBucket = "older"  // age > 120 min
)

const (
	HotMaxAge    = 15 * time.Minute
	RecentMaxAge = 120 * time.Minute
)

// ClassifyFreshness maps an article age to its freshness bucket.
func ClassifyFreshness(age time.Duration) FreshnessBucket {
	switch {
	case age <= HotMaxAge:
		return FreshnessHot
	case age <= RecentMaxAge:
		return FreshnessRecent
	default:
		return FreshnessOlder
	}
}

// Tier is the downstream-facing urgency label consumed by the presentation
// layer. Derived from freshness and asset confidence, never recomputed.
type Tier string

const (
	TierBreaking Tier = "breaking"
	TierElevated Tier = "elevated"
	TierStandard Tier = "standard"
	TierContext  Tier = "context"
)

// DeriveTier computes the urgency tier for a freshness bucket and the
// confidence of the inferred asset (0 when no asset was inferred).
func DeriveTier(freshness FreshnessBucket, assetConfidence float64) Tier {
	switch freshness {
	case FreshnessHot:
		if assetConfidence >= 0.5 {
			return TierBreaking
		}
		return TierElevated
	case FreshnessRecent:
		return TierStandard
	default:
		return TierContext
	}
}

// AssetMatch is a best-effort keyword match against the known instrument
// list. It never blocks inclusion of an article.
type AssetMatch struct {
	Symbol     string  `json:"symbol"`
	Confidence float64 `json:"confidence"`
}

// Article is the canonical article record. Immutable once created; it lives
// only inside a Snapshot and is destroyed when the snapshot is superseded.
type Article struct {
	// ID is a stable short identifier derived from the normalized title,
	// source and the exact published timestamp. Clients use it in
	// exclusion sets.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	ImageURL    string `json:"imageUrl,omitempty"`

	// PublishedAt is the upstream-provided timestamp. Untrusted: providers
	// batch and delay delivery.
	PublishedAt time.Time `json:"publishedAt"`
	// FetchedAt is when this process first observed the article. This is
	// the clock the system controls.
	FetchedAt time.Time `json:"fetchedAt"`

	AgeMinutes int             `json:"ageMinutes"`
	Freshness  FreshnessBucket `json:"freshnessBucket"`

	// DedupHash is a pure function of (title, source, published_at floored
	// to 5 minutes). It must never depend on FetchedAt or ID so that
	// upstream re-deliveries hash identically.
	DedupHash string `json:"dedupHash"`

	Asset *AssetMatch `json:"asset,omitempty"`
	Tier  Tier        `json:"tier"`
}

// AssetConfidence returns the inferred asset confidence, 0 when none.
func (a Article) AssetConfidence() float64 {
	if a.Asset == nil {
		return 0
	}
	return a.Asset.Confidence
}

// AssetSymbol returns the inferred asset symbol, empty when none.
func (a Article) AssetSymbol() string {
	if a.Asset == nil {
		return ""
	}
	return a.Asset.Symbol
}
