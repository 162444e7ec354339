package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/swipetrader/newsfeed/internal/domain"
	"github.com/swipetrader/newsfeed/internal/upstream"
)

const (
	// Reposts by the same source inside this window hash identically.
	dedupWindow = 5 * time.Minute

	maxDescriptionLen = 500
)

// Normalizer converts raw provider articles into canonical records. The
// mapping is deterministic and 1:1; a malformed field degrades to its zero
// state instead of dropping the article.
type Normalizer struct {
	assets *AssetMatcher
	now    func() time.Time
}

type Option func(*Normalizer)

// WithClock overrides the fetch clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

func New(assets *AssetMatcher, opts ...Option) *Normalizer {
	n := &Normalizer{
		assets: assets,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps a fetched batch. All articles in one batch share the same
// FetchedAt instant.
func (n *Normalizer) Normalize(raw []upstream.RawArticle) []domain.Article {
	fetchedAt := n.now().UTC()

	articles := make([]domain.Article, 0, len(raw))
	for _, r := range raw {
		articles = append(articles, n.normalizeOne(r, fetchedAt))
	}
	return articles
}

func (n *Normalizer) normalizeOne(r upstream.RawArticle, fetchedAt time.Time) domain.Article {
	title := CleanText(r.Title)
	description := truncate(CleanText(r.Description), maxDescriptionLen)
	source := strings.ToLower(strings.TrimSpace(r.Source))

	publishedAt, err := parsePublishedAt(r.PublishedAt)
	if err != nil {
		slog.Debug("Failed to parse published_at, keeping zero value",
			"published_at", r.PublishedAt,
			"source", source,
			"error", err,
		)
	}

	age := fetchedAt.Sub(publishedAt)
	if age < 0 {
		age = 0
	}
	freshness := domain.ClassifyFreshness(age)

	var asset *domain.AssetMatch
	if n.assets != nil {
		asset = n.assets.Match(title, description)
	}

	confidence := 0.0
	if asset != nil {
		confidence = asset.Confidence
	}

	return domain.Article{
		ID:          ArticleID(title, source, publishedAt),
		Title:       title,
		Description: description,
		URL:         strings.TrimSpace(r.URL),
		Source:      source,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		PublishedAt: publishedAt,
		FetchedAt:   fetchedAt,
		AgeMinutes:  int(age.Minutes()),
		Freshness:   freshness,
		DedupHash:   DedupHash(title, source, publishedAt),
		Asset:       asset,
		Tier:        domain.DeriveTier(freshness, confidence),
	}
}

// DedupHash collapses near-duplicate reposts: same normalized title, same
// source, published within the same 5-minute floor window. Pure function of
// its inputs; FetchedAt and ID never participate.
func DedupHash(title, source string, publishedAt time.Time) string {
	window := publishedAt.Unix() / int64(dedupWindow.Seconds())
	payload := fmt.Sprintf("%s|%s|%d", normalizeKey(title), source, window)

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ArticleID derives the stable short identifier clients use in exclusion
// sets. Unlike DedupHash it keys on the exact published timestamp; the two
// stay separate computations on purpose.
func ArticleID(title, source string, publishedAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%d", normalizeKey(title), source, publishedAt.UnixMilli())

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}

// CleanText strips HTML tags, decodes entities and collapses whitespace.
func CleanText(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	decoded := html.UnescapeString(b.String())
	return strings.Join(strings.Fields(decoded), " ")
}

func normalizeKey(title string) string {
	return strings.ToLower(title)
}

var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

func parsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty published_at")
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized published_at format: %q", s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
