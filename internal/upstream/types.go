package upstream

// RawArticle is the provider's article shape at the normalization boundary.
// Fields are untrusted: PublishedAt stays a string until the normalizer
// parses it, so one malformed timestamp degrades one field, not the batch.
type RawArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
}

type searchResponse struct {
	Articles   []RawArticle `json:"articles"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// RateLimit is the provider's rolling-window state as reported in response
// headers. Logged on every response; the client does not throttle beyond its
// own retry policy.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     int64 // unix seconds
}
