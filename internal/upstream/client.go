package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/swipetrader/newsfeed/internal/apperr"
)

type ClientConfig func(client *Client)

// Client talks to the news provider's paginated search endpoint. It owns
// retry/backoff and rate-limit observation; filtering happens downstream.
type Client struct {
	base   url.URL
	apiKey string
	http   *http.Client

	maxRetries      uint64
	initialInterval time.Duration
	maxPages        int
}

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 1 * time.Second
	defaultMaxPages        = 5
	searchPath             = "/v2/articles/search"
)

func NewClient(baseUrl string, apiKey string, opts ...ClientConfig) (*Client, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, apperr.NewValidation("missing upstream api key")
	}

	client := &Client{
		base:            *base,
		apiKey:          apiKey,
		http:            &http.Client{Timeout: defaultTimeout},
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		maxPages:        defaultMaxPages,
	}

	for _, cfg := range opts {
		cfg(client)
	}

	return client, nil
}

func WithHttpClient(httpClient *http.Client) ClientConfig {
	return func(client *Client) {
		client.http = httpClient
	}
}

// WithRetryInterval overrides the first backoff interval, for tests.
func WithRetryInterval(d time.Duration) ClientConfig {
	return func(client *Client) {
		client.initialInterval = d
	}
}

func WithMaxPages(pages int) ClientConfig {
	return func(client *Client) {
		client.maxPages = pages
	}
}

// Fetch runs a single broad, unfiltered query over the look-back window and
// drains pages until the provider reports no more, up to the page cap. A 429
// mid-pagination surfaces as a RateLimitError; the orchestrator decides what
// to do with partial results.
func (c *Client) Fetch(ctx context.Context, windowMinutes int, pageSize int) ([]RawArticle, error) {
	var all []RawArticle

	for page := 1; page <= c.maxPages; page++ {
		resp, err := c.searchPage(ctx, windowMinutes, pageSize, page)
		if err != nil {
			return all, err
		}

		all = append(all, resp.Articles...)

		if len(resp.Articles) < pageSize {
			break
		}
		if resp.TotalPages != 0 && page >= resp.TotalPages {
			break
		}
	}

	slog.Info("Fetched articles from upstream provider",
		"count", len(all),
		"window_minutes", windowMinutes,
	)
	return all, nil
}

// searchPage performs one page request with the retry policy: 5xx and
// transport failures retried up to maxRetries with exponential backoff,
// everything else permanent.
func (c *Client) searchPage(ctx context.Context, windowMinutes, pageSize, page int) (*searchResponse, error) {
	operation := func() (*searchResponse, error) {
		return c.doSearch(ctx, windowMinutes, pageSize, page)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	return backoff.RetryWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx),
	)
}

func (c *Client) doSearch(ctx context.Context, windowMinutes, pageSize, page int) (*searchResponse, error) {
	endpoint := c.base
	endpoint.Path = searchPath

	q := endpoint.Query()
	q.Set("from", time.Now().UTC().Add(-time.Duration(windowMinutes)*time.Minute).Format(time.RFC3339))
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(apperr.NewUpstreamWrap("failed to build request", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors and timeouts are retryable.
		return nil, apperr.NewUpstreamWrap("request failed", err)
	}
	defer resp.Body.Close()

	rl := readRateLimit(resp.Header)
	slog.Debug("Upstream rate limit state",
		"remaining", rl.Remaining,
		"limit", rl.Limit,
		"reset", rl.Reset,
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, backoff.Permanent(&apperr.RateLimitError{
			Limit:     rl.Limit,
			Remaining: rl.Remaining,
			Reset:     time.Unix(rl.Reset, 0).UTC(),
		})
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.NewUpstream(resp.StatusCode, string(body))
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(apperr.NewUpstream(resp.StatusCode, string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, backoff.Permanent(apperr.NewUpstreamWrap("failed to decode response", err))
	}

	return &sr, nil
}

func readRateLimit(h http.Header) RateLimit {
	var rl RateLimit
	rl.Limit, _ = strconv.Atoi(h.Get("X-RateLimit-Limit"))
	rl.Remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	rl.Reset, _ = strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	return rl
}

// Fetcher is the upstream surface the refresh orchestrator depends on.
type Fetcher interface {
	Fetch(ctx context.Context, windowMinutes int, pageSize int) ([]RawArticle, error)
}

var _ Fetcher = (*Client)(nil)

// Describe returns a redacted view for startup logging.
func (c *Client) Describe() string {
	return fmt.Sprintf("%s%s", c.base.String(), searchPath)
}
