package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/swipetrader/newsfeed/internal/dto"
	"github.com/swipetrader/newsfeed/internal/feed"
	"github.com/swipetrader/newsfeed/internal/refresh"
	"github.com/swipetrader/newsfeed/pkg/stringsutil"
)

const (
	defaultSwipeLimit  = 25
	defaultBrowseLimit = 50
	maxLimit           = 100
)

type FeedRouter struct {
	e            *echo.Echo
	orchestrator *refresh.Orchestrator
}

func NewFeedRouter(e *echo.Echo, orchestrator *refresh.Orchestrator) *FeedRouter {
	return &FeedRouter{
		e:            e,
		orchestrator: orchestrator,
	}
}

func (r *FeedRouter) Bind() {
	r.e.GET("/swipe-feed", r.swipeHandler)
	r.e.GET("/browse-feed", r.browseHandler)
}

// swipeHandler godoc
// @Summary Priority-ordered swipe feed
// @Description Never-empty deck: unseen hot first, then recent, then older, backfilled from seen articles
// @Param limit query int false "max items (1-100, default 25)"
// @Param excluded query string false "comma-separated article ids already seen by this client"
// @Success 200 {object} dto.FeedResponse
// @Router /swipe-feed [get]
func (r *FeedRouter) swipeHandler(c echo.Context) error {
	limit := clampLimit(c.QueryParam("limit"), defaultSwipeLimit)
	excluded := parseExcluded(c.QueryParam("excluded"))

	snapshot, _ := r.orchestrator.Snapshot(c.Request().Context())
	result := feed.SelectSwipe(snapshot, excluded, limit)

	items := dto.FromArticles(result.Articles)
	return c.JSON(http.StatusOK, dto.FeedResponse{
		Success:         true,
		Items:           items,
		Count:           len(items),
		FellBackToOlder: &result.FellBackToOlder,
		Bucket:          snapshot.Bucket,
		Timestamp:       time.Now().UTC(),
	})
}

// browseHandler godoc
// @Summary Chronological browse feed
// @Description Published-descending list, optionally filtered by primary asset symbol
// @Param limit query int false "max items (1-100, default 50)"
// @Param category query string false "asset symbol filter, e.g. BTC"
// @Success 200 {object} dto.FeedResponse
// @Router /browse-feed [get]
func (r *FeedRouter) browseHandler(c echo.Context) error {
	limit := clampLimit(c.QueryParam("limit"), defaultBrowseLimit)
	category := strings.TrimSpace(c.QueryParam("category"))

	snapshot, _ := r.orchestrator.Snapshot(c.Request().Context())
	articles := feed.SelectBrowse(snapshot, limit, category)

	items := dto.FromArticles(articles)
	return c.JSON(http.StatusOK, dto.FeedResponse{
		Success:   true,
		Items:     items,
		Count:     len(items),
		Bucket:    snapshot.Bucket,
		Timestamp: time.Now().UTC(),
	})
}

// clampLimit parses the limit parameter, defaulting and clamping instead of
// failing: consumer errors never produce a hard failure.
func clampLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// parseExcluded accepts a comma-separated id list, tolerating a bracketed
// JSON-array style ("[a,b]") from older clients.
func parseExcluded(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		return nil
	}

	ids := strings.Split(raw, ",")
	for i, id := range ids {
		ids[i] = strings.Trim(strings.TrimSpace(id), `"`)
	}
	return stringsutil.RemoveEmptyStrings(ids)
}
