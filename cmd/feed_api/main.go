// Package main SwipeTrader News Feed API
// @title SwipeTrader News Feed API
// @version 1.0
// @description Request-driven news snapshot service with swipe and browse feeds
// @BasePath /
package main

import (
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/swipetrader/newsfeed/internal/normalize"
	"github.com/swipetrader/newsfeed/internal/refresh"
	"github.com/swipetrader/newsfeed/internal/router"
	"github.com/swipetrader/newsfeed/internal/server"
	"github.com/swipetrader/newsfeed/internal/storage/factory"
	"github.com/swipetrader/newsfeed/internal/upstream"
	pkgserver "github.com/swipetrader/newsfeed/pkg/server"
)

func main() {
	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
		return
	}

	s := server.New(sCfg, pkgserver.NewOkHealthChecker()).
		SetupMiddlewares().
		SetupErrorHandler()

	store, err := factory.NewFeedStore(s.Context(), cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to create feed store", "error", err)
		os.Exit(1)
		return
	}

	healthChecker := pkgserver.HealthChecker(pkgserver.NewOkHealthChecker())
	if hc, ok := store.(pkgserver.HealthChecker); ok {
		healthChecker = hc
	}
	s.SetHealthChecker(healthChecker).
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "SwipeTrader News Feed API is running")
	})

	instruments, err := normalize.LoadInstrumentsFile(cfg.AssetsConfigPath)
	if err != nil {
		slog.Error("Failed to load instruments config", "error", err)
		os.Exit(1)
		return
	}
	normalizer := normalize.New(normalize.NewAssetMatcher(instruments))

	buckets, err := refresh.NewBucketCalculator(cfg.MarketTimezone)
	if err != nil {
		slog.Error("Failed to create bucket calculator", "error", err)
		os.Exit(1)
		return
	}

	client, err := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	if err != nil {
		slog.Error("Failed to create upstream client", "error", err)
		os.Exit(1)
		return
	}
	slog.Info("Upstream provider configured", "endpoint", client.Describe())

	orchestrator := refresh.NewOrchestrator(store, client, normalizer, buckets, cfg.Refresh)

	feedRouter := router.NewFeedRouter(s.Echo, orchestrator)
	feedRouter.Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	err = s.Start()
	if err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}
