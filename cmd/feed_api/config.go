package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/swipetrader/newsfeed/internal/refresh"
	"github.com/swipetrader/newsfeed/internal/storage/factory"
	"github.com/swipetrader/newsfeed/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type UpstreamConfig struct {
	BaseURL string
	APIKey  string
}

type FeedAPIConfig struct {
	StorageConfig  factory.StorageConfig
	Upstream       UpstreamConfig
	Refresh        refresh.Config
	MarketTimezone string
	// AssetsConfigPath optionally overrides the built-in instrument list.
	AssetsConfigPath string
}

func (as *AppConfig) Load() (*FeedAPIConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/feed_api/.env")
	if err != nil {
		slog.Info("Failed to load .env, continuing with existing environment variables", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}

	upstreamCfg := UpstreamConfig{
		BaseURL: os.Getenv("UPSTREAM_BASE_URL"),
		APIKey:  os.Getenv("UPSTREAM_API_KEY"),
	}
	if upstreamCfg.BaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL environment variable is not set")
	}
	if upstreamCfg.APIKey == "" {
		return nil, fmt.Errorf("UPSTREAM_API_KEY environment variable is not set")
	}

	refreshCfg := refresh.Config{
		WindowMinutes: envInt("FETCH_WINDOW_MINUTES", refresh.DefaultWindowMinutes),
		PageSize:      envInt("FETCH_PAGE_SIZE", refresh.DefaultPageSize),
		LockTTL:       envDuration("REFRESH_LOCK_TTL", refresh.DefaultLockTTL),
	}

	return &FeedAPIConfig{
		StorageConfig:    *storageCfg,
		Upstream:         upstreamCfg,
		Refresh:          refreshCfg,
		MarketTimezone:   os.Getenv("MARKET_TIMEZONE"),
		AssetsConfigPath: os.Getenv("ASSETS_CONFIG"),
	}, nil
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid integer environment variable, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid duration environment variable, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}
