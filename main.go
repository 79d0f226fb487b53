// go_trending — YouTube Trending Analysis MCP server.
//
// Exposes four MCP tools: trending_search, trending_feed, trending_export,
// quota_status. Runs as HTTP MCP server or stdio transport.
//
// Candidates come from the YouTube Data API when a key and quota budget are
// available, and from public-page scraping otherwise.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/anatolykoptev/go_trending/internal/engine/sources"
	"github.com/anatolykoptev/go_trending/internal/trendserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_trending",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_trending",
		Version: version,
	}, nil)

	trendserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_trending",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		APIBaseURL:            env.Str("YOUTUBE_API_BASE", engine.DataAPIBase),
		ScrapeBaseURL:         env.Str("YOUTUBE_SCRAPE_BASE", engine.ScrapeBase),
		MaxPageSize:           env.Int("YOUTUBE_PAGE_SIZE", 50),
		ScrapeAlwaysOn:        env.Str("SCRAPE_ALWAYS_ON", "") == "true",
		ScrapeMinDelay:        env.Duration("SCRAPE_MIN_DELAY", time.Second),
		ScrapeConcurrency:     env.Int("SCRAPE_CONCURRENCY", 4),
		QuotaDailyLimit:       int64(env.Int("QUOTA_DAILY_LIMIT", 10000)),
		QuotaSearchCost:       int64(env.Int("QUOTA_SEARCH_COST", 100)),
		QuotaDetailCost:       int64(env.Int("QUOTA_DETAIL_COST", 1)),
		QuotaDBPath:           env.Str("QUOTA_DB_PATH", ""),
		DatabaseURL:           env.Str("DATABASE_URL", ""),
		FetchTimeout:          env.Duration("FETCH_TIMEOUT", 10*time.Second),
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	engine.Init(c)

	ledger := initQuotaLedger(c)

	api := sources.NewAPISource(c.YouTubeAPIKey, c.YouTubeAPIKeyFallback)
	if api == nil {
		slog.Warn("no YouTube API key configured, running scrape-only")
	}
	scrape := sources.NewScrapeSource()
	selector := sources.NewSelector(api, scrape, ledger)

	trendserver.Init(selector, sources.NewTrendingPageSource(), ledger)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// initQuotaLedger picks the persistence backend: Postgres when DATABASE_URL
// is set, local SQLite otherwise. A store failure degrades to an in-memory
// ledger instead of blocking startup.
func initQuotaLedger(c engine.Config) *engine.QuotaLedger {
	var store engine.QuotaStore
	var err error
	if c.DatabaseURL != "" {
		store, err = engine.NewPGQuotaStore(context.Background(), c.DatabaseURL)
		if err != nil {
			slog.Warn("postgres quota store init failed, falling back to sqlite", slog.Any("error", err))
		}
	}
	if store == nil {
		store, err = engine.NewSQLiteQuotaStore(c.QuotaDBPath)
		if err != nil {
			slog.Warn("sqlite quota store init failed, quota will not persist", slog.Any("error", err))
			store = nil
		}
	}
	return engine.NewQuotaLedger(engine.Cfg.QuotaDailyLimit, store)
}
