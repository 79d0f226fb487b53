package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	// YouTube Data API v3
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string // secondary key tried before degrading to scraping
	APIBaseURL            string // override for tests; default DataAPIBase
	MaxPageSize           int    // maxResults per API search call (<= 50)

	// Scraping fallback
	ScrapeBaseURL     string        // override for tests; default ScrapeBase
	ScrapeAlwaysOn    bool          // consult the scraper even when the API succeeds
	ScrapeMinDelay    time.Duration // inter-request delay floor
	ScrapeConcurrency int           // bounded parallel per-video detail fetches

	// Quota ledger
	QuotaDailyLimit int64
	QuotaSearchCost int64 // units per search call
	QuotaDetailCost int64 // units per video in a details call
	QuotaDBPath     string
	DatabaseURL     string // non-empty: shared Postgres ledger instead of SQLite

	// Analysis bounds and tuning
	MaxWindowDays int
	MaxTopCount   int
	Score         ScoreParams
	Momentum      MomentumParams

	// Ambient
	FetchTimeout         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
}

// Default upstream endpoints. Tests point adapters at httptest servers via
// Config.APIBaseURL / Config.ScrapeBaseURL.
const (
	DataAPIBase = "https://www.googleapis.com/youtube/v3"
	ScrapeBase  = "https://www.youtube.com"
)

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration, filling in
// defaults for zero values.
func Init(c Config) {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DataAPIBase
	}
	if c.ScrapeBaseURL == "" {
		c.ScrapeBaseURL = ScrapeBase
	}
	if c.MaxPageSize <= 0 || c.MaxPageSize > 50 {
		c.MaxPageSize = 50
	}
	if c.ScrapeMinDelay <= 0 {
		c.ScrapeMinDelay = time.Second
	}
	if c.ScrapeConcurrency <= 0 {
		c.ScrapeConcurrency = 4
	}
	if c.QuotaDailyLimit <= 0 {
		c.QuotaDailyLimit = 10000
	}
	if c.QuotaSearchCost <= 0 {
		c.QuotaSearchCost = 100
	}
	if c.QuotaDetailCost <= 0 {
		c.QuotaDetailCost = 1
	}
	if c.MaxWindowDays <= 0 {
		c.MaxWindowDays = 30
	}
	if c.MaxTopCount <= 0 {
		c.MaxTopCount = 50
	}
	if c.Score == (ScoreParams{}) {
		c.Score = DefaultScoreParams
	}
	if c.Momentum == (MomentumParams{}) {
		c.Momentum = DefaultMomentumParams
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
