package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/anatolykoptev/go_trending/internal/engine"
)

// Selector decides per call whether candidates come from the Data API or the
// scraping fallback. The rules:
//
//   - API is preferred whenever a key is configured and the quota ledger can
//     reserve the cost of one search call.
//   - The reservation is settled with the cost actually consumed once the
//     API call completes. A quota rejection from the API marks the ledger
//     exhausted and falls back to scraping for this call only; the next call
//     re-checks the ledger, so a UTC-midnight reset restores API preference
//     on its own.
//   - Auth and parse failures surface immediately. A broken key or a
//     response the decoder cannot read is a configuration or upstream
//     problem the caller has to hear about, not something to mask behind
//     silently degraded results.
//   - Transient API failures (after retries) fall back to scraping rather
//     than failing the request.
//
// Scrape-derived results are marked degraded: their statistics are estimates
// and comment counts are unavailable.
type Selector struct {
	api    Source // nil when no key is configured
	scrape *ScrapeSource
	ledger *engine.QuotaLedger

	// mergeScrape runs the scraper alongside a successful API call and
	// merges the extra candidates in, API records taking precedence.
	mergeScrape bool
}

func NewSelector(api *APISource, scrape *ScrapeSource, ledger *engine.QuotaLedger) *Selector {
	s := &Selector{
		scrape:      scrape,
		ledger:      ledger,
		mergeScrape: engine.Cfg.ScrapeAlwaysOn,
	}
	if api != nil {
		s.api = api
	}
	return s
}

// FetchCandidates implements engine.CandidateSource. Candidate sets are
// cached by term and window so repeated analyses with different ranking
// options do not spend quota or re-scrape.
func (s *Selector) FetchCandidates(ctx context.Context, term string, windowDays int) (engine.FetchResult, error) {
	cacheKey := engine.CacheKey("candidates", term, strconv.Itoa(windowDays))
	if data, ok := engine.CacheGet(ctx, cacheKey); ok {
		var cached engine.FetchResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := s.fetch(ctx, term, windowDays)
	if err != nil {
		return engine.FetchResult{}, err
	}
	if data, err := json.Marshal(result); err == nil {
		engine.CacheSet(ctx, cacheKey, data)
	}
	return result, nil
}

func (s *Selector) fetch(ctx context.Context, term string, windowDays int) (engine.FetchResult, error) {
	if s.api == nil || !s.ledger.Reserve(engine.Cfg.QuotaSearchCost) {
		if s.api != nil {
			engine.IncrQuotaFallback()
			slog.Info("quota budget exhausted, using scrape", slog.String("term", term))
		}
		return s.fetchScrape(ctx, term, windowDays)
	}

	videos, cost, err := s.api.Fetch(ctx, term, windowDays)
	s.ledger.Settle(engine.Cfg.QuotaSearchCost, cost)
	if err != nil {
		switch engine.KindOf(err) {
		case engine.KindQuota:
			// The server's view of the budget wins over our ledger.
			s.ledger.Exhaust()
			engine.IncrQuotaFallback()
			slog.Warn("api quota rejected, falling back to scrape",
				slog.String("term", term), slog.Any("error", err))
			return s.fetchScrape(ctx, term, windowDays)
		case engine.KindTransient:
			slog.Warn("api fetch failed, falling back to scrape",
				slog.String("term", term), slog.Any("error", err))
			return s.fetchScrape(ctx, term, windowDays)
		default:
			// Auth, parse, anything unclassified.
			return engine.FetchResult{}, err
		}
	}

	result := engine.FetchResult{Candidates: videos, Origin: engine.OriginAPI}
	if s.mergeScrape {
		s.mergeScrapeExtras(ctx, term, windowDays, &result)
	}
	return result, nil
}

// fetchScrape serves a call entirely from the scraper.
func (s *Selector) fetchScrape(ctx context.Context, term string, windowDays int) (engine.FetchResult, error) {
	videos, dropped, err := s.scrape.FetchWithStats(ctx, term, windowDays)
	if err != nil {
		return engine.FetchResult{}, engine.WrapErr(engine.KindTransient, engine.StageAcquisition, err)
	}
	slog.Debug("fetch complete",
		slog.String("source", s.scrape.Name()),
		slog.Int("candidates", len(videos)),
		slog.Int("dropped", dropped))
	return engine.FetchResult{
		Candidates: videos,
		Origin:     engine.OriginScrape,
		Degraded:   true,
		Dropped:    dropped,
	}, nil
}

// mergeScrapeExtras adds scrape-only candidates the API search missed.
// Scrape failures here are logged and ignored; the API result stands alone.
func (s *Selector) mergeScrapeExtras(ctx context.Context, term string, windowDays int, result *engine.FetchResult) {
	extra, dropped, err := s.scrape.FetchWithStats(ctx, term, windowDays)
	if err != nil {
		slog.Warn("supplemental scrape failed", slog.String("term", term), slog.Any("error", err))
		return
	}
	seen := make(map[string]bool, len(result.Candidates))
	for _, v := range result.Candidates {
		seen[v.VideoID] = true
	}
	merged := 0
	for _, v := range extra {
		if !seen[v.VideoID] {
			result.Candidates = append(result.Candidates, v)
			merged++
		}
	}
	result.Dropped += dropped
	if merged > 0 {
		// Estimated statistics entered the candidate set.
		result.Degraded = true
		slog.Debug("merged scrape extras", slog.Int("merged", merged))
	}
}
