package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AnalyzeRequests      atomic.Int64
	APISearchRequests    atomic.Int64
	APIDetailRequests    atomic.Int64
	ScrapeSearchRequests atomic.Int64
	ScrapeDetailRequests atomic.Int64
	TrendingPageRequests atomic.Int64
	QuotaFallbacks       atomic.Int64
	ScoreAnomalies       atomic.Int64
	DroppedRecords       atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"analyze_requests":       metrics.AnalyzeRequests.Load(),
		"api_search_requests":    metrics.APISearchRequests.Load(),
		"api_detail_requests":    metrics.APIDetailRequests.Load(),
		"scrape_search_requests": metrics.ScrapeSearchRequests.Load(),
		"scrape_detail_requests": metrics.ScrapeDetailRequests.Load(),
		"trending_page_requests": metrics.TrendingPageRequests.Load(),
		"quota_fallbacks":        metrics.QuotaFallbacks.Load(),
		"score_anomalies":        metrics.ScoreAnomalies.Load(),
		"dropped_records":        metrics.DroppedRecords.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"analyze_requests",
		"api_search_requests", "api_detail_requests",
		"scrape_search_requests", "scrape_detail_requests",
		"trending_page_requests",
		"quota_fallbacks", "score_anomalies", "dropped_records",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources sub-package.
func IncrAPISearch()      { metrics.APISearchRequests.Add(1) }
func IncrAPIDetail()      { metrics.APIDetailRequests.Add(1) }
func IncrScrapeSearch()   { metrics.ScrapeSearchRequests.Add(1) }
func IncrScrapeDetail()   { metrics.ScrapeDetailRequests.Add(1) }
func IncrTrendingPage()   { metrics.TrendingPageRequests.Add(1) }
func IncrQuotaFallback()  { metrics.QuotaFallbacks.Add(1) }
func IncrDroppedRecords() { metrics.DroppedRecords.Add(1) }
