// Package trendserver exposes the trending analysis pipeline as MCP tools:
// trending_search, trending_feed, trending_export, quota_status.
package trendserver

import (
	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/anatolykoptev/go_trending/internal/engine/sources"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Package singletons wired once at startup by Init.
var (
	selector *sources.Selector
	trending *sources.TrendingPageSource
	ledger   *engine.QuotaLedger
)

// Init wires the acquisition stack into the tool handlers. Must be called
// before RegisterTools.
func Init(sel *sources.Selector, tp *sources.TrendingPageSource, q *engine.QuotaLedger) {
	selector = sel
	trending = tp
	ledger = q
}

// RegisterTools registers all trending analysis tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerTrendingSearch(server)
	registerTrendingFeed(server)
	registerTrendingExport(server)
	registerQuotaStatus(server)
}

// toVideoItems converts ranked pipeline output to the tool response shape.
// Missing comment and like counts stay nil so a disabled counter is never
// reported as zero.
func toVideoItems(videos []engine.ScoredVideo) []engine.VideoItem {
	items := make([]engine.VideoItem, 0, len(videos))
	for i, v := range videos {
		item := engine.VideoItem{
			Rank:           i + 1,
			VideoID:        v.VideoID,
			Title:          v.Title,
			Channel:        v.Channel,
			URL:            engine.WatchURL(v.VideoID),
			Views:          v.Views,
			Score:          v.Score,
			EngagementRate: v.EngagementRate,
			AgeHours:       v.AgeHours,
			PublishedAt:    v.PublishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if v.HasComments {
			c := v.Comments
			item.Comments = &c
		}
		if v.HasLikes {
			l := v.Likes
			item.Likes = &l
		}
		if v.DurationSeconds > 0 {
			item.Duration = engine.FormatDuration(v.DurationSeconds)
		}
		if v.Confidence != 1.0 {
			item.Confidence = v.Confidence
		}
		items = append(items, item)
	}
	return items
}
