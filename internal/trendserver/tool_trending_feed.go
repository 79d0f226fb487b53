package trendserver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/anatolykoptev/go_trending/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFeedLimit = 20

func registerTrendingFeed(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trending_feed",
		Description: "Fetch the current YouTube trending page for a region (two-letter code, default US), optionally filtered by keyword. Returns videos ranked by momentum score with confidence estimates. Uses no API quota.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TrendingFeedInput) (*mcp.CallToolResult, engine.TrendingFeedOutput, error) {
		limit := input.Limit
		if limit == 0 {
			limit = defaultFeedLimit
		}
		if limit < 1 || limit > engine.Cfg.MaxTopCount {
			return nil, engine.TrendingFeedOutput{}, fmt.Errorf("limit must be between 1 and %d, got %d", engine.Cfg.MaxTopCount, limit)
		}
		region := engine.NormRegion(input.Region)

		cacheKey := engine.CacheKey("trending_feed", region, input.Keyword, strconv.Itoa(limit))
		if out, ok := toolutil.CacheLoadJSON[engine.TrendingFeedOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		videos, err := trending.Fetch(ctx, region, input.Keyword, 0)
		if err != nil {
			return nil, engine.TrendingFeedOutput{}, err
		}

		for i := range videos {
			videos[i].RegionalBoost = engine.RegionalRelevance(region, videos[i].Title, videos[i].Channel)
		}

		now := time.Now().UTC()
		scored := engine.ScoreAll(videos, engine.Query{Algorithm: engine.AlgorithmMomentum}, now)
		scored = engine.Rank(scored, limit)

		out := engine.TrendingFeedOutput{
			Region: region,
			Videos: toVideoItems(scored),
		}
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
