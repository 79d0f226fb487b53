package trendserver

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/anatolykoptev/go_trending/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultWindowDays = 2
	defaultTopCount   = 10
)

func registerTrendingSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trending_search",
		Description: "Find YouTube videos gaining momentum for a search phrase. Scores recent videos by view velocity and engagement, normalised for age, and returns the top N ranked by trending score. Supports a look-back window (days), minimum duration filter, alternative sort orders, and a momentum scoring algorithm with confidence estimates.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TrendingSearchInput) (*mcp.CallToolResult, engine.TrendingSearchOutput, error) {
		q := queryFromInput(input)

		cacheKey := engine.CacheKey("trending_search", q.SearchTerm,
			strconv.Itoa(q.WindowDays), strconv.Itoa(q.TopCount), strconv.Itoa(q.MinDuration),
			q.SortBy, q.Algorithm)
		if out, ok := toolutil.CacheLoadJSON[engine.TrendingSearchOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		result, err := engine.Analyze(ctx, selector, q)
		if err != nil {
			return nil, engine.TrendingSearchOutput{}, err
		}

		algorithm := q.Algorithm
		if algorithm == "" {
			algorithm = engine.AlgorithmTrending
		}
		out := engine.TrendingSearchOutput{
			Query:     q.SearchTerm,
			Algorithm: algorithm,
			Analyzed:  result.Analyzed,
			Source:    string(result.Origin),
			Degraded:  result.Degraded,
			Videos:    toVideoItems(result.Videos),
		}

		slog.Info("trending_search done",
			slog.String("query", q.SearchTerm),
			slog.Int("analyzed", result.Analyzed),
			slog.Int("returned", len(out.Videos)),
			slog.String("source", out.Source))

		toolutil.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

// queryFromInput applies the documented defaults; validation happens inside
// the pipeline.
func queryFromInput(input engine.TrendingSearchInput) engine.Query {
	q := engine.Query{
		SearchTerm:  input.Query,
		WindowDays:  input.Days,
		TopCount:    input.TopCount,
		MinDuration: input.MinDuration,
		SortBy:      input.SortBy,
		Algorithm:   input.Algorithm,
	}
	if q.WindowDays == 0 {
		q.WindowDays = defaultWindowDays
	}
	if q.TopCount == 0 {
		q.TopCount = defaultTopCount
	}
	return q
}
