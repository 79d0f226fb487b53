package trendserver

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTrendingExport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trending_export",
		Description: "Run a trending analysis and return the ranked videos as CSV (rank, video_id, title, channel, url, views, comments, trending_score, engagement_rate, age_hours, published_at). Empty comment field means comments are disabled on the video.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TrendingExportInput) (*mcp.CallToolResult, engine.TrendingExportOutput, error) {
		q := queryFromInput(engine.TrendingSearchInput{
			Query:    input.Query,
			Days:     input.Days,
			TopCount: input.TopCount,
		})

		result, err := engine.Analyze(ctx, selector, q)
		if err != nil {
			return nil, engine.TrendingExportOutput{}, err
		}

		csvText, err := renderCSV(result.Videos)
		if err != nil {
			return nil, engine.TrendingExportOutput{}, err
		}
		return nil, engine.TrendingExportOutput{
			Query: q.SearchTerm,
			Rows:  len(result.Videos),
			CSV:   csvText,
		}, nil
	})
}

func renderCSV(videos []engine.ScoredVideo) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"rank", "video_id", "title", "channel", "url", "views", "comments", "trending_score", "engagement_rate", "age_hours", "published_at"}); err != nil {
		return "", err
	}
	for i, v := range videos {
		comments := ""
		if v.HasComments {
			comments = strconv.FormatInt(v.Comments, 10)
		}
		row := []string{
			strconv.Itoa(i + 1),
			v.VideoID,
			v.Title,
			v.Channel,
			engine.WatchURL(v.VideoID),
			strconv.FormatInt(v.Views, 10),
			comments,
			strconv.FormatFloat(v.Score, 'f', 4, 64),
			strconv.FormatFloat(v.EngagementRate, 'f', 6, 64),
			strconv.FormatFloat(v.AgeHours, 'f', 2, 64),
			v.PublishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}
