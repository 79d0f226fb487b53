package trendserver

import (
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
)

func TestRenderCSV(t *testing.T) {
	published := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	videos := []engine.ScoredVideo{
		{
			VideoMetrics: engine.VideoMetrics{
				VideoID: "aaaaaaaaaaa", Title: `say "hi", world`, Channel: "ch",
				Views: 50000, Comments: 120, HasComments: true, PublishedAt: published,
			},
			Score: 1016.5, AgeHours: 20, EngagementRate: 0.0024,
		},
		{
			VideoMetrics: engine.VideoMetrics{
				VideoID: "bbbbbbbbbbb", Title: "quiet", Views: 9000, PublishedAt: published,
			},
			Score: 100, AgeHours: 18,
		},
	}

	out, err := renderCSV(videos)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rank,video_id,title") {
		t.Errorf("header = %q", lines[0])
	}
	// Titles with quotes and commas must be escaped, not break the row.
	if !strings.Contains(lines[1], `"say ""hi"", world"`) {
		t.Errorf("row 1 = %q", lines[1])
	}
	// Disabled comments export as an empty field, not 0.
	if !strings.Contains(lines[2], ",9000,,") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestQueryFromInputDefaults(t *testing.T) {
	q := queryFromInput(engine.TrendingSearchInput{Query: "golang"})
	if q.WindowDays != defaultWindowDays || q.TopCount != defaultTopCount {
		t.Errorf("defaults not applied: %+v", q)
	}

	q = queryFromInput(engine.TrendingSearchInput{Query: "golang", Days: 7, TopCount: 25})
	if q.WindowDays != 7 || q.TopCount != 25 {
		t.Errorf("explicit values overridden: %+v", q)
	}
}

func TestToVideoItems(t *testing.T) {
	comments := int64(120)
	videos := []engine.ScoredVideo{
		{
			VideoMetrics: engine.VideoMetrics{
				VideoID: "aaaaaaaaaaa", Views: 50000,
				Comments: comments, HasComments: true, DurationSeconds: 843,
				PublishedAt: time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
			},
			Score: 10, Confidence: 1.0,
		},
		{
			VideoMetrics: engine.VideoMetrics{VideoID: "bbbbbbbbbbb", Views: 9000},
			Score:        5, Confidence: 0.8,
		},
	}

	items := toVideoItems(videos)
	if items[0].Rank != 1 || items[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", items[0].Rank, items[1].Rank)
	}
	if items[0].Comments == nil || *items[0].Comments != 120 {
		t.Errorf("comments = %v", items[0].Comments)
	}
	if items[1].Comments != nil {
		t.Error("absent comment count must serialize as nil")
	}
	if items[0].Duration != "14:03" {
		t.Errorf("duration = %q", items[0].Duration)
	}
	if items[0].URL != "https://www.youtube.com/watch?v=aaaaaaaaaaa" {
		t.Errorf("url = %q", items[0].URL)
	}
	if items[0].Confidence != 0 {
		t.Errorf("full-confidence score should omit the field, got %v", items[0].Confidence)
	}
	if items[1].Confidence != 0.8 {
		t.Errorf("confidence = %v", items[1].Confidence)
	}
}
