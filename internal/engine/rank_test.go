package engine

import (
	"testing"
	"time"
)

func scoredVideo(id string, score float64, views int64, published time.Time) ScoredVideo {
	return ScoredVideo{
		VideoMetrics: VideoMetrics{VideoID: id, Views: views, PublishedAt: published},
		Score:        score,
	}
}

func TestRankOrdering(t *testing.T) {
	t0 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	videos := []ScoredVideo{
		scoredVideo("ccccccccccc", 10, 100, t0),
		scoredVideo("aaaaaaaaaaa", 30, 100, t0),
		scoredVideo("bbbbbbbbbbb", 20, 100, t0),
	}
	got := Rank(videos, 0)
	wantOrder := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}
	for i, want := range wantOrder {
		if got[i].VideoID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].VideoID, want)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	t0 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	newer := t0.Add(6 * time.Hour)

	videos := []ScoredVideo{
		scoredVideo("ddddddddddd", 10, 100, t0), // same as c: ID decides
		scoredVideo("ccccccccccc", 10, 100, t0),
		scoredVideo("bbbbbbbbbbb", 10, 100, newer), // same views, newer wins
		scoredVideo("aaaaaaaaaaa", 10, 200, t0),    // more views wins first
	}
	got := Rank(videos, 0)
	wantOrder := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}
	for i, want := range wantOrder {
		if got[i].VideoID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].VideoID, want)
		}
	}
}

func TestRankTruncation(t *testing.T) {
	t0 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	videos := []ScoredVideo{
		scoredVideo("aaaaaaaaaaa", 3, 1, t0),
		scoredVideo("bbbbbbbbbbb", 2, 1, t0),
		scoredVideo("ccccccccccc", 1, 1, t0),
	}
	if got := Rank(videos, 2); len(got) != 2 {
		t.Errorf("expected 2 videos, got %d", len(got))
	}

	// Fewer candidates than requested is fine.
	short := []ScoredVideo{scoredVideo("aaaaaaaaaaa", 1, 1, t0)}
	if got := Rank(short, 10); len(got) != 1 {
		t.Errorf("expected 1 video, got %d", len(got))
	}

	if got := Rank(nil, 5); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestSortVideosByViews(t *testing.T) {
	t0 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	videos := []ScoredVideo{
		scoredVideo("aaaaaaaaaaa", 99, 10, t0),
		scoredVideo("ccccccccccc", 1, 500, t0),
		scoredVideo("bbbbbbbbbbb", 50, 500, t0), // ties with c on views, ID decides
	}
	SortVideos(videos, SortByViews)
	wantOrder := []string{"bbbbbbbbbbb", "ccccccccccc", "aaaaaaaaaaa"}
	for i, want := range wantOrder {
		if videos[i].VideoID != want {
			t.Errorf("position %d: got %s, want %s", i, videos[i].VideoID, want)
		}
	}
}

func TestSortVideosByAge(t *testing.T) {
	videos := []ScoredVideo{
		{VideoMetrics: VideoMetrics{VideoID: "aaaaaaaaaaa"}, AgeHours: 30},
		{VideoMetrics: VideoMetrics{VideoID: "bbbbbbbbbbb"}, AgeHours: 2},
	}
	SortVideos(videos, SortByAge)
	if videos[0].VideoID != "bbbbbbbbbbb" {
		t.Errorf("youngest first, got %s", videos[0].VideoID)
	}
}
