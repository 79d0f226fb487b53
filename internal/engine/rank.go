package engine

import "sort"

// Rank orders scored videos for presentation: score descending, ties broken
// by views descending, then by the newer publish timestamp, then by video ID
// so identical inputs always produce identical output. The result is
// truncated to topCount; fewer candidates than topCount is not an error.
func Rank(videos []ScoredVideo, topCount int) []ScoredVideo {
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.VideoID < b.VideoID
	})
	if topCount > 0 && len(videos) > topCount {
		videos = videos[:topCount]
	}
	return videos
}

// SortVideos reorders scored videos by an alternative key. The default key
// (trending_score) delegates to Rank's full tie-break chain; the others fall
// back to video ID for determinism.
func SortVideos(videos []ScoredVideo, sortBy string) {
	var less func(a, b ScoredVideo) bool
	switch sortBy {
	case SortByViews:
		less = func(a, b ScoredVideo) bool { return a.Views > b.Views }
	case SortByComments:
		less = func(a, b ScoredVideo) bool { return a.Comments > b.Comments }
	case SortByLikes:
		less = func(a, b ScoredVideo) bool { return a.Likes > b.Likes }
	case SortByAge:
		less = func(a, b ScoredVideo) bool { return a.AgeHours < b.AgeHours }
	default:
		Rank(videos, 0)
		return
	}
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		if less(a, b) || less(b, a) {
			return less(a, b)
		}
		return a.VideoID < b.VideoID
	})
}
