package engine

import (
	"fmt"
	"strings"
)

// UserAgentBot identifies authenticated Data API calls; scraping requests
// use randomized browser agents instead.
const UserAgentBot = "GoTrending/1.0"

// Truncate returns the first n bytes of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FormatDuration renders seconds as MM:SS, or HH:MM:SS for hour-long videos.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// NormRegion uppercases and validates a two-letter region code, defaulting
// to US.
func NormRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if len(region) != 2 {
		return "US"
	}
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return "US"
		}
	}
	return region
}
