package engine

import "time"

// Origin identifies which adapter produced a candidate record.
type Origin string

const (
	OriginAPI          Origin = "api"
	OriginScrape       Origin = "scrape"
	OriginTrendingPage Origin = "trending_page"
)

// VideoMetrics is one raw upstream candidate record.
// Comments and Likes are only meaningful when the corresponding Has flag is set:
// YouTube omits commentCount when comments are disabled, and a missing count must
// never be confused with a genuine zero.
type VideoMetrics struct {
	VideoID         string
	Title           string
	Channel         string
	Views           int64
	Comments        int64
	HasComments     bool
	Likes           int64
	HasLikes        bool
	DurationSeconds int
	PublishedAt     time.Time // UTC
	Origin          Origin

	// RegionalBoost is the 0..1 regional relevance estimate from
	// RegionalRelevance. Zero means no boost, not unknown.
	RegionalBoost float64
}

// ScoredVideo is a VideoMetrics frozen against a single analysis timestamp.
// Created once by the scoring engine, immutable afterwards.
type ScoredVideo struct {
	VideoMetrics
	Score          float64
	AgeHours       float64
	EngagementRate float64
	Confidence     float64 // momentum algorithm only; 1.0 otherwise
}

// Query is one validated analysis request.
type Query struct {
	SearchTerm  string
	WindowDays  int
	TopCount    int
	MinDuration int    // seconds; 0 = no duration filter
	SortBy      string // "" = trending_score
	Algorithm   string // "" = trending
}

// Sort and algorithm choices accepted by Query.
const (
	SortByScore    = "trending_score"
	SortByViews    = "views"
	SortByComments = "comments"
	SortByLikes    = "likes"
	SortByAge      = "age"

	AlgorithmTrending = "trending"
	AlgorithmMomentum = "momentum"
)

// --- Tool input types ---

type TrendingSearchInput struct {
	Query       string `json:"query" jsonschema:"Search phrase"`
	Days        int    `json:"days,omitempty" jsonschema:"Look-back window in days (1-30, default: 2)"`
	TopCount    int    `json:"top_count,omitempty" jsonschema:"Number of videos to return (1-50, default: 10)"`
	MinDuration int    `json:"min_duration,omitempty" jsonschema:"Minimum video duration in seconds (0-3600, default: 0)"`
	SortBy      string `json:"sort_by,omitempty" jsonschema:"Sort order: trending_score (default), views, comments, likes, age"`
	Algorithm   string `json:"algorithm,omitempty" jsonschema:"Scoring algorithm: trending (default) or momentum"`
}

type TrendingFeedInput struct {
	Region  string `json:"region,omitempty" jsonschema:"Two-letter region code (default: US)"`
	Keyword string `json:"keyword,omitempty" jsonschema:"Optional keyword filter on titles and channels"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max videos to return (1-50, default: 20)"`
}

type TrendingExportInput struct {
	Query    string `json:"query" jsonschema:"Search phrase"`
	Days     int    `json:"days,omitempty" jsonschema:"Look-back window in days (1-30, default: 2)"`
	TopCount int    `json:"top_count,omitempty" jsonschema:"Number of videos to export (1-50, default: 10)"`
}

type QuotaStatusInput struct{}

// --- Tool output types (JSON responses) ---

// VideoItem is one ranked video in tool output.
type VideoItem struct {
	Rank           int     `json:"rank"`
	VideoID        string  `json:"video_id"`
	Title          string  `json:"title"`
	Channel        string  `json:"channel,omitempty"`
	URL            string  `json:"url"`
	Views          int64   `json:"views"`
	Comments       *int64  `json:"comments,omitempty"` // nil when comments are disabled
	Likes          *int64  `json:"likes,omitempty"`
	Score          float64 `json:"trending_score"`
	Confidence     float64 `json:"confidence,omitempty"` // momentum algorithm only
	EngagementRate float64 `json:"engagement_rate"`
	AgeHours       float64 `json:"age_hours"`
	Duration       string  `json:"duration,omitempty"` // MM:SS or HH:MM:SS
	PublishedAt    string  `json:"published_at"`
}

type TrendingSearchOutput struct {
	Query     string      `json:"query"`
	Algorithm string      `json:"algorithm"`
	Analyzed  int         `json:"analyzed_videos"`
	Source    string      `json:"source"`
	Degraded  bool        `json:"degraded,omitempty"`
	Videos    []VideoItem `json:"videos"`
}

type TrendingFeedOutput struct {
	Region string      `json:"region"`
	Videos []VideoItem `json:"videos"`
}

type TrendingExportOutput struct {
	Query string `json:"query"`
	Rows  int    `json:"rows"`
	CSV   string `json:"csv"`
}

type QuotaStatusOutput struct {
	DailyLimit int64  `json:"daily_limit"`
	Used       int64  `json:"used"`
	Remaining  int64  `json:"remaining"`
	ResetsAt   string `json:"resets_at"`
}
