package engine

import (
	"context"
	"log/slog"
	"time"
)

// FetchResult is the acquisition layer's answer for one analyze call.
type FetchResult struct {
	Candidates []VideoMetrics
	Origin     Origin
	Degraded   bool // served by the fallback path, or suspiciously empty scrape
	Dropped    int  // records discarded for failing validation
}

// CandidateSource is the acquisition capability consumed by Analyze.
// The selector in sources/ implements it.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, term string, windowDays int) (FetchResult, error)
}

// AnalyzeResult is the ranked outcome of one analyze call. An empty Videos
// slice with no error means the window genuinely held no candidates.
type AnalyzeResult struct {
	Videos   []ScoredVideo
	Analyzed int
	Origin   Origin
	Degraded bool
}

// ValidateQuery checks the request against configured bounds before any
// network call. Invalid values fail fast with KindInvalidQuery; nothing is
// clamped silently.
func ValidateQuery(q Query) error {
	if q.SearchTerm == "" {
		return Errf(KindInvalidQuery, StageValidation, "query is required")
	}
	if q.WindowDays < 1 || q.WindowDays > cfg.MaxWindowDays {
		return Errf(KindInvalidQuery, StageValidation, "days must be between 1 and %d, got %d", cfg.MaxWindowDays, q.WindowDays)
	}
	if q.TopCount < 1 || q.TopCount > cfg.MaxTopCount {
		return Errf(KindInvalidQuery, StageValidation, "top_count must be between 1 and %d, got %d", cfg.MaxTopCount, q.TopCount)
	}
	if q.MinDuration < 0 || q.MinDuration > 3600 {
		return Errf(KindInvalidQuery, StageValidation, "min_duration must be between 0 and 3600 seconds, got %d", q.MinDuration)
	}
	switch q.SortBy {
	case "", SortByScore, SortByViews, SortByComments, SortByLikes, SortByAge:
	default:
		return Errf(KindInvalidQuery, StageValidation, "sort_by must be one of trending_score, views, comments, likes, age")
	}
	switch q.Algorithm {
	case "", AlgorithmTrending, AlgorithmMomentum:
	default:
		return Errf(KindInvalidQuery, StageValidation, "algorithm must be trending or momentum")
	}
	return nil
}

// Analyze runs the full pipeline: validate, acquire candidates, score every
// candidate against one frozen timestamp, rank, truncate. Acquisition errors
// fail the whole call so an error is never mistaken for an empty window.
func Analyze(ctx context.Context, src CandidateSource, q Query) (AnalyzeResult, error) {
	metrics.AnalyzeRequests.Add(1)

	if err := ValidateQuery(q); err != nil {
		return AnalyzeResult{}, err
	}

	fetched, err := src.FetchCandidates(ctx, q.SearchTerm, q.WindowDays)
	if err != nil {
		return AnalyzeResult{}, WrapErr(KindUnknown, StageAcquisition, err)
	}
	if fetched.Dropped > 0 {
		slog.Warn("acquisition dropped records",
			slog.String("term", q.SearchTerm),
			slog.Int("dropped", fetched.Dropped),
			slog.Int("kept", len(fetched.Candidates)))
	}

	// One timestamp for the whole batch keeps all scores comparable.
	now := time.Now().UTC()
	scored := ScoreAll(fetched.Candidates, q, now)

	if q.SortBy != "" && q.SortBy != SortByScore {
		SortVideos(scored, q.SortBy)
		if len(scored) > q.TopCount {
			scored = scored[:q.TopCount]
		}
	} else {
		scored = Rank(scored, q.TopCount)
	}

	return AnalyzeResult{
		Videos:   scored,
		Analyzed: len(fetched.Candidates),
		Origin:   fetched.Origin,
		Degraded: fetched.Degraded,
	}, nil
}

// ScoreAll scores candidates with the algorithm the query selects, applying
// the duration filter and dropping non-finite scores as data-quality
// anomalies rather than request failures.
func ScoreAll(candidates []VideoMetrics, q Query, now time.Time) []ScoredVideo {
	scored := make([]ScoredVideo, 0, len(candidates))
	for _, v := range candidates {
		if q.MinDuration > 0 && v.DurationSeconds < q.MinDuration {
			continue
		}
		var sv ScoredVideo
		var ok bool
		if q.Algorithm == AlgorithmMomentum {
			sv, ok = cfg.Momentum.Score(v, now)
		} else {
			sv, ok = cfg.Score.Score(v, now)
		}
		if !ok {
			metrics.ScoreAnomalies.Add(1)
			slog.Warn("score anomaly, dropping video",
				slog.String("video_id", v.VideoID),
				slog.Int64("views", v.Views),
				slog.Time("published_at", v.PublishedAt))
			continue
		}
		scored = append(scored, sv)
	}
	return scored
}
