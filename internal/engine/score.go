package engine

import (
	"math"
	"time"
)

// ScoreParams are the tuning constants of the trending score. They are
// empirical product decisions, not derived values, so they stay overridable
// through config rather than being hard-coded.
type ScoreParams struct {
	EngagementFactor  float64 // weight of one comment relative to one view
	FreshnessExponent float64 // age penalty exponent; > 1 so older videos decay super-linearly
	MinAgeHours       float64 // clamp that keeps just-published videos finite
}

// DefaultScoreParams are the defaults applied by Init.
var DefaultScoreParams = ScoreParams{
	EngagementFactor:  10.0,
	FreshnessExponent: 1.3,
	MinAgeHours:       0.5,
}

// Score computes the trending score for one video against a frozen timestamp:
//
//	score = (views + comments*factor) / ageHours^exponent * (1 + engagementRate)
//
// A missing comment count contributes 0 to the numerator and 0 engagement,
// but the video itself stays scoreable. Returns ok=false when the inputs
// produce a non-finite score; the caller drops the record and logs it as a
// data-quality anomaly instead of failing the request.
func (p ScoreParams) Score(v VideoMetrics, now time.Time) (ScoredVideo, bool) {
	ageHours := math.Max(p.MinAgeHours, now.Sub(v.PublishedAt).Hours())

	var comments float64
	var engagementRate float64
	if v.HasComments {
		comments = float64(v.Comments)
		engagementRate = comments / math.Max(1, float64(v.Views))
	}

	rawScore := (float64(v.Views) + comments*p.EngagementFactor) / math.Pow(ageHours, p.FreshnessExponent)
	score := rawScore * (1 + engagementRate)

	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return ScoredVideo{}, false
	}

	return ScoredVideo{
		VideoMetrics:   v,
		Score:          score,
		AgeHours:       ageHours,
		EngagementRate: engagementRate,
		Confidence:     1.0,
	}, true
}
