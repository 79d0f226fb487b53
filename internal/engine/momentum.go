package engine

import (
	"math"
	"time"
)

// MomentumParams tune the alternative momentum score, a weighted blend of
// view velocity, engagement mass, and an exponential freshness decay:
//
//	score = viewsPerHour*Wv + engagementRate*views*We + views*exp(-age/decay)*Wf
//
// Engagement here counts likes and comments together, unlike the trending
// score which weighs comments only. Trending-page sightings and regional
// relevance apply multiplicative bonuses on top of the blend.
type MomentumParams struct {
	VelocityWeight    float64
	EngagementWeight  float64
	FreshnessWeight   float64
	TimeDecayHours    float64
	TrendingPageBonus float64 // multiplier for videos seen on a trending page
	RegionalWeight    float64 // scales VideoMetrics.RegionalBoost into a multiplier
	MinAgeHours       float64
}

// DefaultMomentumParams are the recommended weights: velocity dominates,
// engagement second, freshness as a tiebreaker boost.
var DefaultMomentumParams = MomentumParams{
	VelocityWeight:    0.6,
	EngagementWeight:  0.3,
	FreshnessWeight:   0.1,
	TimeDecayHours:    24.0,
	TrendingPageBonus: 1.5,
	RegionalWeight:    0.2, // a fully regional video scores at most +20%
	MinAgeHours:       0.5,
}

// Score computes the momentum score for one video against a frozen timestamp.
// Returns ok=false on a non-finite result, mirroring ScoreParams.Score.
func (p MomentumParams) Score(v VideoMetrics, now time.Time) (ScoredVideo, bool) {
	ageHours := math.Max(p.MinAgeHours, now.Sub(v.PublishedAt).Hours())
	views := math.Max(1, float64(v.Views))

	var engaged float64
	if v.HasComments {
		engaged += float64(v.Comments)
	}
	if v.HasLikes {
		engaged += float64(v.Likes)
	}
	engagementRate := engaged / views

	velocity := views / ageHours * p.VelocityWeight
	engagement := engagementRate * views * p.EngagementWeight
	freshness := views * math.Exp(-ageHours/p.TimeDecayHours) * p.FreshnessWeight

	score := velocity + engagement + freshness
	if v.Origin == OriginTrendingPage {
		score *= p.TrendingPageBonus
	}
	if v.RegionalBoost > 0 {
		score *= 1 + math.Min(v.RegionalBoost, 1)*p.RegionalWeight
	}

	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return ScoredVideo{}, false
	}

	return ScoredVideo{
		VideoMetrics:   v,
		Score:          score,
		AgeHours:       ageHours,
		EngagementRate: engagementRate,
		Confidence:     p.confidence(v, ageHours, engagementRate),
	}, true
}

// confidence estimates how trustworthy a momentum score is: trending-page
// sightings, plausible engagement ratios, and enough data all raise it.
func (p MomentumParams) confidence(v VideoMetrics, ageHours, engagementRate float64) float64 {
	c := 0.5
	if v.Origin == OriginTrendingPage {
		c += 0.3
	}
	if engagementRate >= 0.001 && engagementRate <= 0.1 {
		c += 0.2
	}
	if v.Views >= 1000 {
		c += 0.1
	}
	if ageHours >= 1 && ageHours <= 72 {
		c += 0.1
	}
	return math.Min(c, 1.0)
}
