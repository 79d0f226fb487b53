package engine

import "strings"

// regionMarkers lists language and topic markers per target region, matched
// case-insensitively against title plus channel. Only the DACH market has a
// curated list so far; regions without one stay at the neutral baseline.
var regionMarkers = map[string][]string{
	"DE": {
		"deutsch", "german", "österreich", "schweiz",
		"ard", "zdf", "rtl", "pro7", "sat1", "ntv", "spiegel", "tagesschau",
		"bundesliga", "dfb", "bayern", "dortmund", "borussia",
		"berlin", "münchen", "hamburg", "köln", "frankfurt", "leipzig",
		"wien", "zürich", "tirol", "salzburg", "basel",
		"nachrichten", "heute", "aktuell", "politik", "wirtschaft", "fußball",
	},
}

// dachRegions share the German marker list.
var dachRegions = map[string]string{"DE": "DE", "AT": "DE", "CH": "DE"}

const regionalBaseline = 0.2

// RegionalRelevance estimates how relevant a video is to viewers in the
// target region, 0..1, from its title and channel name. Neutral content
// sits at the baseline; marker matches raise the score toward 1. The value
// feeds MomentumParams.RegionalWeight as a score multiplier.
func RegionalRelevance(region, title, channel string) float64 {
	key := strings.ToUpper(strings.TrimSpace(region))
	if mapped, ok := dachRegions[key]; ok {
		key = mapped
	}
	markers := regionMarkers[key]
	if len(markers) == 0 {
		return regionalBaseline
	}

	text := strings.ToLower(title + " " + channel)
	matched := 0
	for _, m := range markers {
		if strings.Contains(text, m) {
			matched++
		}
	}
	if matched == 0 {
		return regionalBaseline
	}

	// A handful of matches is already a strong regional signal.
	score := regionalBaseline + 0.4*float64(matched)
	return min(score, 1.0)
}
