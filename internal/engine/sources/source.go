// Package sources implements the candidate acquisition adapters (the
// authenticated YouTube Data API v3 client and the unauthenticated scraping
// fallback) plus the selector that arbitrates between them. All markup and
// payload parsing stays behind this package boundary so upstream format
// drift never leaks into scoring or ranking.
package sources

import (
	"context"

	"github.com/anatolykoptev/go_trending/internal/engine"
)

// Source fetches raw candidate metrics from exactly one upstream surface.
// cost is the number of quota units the call actually consumed; the scraping
// adapter always reports 0. Failures carry an engine.ErrorKind so the
// selector can pick between fallback and hard failure.
type Source interface {
	Name() string
	Fetch(ctx context.Context, term string, windowDays int) (videos []engine.VideoMetrics, cost int64, err error)
}
