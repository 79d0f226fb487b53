package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"golang.org/x/time/rate"
)

// TrendingPageSource scrapes the regional trending feed. Videos found here
// get the trending-page origin, which the momentum model rewards with a
// score bonus and higher confidence.
type TrendingPageSource struct {
	limiter *rate.Limiter
}

func NewTrendingPageSource() *TrendingPageSource {
	return &TrendingPageSource{
		limiter: rate.NewLimiter(rate.Every(engine.Cfg.ScrapeMinDelay), 1),
	}
}

// Fetch returns trending-feed videos for a region, optionally filtered by a
// keyword against title and channel. A limit of 0 means no cap.
func (t *TrendingPageSource) Fetch(ctx context.Context, region, keyword string, limit int) ([]engine.VideoMetrics, error) {
	engine.IncrTrendingPage()
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	region = engine.NormRegion(region)
	feedURL := engine.Cfg.ScrapeBaseURL + "/feed/trending?gl=" + region + "&hl=en"

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, engine.WrapErr(engine.KindTransient, engine.StageAcquisition, fmt.Errorf("trending feed %s: %w", region, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, engine.Errf(engine.KindTransient, engine.StageAcquisition, "read trending feed: %v", err)
	}

	data, err := extractInitialData(body)
	if err != nil {
		return nil, err
	}

	videos, dropped := extractVideoRenderers(data, engine.OriginTrendingPage, time.Now().UTC())
	slog.Debug("trending feed parsed",
		slog.String("region", region),
		slog.Int("videos", len(videos)),
		slog.Int("dropped", dropped))

	if keyword != "" {
		kw := strings.ToLower(keyword)
		kept := videos[:0]
		for _, v := range videos {
			if strings.Contains(strings.ToLower(v.Title), kw) || strings.Contains(strings.ToLower(v.Channel), kw) {
				kept = append(kept, v)
			}
		}
		videos = kept
	}
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}
