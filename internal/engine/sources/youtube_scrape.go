package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"golang.org/x/time/rate"
)

// Scraping constants for the public search surface.
const (
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos-only filter param
	maxScrapeBody       = 4 * 1024 * 1024
)

var videoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ScrapeSource is the unauthenticated fallback adapter. It parses the search
// page's ytInitialData blob for candidates, then refines per-video statistics
// from watch-page metadata with bounded parallelism. Markup is unstable, so
// every extracted field is validated before acceptance; a record that cannot
// be parsed is dropped, never defaulted to zero.
type ScrapeSource struct {
	limiter *rate.Limiter // inter-request delay floor, shared by all fetches
}

func NewScrapeSource() *ScrapeSource {
	return &ScrapeSource{
		limiter: rate.NewLimiter(rate.Every(engine.Cfg.ScrapeMinDelay), 1),
	}
}

func (s *ScrapeSource) Name() string { return string(engine.OriginScrape) }

// Fetch satisfies the Source contract. Scraping never consumes API quota.
func (s *ScrapeSource) Fetch(ctx context.Context, term string, windowDays int) ([]engine.VideoMetrics, int64, error) {
	videos, _, err := s.FetchWithStats(ctx, term, windowDays)
	return videos, 0, err
}

// FetchWithStats additionally reports how many candidate records were
// discarded during parsing, which feeds the degraded-result signal: a scrape
// that dropped everything looks more like format drift than an empty window.
func (s *ScrapeSource) FetchWithStats(ctx context.Context, term string, windowDays int) ([]engine.VideoMetrics, int, error) {
	candidates, dropped, err := s.searchPage(ctx, term)
	if err != nil {
		return nil, dropped, err
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -windowDays)

	kept := candidates[:0]
	for _, c := range candidates {
		if c.PublishedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, c)
	}

	s.refineDetails(ctx, kept)

	// Refinement replaces relative-time estimates with exact watch-page
	// dates, so the cutoff is applied a second time: a video the search
	// page placed just inside the window may really sit outside it.
	final := kept[:0]
	for _, c := range kept {
		if c.PublishedAt.Before(cutoff) {
			continue
		}
		final = append(final, c)
	}
	return final, dropped, nil
}

// searchPage fetches /results and extracts candidates from ytInitialData.
func (s *ScrapeSource) searchPage(ctx context.Context, term string) ([]engine.VideoMetrics, int, error) {
	engine.IncrScrapeSearch()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	searchURL := engine.Cfg.ScrapeBaseURL + "/results?search_query=" + url.QueryEscape(term) + "&sp=" + ytSearchFilter

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		// Fresh client identity per request to stay under trivial blocking.
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, 0, engine.WrapErr(engine.KindTransient, engine.StageAcquisition, fmt.Errorf("youtube search page: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, 0, engine.Errf(engine.KindTransient, engine.StageAcquisition, "read youtube search response: %v", err)
	}

	data, err := extractInitialData(body)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now().UTC()
	videos, dropped := extractVideoRenderers(data, engine.OriginScrape, now)
	slog.Debug("scrape search parsed",
		slog.Int("videos", len(videos)),
		slog.Int("dropped", dropped))
	return videos, dropped, nil
}

// refineDetails upgrades estimated fields with watch-page metadata, bounded
// by ScrapeConcurrency. A per-video failure keeps the search-page estimate;
// it never aborts the batch.
func (s *ScrapeSource) refineDetails(ctx context.Context, videos []engine.VideoMetrics) {
	if len(videos) == 0 {
		return
	}

	sem := make(chan struct{}, engine.Cfg.ScrapeConcurrency)
	var wg sync.WaitGroup
	for i := range videos {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, err := s.fetchWatchMeta(ctx, videos[idx].VideoID)
			if err != nil {
				slog.Debug("watch page refine failed",
					slog.String("video_id", videos[idx].VideoID), slog.Any("error", err))
				return
			}
			if meta.HasViews {
				videos[idx].Views = meta.Views
			}
			if !meta.Published.IsZero() {
				videos[idx].PublishedAt = meta.Published
			}
			if meta.Title != "" {
				videos[idx].Title = meta.Title
			}
		}(i)
	}
	wg.Wait()
}

// extractInitialData locates and balances the ytInitialData JSON object.
func extractInitialData(body []byte) ([]byte, error) {
	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, engine.Errf(engine.KindParse, engine.StageAcquisition, "ytInitialData not found in response")
	}
	data := extractJSON(body[idx+len(ytInitialDataMarker):])
	if data == nil {
		return nil, engine.Errf(engine.KindParse, engine.StageAcquisition, "failed to extract ytInitialData JSON")
	}
	return data, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, c := range b {
		if inStr {
			if c == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch c {
			case '"':
				inStr = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = c
	}
	return nil
}

// --- ytInitialData scraping types ---

type ytVideoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	OwnerText struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"ownerText"`
	ViewCountText struct {
		SimpleText string `json:"simpleText"`
	} `json:"viewCountText"`
	PublishedTimeText struct {
		SimpleText string `json:"simpleText"`
	} `json:"publishedTimeText"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
}

// extractVideoRenderers recursively walks ytInitialData for videoRenderer
// entries and validates each against the VideoMetrics invariants. Returns
// the accepted records and the count of dropped ones.
func extractVideoRenderers(data []byte, origin engine.Origin, now time.Time) ([]engine.VideoMetrics, int) {
	var results []engine.VideoMetrics
	dropped := 0
	seen := make(map[string]bool)

	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytVideoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" && !seen[vr.VideoID] {
					seen[vr.VideoID] = true
					if m, ok := vr.toMetrics(origin, now); ok {
						results = append(results, m)
					} else {
						dropped++
						engine.IncrDroppedRecords()
					}
					return
				}
			}
			for _, child := range obj {
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				walk(item)
			}
		}
	}
	walk(data)
	return results, dropped
}

// toMetrics validates one scraped renderer. Video ID, view count, and
// publish time are mandatory; comments and likes are simply absent on the
// search surface.
func (vr ytVideoRenderer) toMetrics(origin engine.Origin, now time.Time) (engine.VideoMetrics, bool) {
	if !videoIDRE.MatchString(vr.VideoID) {
		return engine.VideoMetrics{}, false
	}
	views, ok := parseViewCount(vr.ViewCountText.SimpleText)
	if !ok {
		return engine.VideoMetrics{}, false
	}
	age, ok := parseRelativeTime(vr.PublishedTimeText.SimpleText)
	if !ok {
		return engine.VideoMetrics{}, false
	}

	title := ""
	if len(vr.Title.Runs) > 0 {
		title = vr.Title.Runs[0].Text
	}
	channel := ""
	if len(vr.OwnerText.Runs) > 0 {
		channel = vr.OwnerText.Runs[0].Text
	}

	return engine.VideoMetrics{
		VideoID:         vr.VideoID,
		Title:           title,
		Channel:         channel,
		Views:           views,
		DurationSeconds: parseLengthText(vr.LengthText.SimpleText),
		PublishedAt:     now.Add(-age),
		Origin:          origin,
	}, true
}

// parseViewCount handles "1,234,567 views", "1.2M views", "No views".
func parseViewCount(s string) (int64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "no views") {
		return 0, true
	}
	s = strings.TrimSuffix(s, " views")
	s = strings.TrimSuffix(s, " view")

	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "b"):
		mult, s = 1_000_000_000, strings.TrimSuffix(s, "b")
	}

	s = strings.ReplaceAll(s, ",", "")
	if mult == 1 {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(f * float64(mult)), true
}

var relativeTimeRE = regexp.MustCompile(`(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)

// parseRelativeTime converts "3 hours ago" (or "Streamed 3 hours ago") to an
// age. Month and year use calendar-ish approximations; precision hardly
// matters at that distance since the window filter removes such videos.
func parseRelativeTime(s string) (time.Duration, bool) {
	m := relativeTimeRE.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0, false
	}
	var unit time.Duration
	switch m[2] {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	case "year":
		unit = 365 * 24 * time.Hour
	}
	return time.Duration(n) * unit, true
}

// parseLengthText converts "4:13" or "1:02:03" to seconds.
func parseLengthText(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
