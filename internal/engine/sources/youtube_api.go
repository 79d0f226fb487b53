package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
)

// APISource is the authenticated YouTube Data API v3 adapter. A search call
// returns video IDs only, so a second batch details call retrieves the
// statistics the scoring engine needs.
type APISource struct {
	key         string
	fallbackKey string
}

// NewAPISource returns nil when no key is configured, which disables the
// authenticated path entirely.
func NewAPISource(key, fallbackKey string) *APISource {
	if key == "" {
		return nil
	}
	return &APISource{key: key, fallbackKey: fallbackKey}
}

func (s *APISource) Name() string { return string(engine.OriginAPI) }

// Fetch searches for videos published in the window and resolves their
// statistics. The secondary key, when configured, is tried after a quota or
// auth rejection of the primary before the caller degrades to scraping.
func (s *APISource) Fetch(ctx context.Context, term string, windowDays int) ([]engine.VideoMetrics, int64, error) {
	keys := []string{s.key}
	if s.fallbackKey != "" {
		keys = append(keys, s.fallbackKey)
	}

	var total int64
	var lastErr error
	for _, key := range keys {
		videos, cost, err := s.fetchWithKey(ctx, term, windowDays, key)
		total += cost
		if err == nil {
			return videos, total, nil
		}
		lastErr = err
		switch engine.KindOf(err) {
		case engine.KindQuota, engine.KindAuth:
			slog.Debug("youtube data API key rejected, trying fallback key", slog.Any("error", err))
			continue
		default:
			return nil, total, err
		}
	}
	return nil, total, lastErr
}

func (s *APISource) fetchWithKey(ctx context.Context, term string, windowDays int, key string) ([]engine.VideoMetrics, int64, error) {
	ids, err := s.search(ctx, term, windowDays, key)
	if err != nil {
		return nil, 0, err
	}
	cost := engine.Cfg.QuotaSearchCost
	if len(ids) == 0 {
		return nil, cost, nil // empty window is a success, not an error
	}

	videos, err := s.details(ctx, ids, key)
	if err != nil {
		return nil, cost, err
	}
	cost += int64(len(ids)) * engine.Cfg.QuotaDetailCost
	return videos, cost, nil
}

// search issues the publishedAfter-scoped search call and returns video IDs.
func (s *APISource) search(ctx context.Context, term string, windowDays int, key string) ([]string, error) {
	engine.IncrAPISearch()

	publishedAfter := time.Now().UTC().AddDate(0, 0, -windowDays).Format(time.RFC3339)
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", term)
	params.Set("type", "video")
	params.Set("publishedAfter", publishedAfter)
	params.Set("maxResults", strconv.Itoa(engine.Cfg.MaxPageSize))
	params.Set("order", "viewCount")
	params.Set("key", key)

	body, err := s.get(ctx, engine.Cfg.APIBaseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp ytSearchResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, engine.Errf(engine.KindParse, engine.StageAcquisition, "decode youtube search response: %v", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// details issues one batch statistics call for up to MaxPageSize IDs.
func (s *APISource) details(ctx context.Context, ids []string, key string) ([]engine.VideoMetrics, error) {
	engine.IncrAPIDetail()

	params := url.Values{}
	params.Set("part", "statistics,snippet,contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", key)

	body, err := s.get(ctx, engine.Cfg.APIBaseURL+"/videos?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp ytVideosResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, engine.Errf(engine.KindParse, engine.StageAcquisition, "decode youtube videos response: %v", err)
	}

	videos := make([]engine.VideoMetrics, 0, len(resp.Items))
	for _, item := range resp.Items {
		v, ok := item.toMetrics()
		if !ok {
			engine.IncrDroppedRecords()
			slog.Debug("dropping unparseable API record", slog.String("video_id", item.ID))
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// get performs a retried GET and classifies non-200 responses.
func (s *APISource) get(ctx context.Context, apiURL string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, engine.WrapErr(engine.KindTransient, engine.StageAcquisition, fmt.Errorf("youtube data API: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, engine.Errf(engine.KindTransient, engine.StageAcquisition, "read youtube data API response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// --- YouTube Data API v3 types ---

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytVideosResp struct {
	Items []ytVideoItem `json:"items"`
}

type ytVideoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		CommentCount string `json:"commentCount"` // omitted when comments are disabled
		LikeCount    string `json:"likeCount"`    // omitted when ratings are hidden
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"` // ISO-8601, e.g. PT4M13S
	} `json:"contentDetails"`
}

// toMetrics validates one API record against the VideoMetrics invariants.
// A record that cannot be parsed is dropped, never defaulted to zero: a
// zero-metric ghost would bias the score.
func (it ytVideoItem) toMetrics() (engine.VideoMetrics, bool) {
	if it.ID == "" {
		return engine.VideoMetrics{}, false
	}
	publishedAt, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt)
	if err != nil {
		return engine.VideoMetrics{}, false
	}
	views, err := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
	if err != nil || views < 0 {
		return engine.VideoMetrics{}, false
	}

	v := engine.VideoMetrics{
		VideoID:         it.ID,
		Title:           it.Snippet.Title,
		Channel:         it.Snippet.ChannelTitle,
		Views:           views,
		DurationSeconds: parseISODuration(it.ContentDetails.Duration),
		PublishedAt:     publishedAt.UTC(),
		Origin:          engine.OriginAPI,
	}
	if it.Statistics.CommentCount != "" {
		if c, err := strconv.ParseInt(it.Statistics.CommentCount, 10, 64); err == nil && c >= 0 {
			v.Comments = c
			v.HasComments = true
		}
	}
	if it.Statistics.LikeCount != "" {
		if l, err := strconv.ParseInt(it.Statistics.LikeCount, 10, 64); err == nil && l >= 0 {
			v.Likes = l
			v.HasLikes = true
		}
	}
	return v, true
}

// --- error classification ---

type ytErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// quotaReasons are the Data API rejection reasons that mean "budget spent",
// as opposed to broken credentials.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classifyAPIError distinguishes QuotaExceeded from AuthError so the
// selector can choose fallback vs. hard failure.
func classifyAPIError(status int, body []byte) error {
	var er ytErrorResp
	if err := json.Unmarshal(body, &er); err != nil || er.Error.Code == 0 {
		return engine.Errf(engine.KindParse, engine.StageAcquisition,
			"youtube data API %d: unrecognized error body: %s", status, engine.Truncate(string(body), 256))
	}

	for _, e := range er.Error.Errors {
		if quotaReasons[e.Reason] {
			return engine.Errf(engine.KindQuota, engine.StageAcquisition,
				"youtube data API quota: %s", er.Error.Message)
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
		return engine.Errf(engine.KindAuth, engine.StageAcquisition,
			"youtube data API %d: %s", status, er.Error.Message)
	default:
		return engine.Errf(engine.KindTransient, engine.StageAcquisition,
			"youtube data API %d: %s", status, er.Error.Message)
	}
}

// parseISODuration converts an ISO-8601 duration (PT1H2M3S, P1DT2H) to
// seconds. Unparseable durations yield 0; duration is advisory metadata and
// never a reason to drop a record.
func parseISODuration(s string) int {
	if !strings.HasPrefix(s, "P") {
		return 0
	}
	s = s[1:]
	var days, hours, mins, secs int
	inTime := false
	num := 0
	hasNum := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			hasNum = true
		case r == 'T':
			inTime = true
		case r == 'D' && !inTime:
			days = num
			num, hasNum = 0, false
		case r == 'H' && inTime:
			hours = num
			num, hasNum = 0, false
		case r == 'M' && inTime:
			mins = num
			num, hasNum = 0, false
		case r == 'S' && inTime:
			secs = num
			num, hasNum = 0, false
		default:
			return 0
		}
	}
	if hasNum {
		return 0
	}
	return days*86400 + hours*3600 + mins*60 + secs
}
