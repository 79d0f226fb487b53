package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"golang.org/x/net/html"
)

// watchMeta holds the structured-data fields embedded in a watch page.
type watchMeta struct {
	Views     int64
	HasViews  bool
	Published time.Time
	Title     string
}

// fetchWatchMeta pulls one watch page and parses its itemprop meta tags.
// These carry exact values where the search surface only shows rounded text.
func (s *ScrapeSource) fetchWatchMeta(ctx context.Context, videoID string) (watchMeta, error) {
	engine.IncrScrapeDetail()
	if err := s.limiter.Wait(ctx); err != nil {
		return watchMeta{}, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, engine.Cfg.ScrapeBaseURL+"/watch?v="+videoID, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range engine.ChromeHeaders() {
			req.Header.Set(k, v)
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return watchMeta{}, fmt.Errorf("watch page %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return watchMeta{}, fmt.Errorf("watch page %s: status %d", videoID, resp.StatusCode)
	}

	meta, ok := parseWatchMeta(io.LimitReader(resp.Body, maxScrapeBody))
	if !ok {
		return watchMeta{}, fmt.Errorf("watch page %s: no usable meta tags", videoID)
	}
	return meta, nil
}

// parseWatchMeta walks the HTML tree for <meta itemprop=...> tags. When the
// page declares a VideoObject itemscope the walk is confined to it, so a
// channel's own itemprop="name" elsewhere in the document cannot shadow the
// video title. Pages without the scope fall back to a whole-document scan.
func parseWatchMeta(r io.Reader) (watchMeta, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return watchMeta{}, false
	}
	if scope := findVideoScope(doc); scope != nil {
		doc = scope
	}

	var meta watchMeta
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var itemprop, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "itemprop":
					itemprop = a.Val
				case "content":
					content = a.Val
				}
			}
			switch itemprop {
			case "interactionCount":
				if v, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64); err == nil && v >= 0 {
					meta.Views = v
					meta.HasViews = true
				}
			case "datePublished":
				if t, ok := parseMetaDate(content); ok {
					meta.Published = t
				}
			case "name":
				if meta.Title == "" {
					meta.Title = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	if !meta.HasViews && meta.Published.IsZero() {
		return watchMeta{}, false
	}
	return meta, true
}

// findVideoScope returns the first element declaring a VideoObject itemtype.
func findVideoScope(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "itemtype" && strings.Contains(a.Val, "VideoObject") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findVideoScope(c); found != nil {
			return found
		}
	}
	return nil
}

func parseMetaDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
