package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
)

const initialDataFixture = `{
  "contents": {
    "sectionListRenderer": {
      "contents": [
        {"itemSectionRenderer": {"contents": [
          {"videoRenderer": {
            "videoId": "aaaaaaaaaaa",
            "title": {"runs": [{"text": "Fresh upload"}]},
            "ownerText": {"runs": [{"text": "some channel"}]},
            "viewCountText": {"simpleText": "12,345 views"},
            "publishedTimeText": {"simpleText": "3 hours ago"},
            "lengthText": {"simpleText": "4:13"}
          }},
          {"videoRenderer": {
            "videoId": "bbbbbbbbbbb",
            "title": {"runs": [{"text": "Older upload"}]},
            "ownerText": {"runs": [{"text": "another channel"}]},
            "viewCountText": {"simpleText": "1.2M views"},
            "publishedTimeText": {"simpleText": "2 days ago"},
            "lengthText": {"simpleText": "1:02:03"}
          }},
          {"videoRenderer": {
            "videoId": "ccccccccccc",
            "title": {"runs": [{"text": "No view count"}]},
            "publishedTimeText": {"simpleText": "1 hour ago"}
          }}
        ]}}
      ]
    }
  }
}`

func scrapeTestPage(data string) string {
	return `<!DOCTYPE html><html><head><title>r</title></head><body>
<script nonce="x">var ytInitialData = ` + data + `;</script>
</body></html>`
}

func newScrapeTestServer(t *testing.T, watchPages map[string]string) *ScrapeSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/results":
			w.Write([]byte(scrapeTestPage(initialDataFixture)))
		case "/watch":
			page, ok := watchPages[r.URL.Query().Get("v")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(page))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{
		ScrapeBaseURL:  srv.URL,
		ScrapeMinDelay: time.Millisecond,
		HTTPClient:     srv.Client(),
	})
	return NewScrapeSource()
}

func TestScrapeFetchParsesInitialData(t *testing.T) {
	src := newScrapeTestServer(t, nil)

	videos, dropped, err := src.FetchWithStats(context.Background(), "golang", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The renderer without a view count must be dropped, not zeroed.
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(videos) != 2 {
		t.Fatalf("videos = %d, want 2: %+v", len(videos), videos)
	}

	a := videos[0]
	if a.VideoID != "aaaaaaaaaaa" || a.Views != 12345 || a.Channel != "some channel" {
		t.Errorf("unexpected first video: %+v", a)
	}
	if a.DurationSeconds != 4*60+13 {
		t.Errorf("duration = %d, want 253", a.DurationSeconds)
	}
	if a.HasComments || a.HasLikes {
		t.Error("scraped records carry no comment or like counts")
	}
	if a.Origin != engine.OriginScrape {
		t.Errorf("origin = %s", a.Origin)
	}
	age := time.Since(a.PublishedAt)
	if age < 2*time.Hour || age > 4*time.Hour {
		t.Errorf("estimated age = %v, want ~3h", age)
	}

	if videos[1].Views != 1_200_000 {
		t.Errorf("abbreviated count = %d, want 1200000", videos[1].Views)
	}
}

func TestScrapeWindowFilter(t *testing.T) {
	src := newScrapeTestServer(t, nil)

	videos, _, err := src.FetchWithStats(context.Background(), "golang", 1)
	if err != nil {
		t.Fatal(err)
	}
	// The 2-days-ago video falls outside a 1-day window.
	if len(videos) != 1 || videos[0].VideoID != "aaaaaaaaaaa" {
		t.Errorf("window filter failed: %+v", videos)
	}
}

func watchPageFixture(published time.Time) string {
	return `<html><head>
<meta itemprop="interactionCount" content="55555">
<meta itemprop="datePublished" content="` + published.Format(time.RFC3339) + `">
<meta itemprop="name" content="Exact title">
</head><body></body></html>`
}

func TestScrapeWatchPageRefinement(t *testing.T) {
	published := time.Now().UTC().Add(-5 * time.Hour).Truncate(time.Second)
	src := newScrapeTestServer(t, map[string]string{"aaaaaaaaaaa": watchPageFixture(published)})

	videos, _, err := src.FetchWithStats(context.Background(), "golang", 7)
	if err != nil {
		t.Fatal(err)
	}

	var refined, estimated *engine.VideoMetrics
	for i := range videos {
		switch videos[i].VideoID {
		case "aaaaaaaaaaa":
			refined = &videos[i]
		case "bbbbbbbbbbb":
			estimated = &videos[i]
		}
	}
	if refined == nil || estimated == nil {
		t.Fatalf("missing videos: %+v", videos)
	}
	if refined.Views != 55555 || refined.Title != "Exact title" {
		t.Errorf("watch page values should win: %+v", refined)
	}
	if !refined.PublishedAt.Equal(published) {
		t.Errorf("published = %v, want %v", refined.PublishedAt, published)
	}
	// A failed refinement keeps the search page estimate.
	if estimated.Views != 1_200_000 {
		t.Errorf("estimate should survive a 404 watch page: %+v", estimated)
	}
}

func TestScrapeWindowRecheckAfterRefinement(t *testing.T) {
	// The search page estimates "3 hours ago", but the exact watch-page
	// date puts the video well outside the window. The exact date decides.
	published := time.Now().UTC().Add(-30 * 24 * time.Hour)
	src := newScrapeTestServer(t, map[string]string{"aaaaaaaaaaa": watchPageFixture(published)})

	videos, _, err := src.FetchWithStats(context.Background(), "golang", 7)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range videos {
		if v.VideoID == "aaaaaaaaaaa" {
			t.Errorf("video outside the window survived refinement: %+v", v)
		}
	}
}

func TestScrapeMissingInitialData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body>captcha</body></html>"))
	}))
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{ScrapeBaseURL: srv.URL, ScrapeMinDelay: time.Millisecond, HTTPClient: srv.Client()})

	src := NewScrapeSource()
	_, _, err := src.FetchWithStats(context.Background(), "golang", 7)
	if !engine.IsKind(err, engine.KindParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"flat", `{"a":1}tail`, `{"a":1}`},
		{"nested", `{"a":{"b":{}}};rest`, `{"a":{"b":{}}}`},
		{"braces in strings", `{"a":"{not a brace}"}x`, `{"a":"{not a brace}"}`},
		{"escaped quote", `{"a":"say \"}\""}y`, `{"a":"say \"}\""}`},
		{"unbalanced", `{"a":1`, ""},
		{"not an object", `[1,2]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSON([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseViewCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12,345 views", 12345, true},
		{"1 view", 1, true},
		{"No views", 0, true},
		{"1.2M views", 1_200_000, true},
		{"870K views", 870_000, true},
		{"1B views", 1_000_000_000, true},
		{"", 0, false},
		{"views", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseViewCount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseViewCount(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRelativeTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"3 hours ago", 3 * time.Hour, true},
		{"1 hour ago", time.Hour, true},
		{"45 minutes ago", 45 * time.Minute, true},
		{"2 days ago", 48 * time.Hour, true},
		{"1 week ago", 7 * 24 * time.Hour, true},
		{"Streamed 5 hours ago", 5 * time.Hour, true},
		{"yesterday", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRelativeTime(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseRelativeTime(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseWatchMeta(t *testing.T) {
	page := `<html><head>
<meta itemprop="interactionCount" content="1234">
<meta itemprop="datePublished" content="2025-06-01">
</head><body></body></html>`

	meta, ok := parseWatchMeta(strings.NewReader(page))
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if !meta.HasViews || meta.Views != 1234 {
		t.Errorf("views = %+v", meta)
	}
	if !meta.Published.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %v", meta.Published)
	}

	if _, ok := parseWatchMeta(strings.NewReader("<html><body>nothing</body></html>")); ok {
		t.Error("page without meta tags must fail")
	}
}

func TestParseWatchMetaScopedToVideoObject(t *testing.T) {
	// The channel declares its own itemprop="name" before the video's
	// itemscope; only the VideoObject's metadata may be picked up.
	page := `<html><body>
<span itemscope itemtype="http://schema.org/Person">
  <meta itemprop="name" content="Some Channel">
</span>
<div itemscope itemtype="http://schema.org/VideoObject">
  <meta itemprop="name" content="The actual video">
  <meta itemprop="interactionCount" content="777">
  <meta itemprop="datePublished" content="2025-06-01">
</div>
</body></html>`

	meta, ok := parseWatchMeta(strings.NewReader(page))
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if meta.Title != "The actual video" {
		t.Errorf("title = %q, want the VideoObject name", meta.Title)
	}
	if meta.Views != 777 {
		t.Errorf("views = %d, want 777", meta.Views)
	}
}
