package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"newsroom/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	userAgent  string
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.userAgent = req.Header.Get("User-Agent")
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// routeTransport answers each URL with its own mockTransport and fails
// every other request.
type routeTransport struct {
	routes map[string]*mockTransport
	calls  []string
}

func (r *routeTransport) Do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	r.calls = append(r.calls, url)
	m, ok := r.routes[url]
	if !ok {
		return nil, errors.New("dial tcp: no such host")
	}
	return m.Do(req)
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "testdata/tech.xml")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantItems int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantTitle: "Tech Daily",
			wantItems: 3,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			feed, err := f.Fetch(context.Background(), "https://example.com/rss")

			if diff := cmp.Diff("NewsroomBriefing/1.0", tt.transport.userAgent); diff != "" {
				t.Errorf("user agent mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, feed.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantItems, len(feed.Items)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tags and entities", input: "<b>Big</b> news &amp; more", want: "Big news & more"},
		{name: "nested tags", input: "<div><p>One <a href=\"x\"><i>two</i></a></p></div>", want: "One two"},
		{name: "plain text", input: "  already clean  ", want: "already clean"},
		{name: "script dropped", input: "<p>text</p><script>alert(1)</script>", want: "text"},
		{name: "numeric entity", input: "caf&#233; &lt;tag&gt;", want: "café <tag>"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, PlainText(tt.input)); diff != "" {
				t.Errorf("PlainText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "short", input: "abc", n: 5, want: "abc"},
		{name: "exact", input: "abcde", n: 5, want: "abcde"},
		{name: "long", input: "abcdef", n: 5, want: "abcde"},
		{name: "multibyte counts characters", input: "ééééé€", n: 5, want: "ééééé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Truncate(tt.input, tt.n)); diff != "" {
				t.Errorf("Truncate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToArticle(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	long := "<p>" + strings.Repeat("word ", 200) + "</p>"

	tests := []struct {
		name string
		item *gofeed.Item
		want model.Article
	}{
		{
			name: "description preferred",
			item: &gofeed.Item{Title: "T", Link: "https://x", Description: "<b>desc</b>", Content: "content", Published: "Mon"},
			want: model.Article{Title: "T", Link: "https://x", Summary: "desc", Published: "Mon"},
		},
		{
			name: "content fallback and published fallback",
			item: &gofeed.Item{Title: "T", Link: "https://x", Content: "<em>body</em>"},
			want: model.Article{Title: "T", Link: "https://x", Summary: "body", Published: "2024-03-04 05:06:07"},
		},
		{
			name: "neither field",
			item: &gofeed.Item{Title: "T", Link: "https://x", Published: "Tue"},
			want: model.Article{Title: "T", Link: "https://x", Summary: "", Published: "Tue"},
		},
		{
			name: "long summary truncated",
			item: &gofeed.Item{Title: "T", Link: "https://x", Description: long, Published: "Wed"},
			want: model.Article{Title: "T", Link: "https://x", Summary: strings.Repeat("word ", 100), Published: "Wed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToArticle(tt.item, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("article mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	rt := &routeTransport{routes: map[string]*mockTransport{
		"https://tech.example.com/rss":    {body: loadFixture(t, "testdata/tech.xml"), statusCode: 200},
		"https://world.example.com/atom":  {body: loadFixture(t, "testdata/world.atom"), statusCode: 200},
		"https://broken.example.com/feed": {body: "<html>oops</html>", statusCode: 200},
	}}
	c := NewCollector(New(rt), discardLogger())
	c.now = func() time.Time { return time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC) }

	urls := []string{
		"https://tech.example.com/rss",
		"https://unreachable.example.com/rss",
		"https://broken.example.com/feed",
		"https://world.example.com/atom",
	}
	res := c.Collect(context.Background(), urls)

	want := []model.Article{
		{Title: "Chipmaker Announces New Fab", Link: "https://tech.example.com/fab", Summary: "Big news & more", Published: "Mon, 01 Jan 2024 09:00:00 +0000"},
		{Title: "Browser Update Ships", Link: "https://tech.example.com/browser", Summary: "The release notes list many fixes.", Published: "2024-01-03 08:00:00"},
		{Title: "Quiet Day", Link: "https://tech.example.com/quiet", Summary: "", Published: "Tue, 02 Jan 2024 10:30:00 +0000"},
		{Title: "Summit Ends With Agreement", Link: "https://world.example.com/summit", Summary: "Leaders signed the accord.", Published: "2024-01-02T11:00:00Z"},
	}
	if diff := cmp.Diff(want, res.Articles); diff != "" {
		t.Errorf("articles mismatch (-want +got):\n%s", diff)
	}

	var failed []string
	for _, f := range res.Failures {
		if f.Err == nil {
			t.Errorf("failure for %s has nil error", f.URL)
		}
		failed = append(failed, f.URL)
	}
	if diff := cmp.Diff([]string{"https://unreachable.example.com/rss", "https://broken.example.com/feed"}, failed); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(urls, rt.calls); diff != "" {
		t.Errorf("fetch order mismatch (-want +got):\n%s", diff)
	}

	for _, a := range res.Articles {
		if len([]rune(a.Summary)) > MaxSummaryLen || strings.ContainsAny(a.Summary, "<>") {
			t.Errorf("summary of %q is not clean plain text: %q", a.Title, a.Summary)
		}
	}
}

func TestCollectOneGoodOneBad(t *testing.T) {
	rt := &routeTransport{routes: map[string]*mockTransport{
		"https://tech.example.com/rss": {body: loadFixture(t, "testdata/tech.xml"), statusCode: 200},
	}}
	c := NewCollector(New(rt), discardLogger())

	res := c.Collect(context.Background(), []string{"https://tech.example.com/rss", "https://down.example.com/rss"})
	if diff := cmp.Diff(3, len(res.Articles)); diff != "" {
		t.Errorf("article count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, len(res.Failures)); diff != "" {
		t.Errorf("failure count mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectEmpty(t *testing.T) {
	c := NewCollector(New(&routeTransport{}), discardLogger())

	res := c.Collect(context.Background(), nil)
	if diff := cmp.Diff([]model.Article{}, res.Articles); diff != "" {
		t.Errorf("articles mismatch (-want +got):\n%s", diff)
	}
	if res.Failures != nil {
		t.Errorf("expected no failures, got %v", res.Failures)
	}
}

func TestCollectCancelled(t *testing.T) {
	rt := &routeTransport{}
	c := NewCollector(New(rt), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Collect(ctx, []string{"https://a.example.com", "https://b.example.com"})

	if len(rt.calls) != 0 {
		t.Errorf("expected no requests after cancel, got %v", rt.calls)
	}
	if diff := cmp.Diff(2, len(res.Failures)); diff != "" {
		t.Errorf("failure count mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(res.Failures[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.Failures[0].Err)
	}
}
