// Package fetcher downloads RSS/Atom feeds and turns their entries into
// plain-text articles.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsroom/internal/model"
)

// MaxSummaryLen is the maximum number of characters kept from an entry summary.
const MaxSummaryLen = 500

// maxBodySize caps how much of a feed response is read.
const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client    HTTPClient
	userAgent string
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: "NewsroomBriefing/1.0",
	}
}

// Fetch downloads and parses the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// ToArticle converts a feed entry. The summary comes from the entry's
// description (RSS description, Atom summary) or else its content, rendered
// to visible text. now is used when the entry carries no published date.
func ToArticle(item *gofeed.Item, now time.Time) model.Article {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	published := item.Published
	if published == "" {
		published = now.Format(model.TimeLayout)
	}
	return model.Article{
		Title:     item.Title,
		Link:      item.Link,
		Summary:   Truncate(PlainText(summary), MaxSummaryLen),
		Published: published,
	}
}

// PlainText renders an HTML fragment as its visible text: tags are dropped,
// entities decoded and surrounding whitespace trimmed.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
