package fetcher

import (
	"context"
	"log/slog"
	"time"

	"newsroom/internal/model"
)

// Failure records a feed that could not be fetched or parsed.
type Failure struct {
	URL string
	Err error
}

// Result holds the outcome of one collection run.
type Result struct {
	Articles []model.Article
	Failures []Failure
}

// Collector gathers articles from a list of feeds.
type Collector struct {
	fetcher *Fetcher
	log     *slog.Logger
	now     func() time.Time
}

// NewCollector creates a Collector on top of f.
func NewCollector(f *Fetcher, log *slog.Logger) *Collector {
	return &Collector{fetcher: f, log: log, now: time.Now}
}

// Collect fetches urls one after another and returns their entries in feed
// order, then entry order. A failing feed is logged and recorded in
// Result.Failures; the remaining feeds are still collected.
func (c *Collector) Collect(ctx context.Context, urls []string) Result {
	res := Result{Articles: []model.Article{}}
	for _, url := range urls {
		if ctx.Err() != nil {
			res.Failures = append(res.Failures, Failure{URL: url, Err: ctx.Err()})
			continue
		}

		feed, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			c.log.Warn("failed to fetch feed", "url", url, "error", err)
			res.Failures = append(res.Failures, Failure{URL: url, Err: err})
			continue
		}

		now := c.now()
		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			res.Articles = append(res.Articles, ToArticle(item, now))
		}
		c.log.Debug("collected feed", "url", url, "entries", len(feed.Items))
	}
	return res
}
