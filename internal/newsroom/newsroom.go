// Package newsroom implements the operator operations: feed management,
// briefing generation and archive browsing.
package newsroom

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newsroom/internal/archive"
	"newsroom/internal/briefing"
	"newsroom/internal/fetcher"
	"newsroom/internal/model"
)

var (
	ErrNoFeeds      = errors.New("no feeds registered")
	ErrNoArticles   = briefing.ErrNoArticles
	ErrInvalidDate  = errors.New("date must be YYYY-MM-DD")
	ErrUnauthorized = errors.New("wrong password")
	ErrEmptyArchive = errors.New("no briefings archived yet")
)

// Collector gathers articles from feeds.
type Collector interface {
	Collect(ctx context.Context, urls []string) fetcher.Result
}

// Summarizer turns articles into a briefing.
type Summarizer interface {
	Summarize(ctx context.Context, articles []model.Article) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Report describes a finished generation run.
type Report struct {
	RunID    string
	Briefing model.Briefing
	Failures []fetcher.Failure
}

// Service wires the archive, the collector and the summarizer together.
type Service struct {
	store      *archive.Store
	collector  Collector
	summarizer Summarizer
	password   string
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Service. adminPassword gates the administrative operations.
func New(store *archive.Store, collector Collector, summarizer Summarizer, adminPassword string, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		collector:  collector,
		summarizer: summarizer,
		password:   adminPassword,
		log:        log,
		now:        time.Now,
	}
}

// Authorize compares password with the admin password. An unset admin
// password rejects everything.
func (s *Service) Authorize(password string) error {
	if s.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// ListFeeds returns the registered feeds. On a load failure the empty list
// is returned together with the error.
func (s *Service) ListFeeds(ctx context.Context) (model.FeedList, error) {
	return s.store.Feeds(ctx)
}

// AddFeed registers url.
func (s *Service) AddFeed(ctx context.Context, url string) (model.FeedList, error) {
	feeds, err := s.store.AddFeed(ctx, url)
	if err != nil {
		return feeds, err
	}
	s.log.Info("feed added", "url", url, "total", len(feeds.URLs))
	return feeds, nil
}

// RemoveFeed removes the feed at the 1-based position and returns its URL.
func (s *Service) RemoveFeed(ctx context.Context, position int) (string, error) {
	url, err := s.store.RemoveFeed(ctx, position)
	if err != nil {
		return "", err
	}
	s.log.Info("feed removed", "url", url, "position", position)
	return url, nil
}

// Generate collects every feed, summarizes the articles and stores the
// briefing under today's date, replacing any earlier one. The stored raw
// data holds every collected article even when the summary saw fewer.
func (s *Service) Generate(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)

	feeds, err := s.store.Feeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	if len(feeds.URLs) == 0 {
		return nil, ErrNoFeeds
	}

	log.Info("collecting feeds", "feeds", len(feeds.URLs))
	res := s.collector.Collect(ctx, feeds.URLs)
	if len(res.Articles) == 0 {
		log.Warn("no articles collected", "failures", len(res.Failures))
		return nil, ErrNoArticles
	}

	log.Info("summarizing", "articles", len(res.Articles), "failed_feeds", len(res.Failures))
	content, err := s.summarizer.Summarize(ctx, res.Articles)
	if err != nil {
		log.Error("summarize failed", "error", err)
		return nil, err
	}

	now := s.now()
	b := model.Briefing{
		Date:      model.Today(now),
		Content:   content,
		RawData:   res.Articles,
		CreatedAt: now.Format(model.TimeLayout),
	}
	if err := s.store.PutBriefing(ctx, b); err != nil {
		return nil, fmt.Errorf("store briefing: %w", err)
	}
	log.Info("briefing stored", "date", b.Date)

	return &Report{RunID: runID, Briefing: b, Failures: res.Failures}, nil
}

// ListDates returns the archived dates, newest first.
func (s *Service) ListDates(ctx context.Context) ([]string, error) {
	a, err := s.store.Archive(ctx)
	if err != nil {
		return []string{}, err
	}
	return a.Dates(), nil
}

// ViewBriefing returns the briefing archived for date.
func (s *Service) ViewBriefing(ctx context.Context, date string) (model.Briefing, error) {
	if !model.ValidDate(date) {
		return model.Briefing{}, ErrInvalidDate
	}
	return s.store.Briefing(ctx, date)
}

// LatestBriefing returns the most recent archived briefing.
func (s *Service) LatestBriefing(ctx context.Context) (model.Briefing, error) {
	dates, err := s.ListDates(ctx)
	if err != nil {
		return model.Briefing{}, err
	}
	if len(dates) == 0 {
		return model.Briefing{}, ErrEmptyArchive
	}
	return s.store.Briefing(ctx, dates[0])
}

// DeleteBriefing removes the briefing archived for date.
func (s *Service) DeleteBriefing(ctx context.Context, date string) error {
	if !model.ValidDate(date) {
		return ErrInvalidDate
	}
	if err := s.store.DeleteBriefing(ctx, date); err != nil {
		return err
	}
	s.log.Info("briefing deleted", "date", date)
	return nil
}

// Stats returns the visit statistics.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats(ctx)
}

// RecordVisit counts one public view.
func (s *Service) RecordVisit(ctx context.Context) (model.Stats, error) {
	return s.store.RecordVisit(ctx, s.now())
}

// Models lists the generator's available models.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	return s.summarizer.ListModels(ctx)
}
