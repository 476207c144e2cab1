// Package archive keeps the feed list, the briefing archive and the visit
// statistics as three independent JSON documents in a revisioned store.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsroom/internal/model"
	"newsroom/internal/storage"
)

// maxAttempts bounds the refetch-and-reapply loop on revision conflicts.
const maxAttempts = 3

var (
	ErrEmptyURL       = errors.New("feed URL is empty")
	ErrDuplicateFeed  = errors.New("feed is already registered")
	ErrNoSuchFeed     = errors.New("no feed at that position")
	ErrNoSuchBriefing = errors.New("no briefing for that date")
)

// Paths locates the three documents in the store.
type Paths struct {
	Feeds   string
	Archive string
	Stats   string
}

// DefaultPaths returns the standard document names under prefix (e.g. "data/").
func DefaultPaths(prefix string) Paths {
	return Paths{
		Feeds:   prefix + "feeds.json",
		Archive: prefix + "news_archive.json",
		Stats:   prefix + "stats.json",
	}
}

// Store wraps a storage.Store with typed read-modify-write operations.
// There is no cross-document transaction: each operation touches one document.
type Store struct {
	store storage.Store
	paths Paths
	log   *slog.Logger
}

// New creates an archive Store.
func New(store storage.Store, paths Paths, log *slog.Logger) *Store {
	return &Store{store: store, paths: paths, log: log}
}

// Load decodes the document at path into v and returns its revision.
// A missing document is not an error: v is left as supplied and the
// revision is empty. On any other failure the caller must discard v and
// fall back to its default.
func (s *Store) Load(ctx context.Context, path string, v any) (string, error) {
	doc, err := s.store.Get(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	if err := json.Unmarshal(doc.Content, v); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.Revision, nil
}

// Save writes v to path with message as the revision description. It reads
// the current revision and then updates, or creates the document when it
// does not exist yet. A concurrent writer between the two steps makes Save
// fail with storage.ErrConflict.
func (s *Store) Save(ctx context.Context, path string, v any, message string) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	var rev string
	doc, err := s.store.Get(ctx, path)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read revision of %s: %w", path, err)
	default:
		rev = doc.Revision
	}
	return s.write(ctx, path, data, message, rev)
}

func (s *Store) write(ctx context.Context, path string, data []byte, message, rev string) error {
	var err error
	if rev == "" {
		err = s.store.Create(ctx, path, data, message)
	} else {
		err = s.store.Update(ctx, path, data, message, rev)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.log.Debug("saved document", "path", path, "message", message, "bytes", len(data))
	return nil
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// load reads path into a fresh value built by def.
func load[T any](ctx context.Context, s *Store, path string, def func() T) (T, string, error) {
	v := def()
	rev, err := s.Load(ctx, path, &v)
	if err != nil {
		return def(), "", err
	}
	fillDefaults(&v)
	return v, rev, nil
}

// fillDefaults replaces the nil collections a JSON null leaves behind.
func fillDefaults(v any) {
	switch d := v.(type) {
	case *model.Archive:
		if *d == nil {
			*d = newArchive()
		}
	case *model.FeedList:
		if d.URLs == nil {
			d.URLs = []string{}
		}
	case *model.Stats:
		if d.Log == nil {
			d.Log = []string{}
		}
	}
}

// modify applies fn to the current document at path and saves the result.
// When another writer got in first, the document is re-read and fn applied
// again, up to maxAttempts. An error from fn aborts without writing.
func modify[T any](ctx context.Context, s *Store, path, message string, def func() T, fn func(*T) error) (T, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, rev, err := load(ctx, s, path, def)
		if err != nil {
			return def(), err
		}
		if err := fn(&v); err != nil {
			return def(), err
		}
		data, err := encode(v)
		if err != nil {
			return def(), fmt.Errorf("encode %s: %w", path, err)
		}

		err = s.write(ctx, path, data, message, rev)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return def(), err
		}
		s.log.Warn("document changed underneath, retrying", "path", path, "attempt", attempt)
		lastErr = err
	}
	return def(), fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}

func newFeedList() model.FeedList { return model.FeedList{URLs: []string{}} }
func newArchive() model.Archive   { return model.Archive{} }
func newStats() model.Stats       { return model.Stats{Log: []string{}} }

// Feeds returns the subscribed feed list. On error the empty list is
// returned alongside it.
func (s *Store) Feeds(ctx context.Context) (model.FeedList, error) {
	feeds, _, err := load(ctx, s, s.paths.Feeds, newFeedList)
	return feeds, err
}

// AddFeed appends url to the feed list. A URL that is already present
// yields ErrDuplicateFeed and nothing is written.
func (s *Store) AddFeed(ctx context.Context, url string) (model.FeedList, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return newFeedList(), ErrEmptyURL
	}
	return modify(ctx, s, s.paths.Feeds, "Add RSS feed", newFeedList, func(f *model.FeedList) error {
		if f.Contains(url) {
			return ErrDuplicateFeed
		}
		f.URLs = append(f.URLs, url)
		return nil
	})
}

// RemoveFeed deletes the feed at the 1-based position and returns its URL.
func (s *Store) RemoveFeed(ctx context.Context, position int) (string, error) {
	var removed string
	_, err := modify(ctx, s, s.paths.Feeds, "Remove RSS feed", newFeedList, func(f *model.FeedList) error {
		if position < 1 || position > len(f.URLs) {
			return ErrNoSuchFeed
		}
		removed = f.URLs[position-1]
		f.URLs = append(f.URLs[:position-1], f.URLs[position:]...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return removed, nil
}

// Archive returns every stored briefing keyed by date.
func (s *Store) Archive(ctx context.Context) (model.Archive, error) {
	a, _, err := load(ctx, s, s.paths.Archive, newArchive)
	return a, err
}

// Briefing returns the briefing stored for date.
func (s *Store) Briefing(ctx context.Context, date string) (model.Briefing, error) {
	a, err := s.Archive(ctx)
	if err != nil {
		return model.Briefing{}, err
	}
	b, ok := a[date]
	if !ok {
		return model.Briefing{}, ErrNoSuchBriefing
	}
	b.Date = date
	return b, nil
}

// PutBriefing stores b under b.Date, replacing any briefing for that day.
func (s *Store) PutBriefing(ctx context.Context, b model.Briefing) error {
	if !model.ValidDate(b.Date) {
		return fmt.Errorf("briefing date %q is not YYYY-MM-DD", b.Date)
	}
	_, err := modify(ctx, s, s.paths.Archive, "Add news for "+b.Date, newArchive, func(a *model.Archive) error {
		(*a)[b.Date] = b
		return nil
	})
	return err
}

// DeleteBriefing removes exactly the entry for date.
func (s *Store) DeleteBriefing(ctx context.Context, date string) error {
	_, err := modify(ctx, s, s.paths.Archive, "Delete news for "+date, newArchive, func(a *model.Archive) error {
		if _, ok := (*a)[date]; !ok {
			return ErrNoSuchBriefing
		}
		delete(*a, date)
		return nil
	})
	return err
}

// Stats returns the visit statistics.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	st, _, err := load(ctx, s, s.paths.Stats, newStats)
	return st, err
}

// RecordVisit counts one visit at t and persists counter and log together.
func (s *Store) RecordVisit(ctx context.Context, t time.Time) (model.Stats, error) {
	return modify(ctx, s, s.paths.Stats, "Update visitor stats", newStats, func(st *model.Stats) error {
		st.Record(t)
		return nil
	})
}
