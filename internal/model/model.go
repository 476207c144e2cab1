// Package model defines the domain types used across the application.
package model

import (
	"sort"
	"time"
)

// TimeLayout is the layout used for created_at, visit log entries and the
// published fallback.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the layout of archive keys.
const DateLayout = "2006-01-02"

// FeedList is the persisted list of subscribed feed URLs.
type FeedList struct {
	URLs []string `json:"urls"`
}

// Contains reports whether url is already subscribed (exact, case-sensitive).
func (f FeedList) Contains(url string) bool {
	for _, u := range f.URLs {
		if u == url {
			return true
		}
	}
	return false
}

// Article is a single feed entry as collected for a briefing.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
}

// Briefing is one day's generated digest plus the articles it was built from.
type Briefing struct {
	Date      string    `json:"date,omitempty"`
	Content   string    `json:"content"`
	RawData   []Article `json:"raw_data"`
	CreatedAt string    `json:"created_at"`
}

// Archive maps a YYYY-MM-DD date to its briefing.
type Archive map[string]Briefing

// Dates returns the archive keys, newest first.
func (a Archive) Dates() []string {
	dates := make([]string, 0, len(a))
	for d := range a {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Stats holds visit statistics.
type Stats struct {
	TotalVisits int      `json:"total_visits"`
	Log         []string `json:"log"`
}

// Record counts one visit at t. The counter and the log always move together.
func (s *Stats) Record(t time.Time) {
	s.TotalVisits++
	s.Log = append(s.Log, t.Format(TimeLayout))
}

// Today returns the archive key for t.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a well-formed archive key.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
