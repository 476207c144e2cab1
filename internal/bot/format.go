package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"newsroom/internal/archive"
	"newsroom/internal/briefing"
	"newsroom/internal/model"
	"newsroom/internal/newsroom"
)

const (
	// maxMessageLen is Telegram's text limit per message.
	maxMessageLen = 4096
	// articlePreviewLen is how much of a summary the article list shows.
	articlePreviewLen = 100
	// recentVisits is how many log entries /stats prints.
	recentVisits = 10
)

// FormatFeedList formats the feed URLs with their 1-based positions.
func FormatFeedList(urls []string) string {
	if len(urls) == 0 {
		return "No feeds yet. Use /addfeed <url> to add one."
	}
	var b strings.Builder
	b.WriteString("RSS feeds:\n")
	for i, u := range urls {
		fmt.Fprintf(&b, "\n%d. %s", i+1, u)
	}
	return b.String()
}

// FormatDates formats archived dates, newest first.
func FormatDates(dates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Archived briefings (%d):\n", len(dates))
	for _, d := range dates {
		fmt.Fprintf(&b, "\n• %s", d)
	}
	return b.String()
}

// FormatBriefing formats a briefing for reading.
func FormatBriefing(brief model.Briefing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Briefing for %s\n\n", brief.Date)
	b.WriteString(strings.TrimSpace(brief.Content))
	fmt.Fprintf(&b, "\n\n%d source article(s). /articles %s", len(brief.RawData), brief.Date)
	return b.String()
}

// FormatArticles formats the raw articles of a briefing with short previews.
func FormatArticles(date string, articles []model.Article) string {
	if len(articles) == 0 {
		return fmt.Sprintf("No articles stored for %s.", date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Original articles for %s (%d):\n", date, len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, a.Title)
		if a.Published != "" {
			fmt.Fprintf(&b, "   %s\n", a.Published)
		}
		if a.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", preview(a.Summary, articlePreviewLen))
		}
		if a.Link != "" {
			fmt.Fprintf(&b, "   %s\n", a.Link)
		}
	}
	return b.String()
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// FormatReport summarizes a generation run.
func FormatReport(r *newsroom.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Briefing for %s saved from %d article(s).", r.Briefing.Date, len(r.Briefing.RawData))
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "\n\n%d feed(s) failed:", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "\n- %s: %v", f.URL, f.Err)
		}
	}
	return b.String()
}

// FormatStats formats the visit counter and the last n log entries.
func FormatStats(s model.Stats, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total visits: %d\n", s.TotalVisits)
	if len(s.Log) == 0 {
		b.WriteString("\nNo visits logged yet.")
		return b.String()
	}
	recent := s.Log
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	fmt.Fprintf(&b, "\nLast %d visit(s):", len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n%s", recent[i])
	}
	return b.String()
}

// FormatModels formats the available model names.
func FormatModels(models []string) string {
	if len(models) == 0 {
		return "The provider reported no models."
	}
	return "Available models:\n\n" + strings.Join(models, "\n")
}

// describeError turns service errors into a message for the operator.
func describeError(err error) string {
	var genErr *briefing.GenerationError
	switch {
	case errors.As(err, &genErr):
		return genErr.Error()
	case errors.Is(err, archive.ErrDuplicateFeed):
		return "That feed is already registered."
	case errors.Is(err, archive.ErrEmptyURL):
		return "Feed URL is empty."
	case errors.Is(err, archive.ErrNoSuchFeed):
		return "No feed with that number. See /feeds."
	case errors.Is(err, archive.ErrNoSuchBriefing):
		return "No briefing for that date. See /dates."
	case errors.Is(err, newsroom.ErrEmptyArchive):
		return "No briefings archived yet."
	case errors.Is(err, newsroom.ErrInvalidDate):
		return "Invalid date, use YYYY-MM-DD."
	case errors.Is(err, newsroom.ErrNoFeeds):
		return "No feeds registered. Add one with /addfeed <url>."
	case errors.Is(err, newsroom.ErrNoArticles):
		return "No articles were collected. Check the feeds and try again."
	case errors.Is(err, briefing.ErrListingUnsupported):
		return "This provider cannot list its models."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// SplitMessage cuts text into chunks of at most limit characters, breaking
// after a newline where possible. Joining the chunks yields text again.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}
