package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"newsroom/internal/archive"
	"newsroom/internal/model"
	"newsroom/internal/newsroom"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "simple", args: "3", want: 3},
		{name: "surrounding spaces", args: "  2  ", want: 2},
		{name: "extra words ignored", args: "1 please", want: 1},
		{name: "empty", args: "", wantErr: true},
		{name: "zero", args: "0", wantErr: true},
		{name: "negative", args: "-1", wantErr: true},
		{name: "not a number", args: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePosition(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePosition() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDateArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "valid", args: "2024-01-31", want: "2024-01-31"},
		{name: "trailing words", args: " 2024-01-31 now", want: "2024-01-31"},
		{name: "empty", args: "", wantErr: true},
		{name: "wrong layout", args: "31.01.2024", wantErr: true},
		{name: "impossible day", args: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDateArg() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitMessage(t *testing.T) {
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, fmt.Sprintf("* item %03d [Read more](https://example.com/%d)", i, i))
	}
	long := strings.Join(lines, "\n")

	tests := []struct {
		name       string
		text       string
		limit      int
		wantChunks int
	}{
		{name: "short text", text: "hello", limit: 10, wantChunks: 1},
		{name: "exact limit", text: "0123456789", limit: 10, wantChunks: 1},
		{name: "breaks on lines", text: "aaaa\nbbbb\ncccc", limit: 10, wantChunks: 2},
		{name: "hard split long line", text: strings.Repeat("x", 25), limit: 10, wantChunks: 3},
		{name: "multibyte", text: strings.Repeat("é", 12), limit: 5, wantChunks: 3},
		{name: "briefing", text: long, limit: maxMessageLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitMessage(tt.text, tt.limit)
			if tt.wantChunks > 0 {
				if diff := cmp.Diff(tt.wantChunks, len(chunks)); diff != "" {
					t.Errorf("chunk count mismatch (-want +got):\n%s", diff)
				}
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tt.limit {
					t.Errorf("chunk %d has %d characters, limit %d", i, n, tt.limit)
				}
			}
			if diff := cmp.Diff(tt.text, strings.Join(chunks, "")); diff != "" {
				t.Errorf("chunks do not reassemble (-want +got):\n%s", diff)
			}
		})
	}

	chunks := SplitMessage("aaaa\nbbbb\ncccc", 10)
	if diff := cmp.Diff([]string{"aaaa\nbbbb\n", "cccc"}, chunks); diff != "" {
		t.Errorf("line break split mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatFeedList(t *testing.T) {
	requireContains(t, FormatFeedList(nil), "/addfeed")

	got := FormatFeedList([]string{"https://a.com", "https://b.com"})
	want := "RSS feeds:\n\n1. https://a.com\n2. https://b.com"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatFeedList() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatStats(t *testing.T) {
	stats := model.Stats{TotalVisits: 4, Log: []string{"t1", "t2", "t3", "t4"}}

	got := FormatStats(stats, 2)
	want := "Total visits: 4\n\nLast 2 visit(s):\nt4\nt3"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatBriefing(t *testing.T) {
	got := FormatBriefing(model.Briefing{
		Date:    "2024-01-01",
		Content: "\n## Headline\nText\n",
		RawData: []model.Article{{Title: "A"}, {Title: "B"}},
	})
	want := "📅 Briefing for 2024-01-01\n\n## Headline\nText\n\n2 source article(s). /articles 2024-01-01"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatBriefing() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: archive.ErrDuplicateFeed, want: "already registered"},
		{err: fmt.Errorf("wrapped: %w", archive.ErrNoSuchFeed), want: "No feed with that number"},
		{err: newsroom.ErrNoFeeds, want: "/addfeed"},
		{err: newsroom.ErrInvalidDate, want: "YYYY-MM-DD"},
		{err: errors.New("network down"), want: "Error: network down"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			requireContains(t, describeError(tt.err), tt.want)
		})
	}
}
