package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"newsroom/internal/model"
)

// ParsePosition extracts a 1-based feed number from a command argument string.
func ParsePosition(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("feed number is required")
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid feed number %q", s)
	}
	return n, nil
}

// ParseDateArg extracts a YYYY-MM-DD date from a command argument string.
func ParseDateArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("date is required")
	}
	date := strings.Fields(s)[0]
	if !model.ValidDate(date) {
		return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
	}
	return date, nil
}

// briefingFor resolves /news arguments: no argument means the latest briefing.
func (b *Bot) briefingFor(ctx context.Context, args string) (model.Briefing, error) {
	if strings.TrimSpace(args) == "" {
		return b.svc.LatestBriefing(ctx)
	}
	date := strings.Fields(args)[0]
	return b.svc.ViewBriefing(ctx, date)
}
