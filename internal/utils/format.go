package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	nonWordRegex     = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// FormatISODuration converts an ISO-8601 period string as returned by the
// YouTube Data API ("PT1H2M3S") into a clock-style display string ("1:02:03")
// and the total number of seconds.
func FormatISODuration(iso string) (string, int, error) {
	matches := isoDurationRegex.FindStringSubmatch(iso)
	if matches == nil {
		return "0:00", 0, fmt.Errorf("unparseable ISO-8601 duration: %q", iso)
	}

	hours := atoiOrZero(matches[1])
	minutes := atoiOrZero(matches[2])
	seconds := atoiOrZero(matches[3])
	total := hours*3600 + minutes*60 + seconds

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds), total, nil
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds), total, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// FormatViewCount compacts a raw counter for display: 1234567 -> "1.2M",
// 4321 -> "4.3K", smaller values unchanged.
func FormatViewCount(count int64) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return strconv.FormatInt(count, 10)
	}
}

// SanitizeTitle reduces a user-supplied video title to something safe to put
// inside a Content-Disposition filename. Everything except ASCII word
// characters and whitespace is removed, so path separators, quotes and
// control characters cannot survive. Whitespace runs collapse to one space.
func SanitizeTitle(title string) string {
	s := nonWordRegex.ReplaceAllString(title, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "video"
	}
	return s
}
