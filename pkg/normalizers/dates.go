package normalizers

import (
	"strings"
	"time"
)

// dateLayouts are the formats seen in roster and registry extracts,
// tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate parses a messy date string into a day-truncated time.
// Returns false when nothing parses; empty input never parses.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DateString renders a parsed date in the canonical yyyy-mm-dd form
// used for date comparisons.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
