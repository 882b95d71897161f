package domain

import (
	"strings"
	"time"
)

// DisplayLayout renders dates as "Mon Jan 01 2024".
const DisplayLayout = "Mon Jan 02 2006"

// Epoch is the lower bound substituted for an unparseable "from" filter.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	DisplayLayout,
	"Mon Jan 2 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01",
	"2006",
}

// ParseDate parses user supplied dates. Values without a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalendarDay drops the time of day, keeping the day as written.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a stored date for responses.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}
