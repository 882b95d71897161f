package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NewExerciseInput carries the raw fields of an add-exercise request.
type NewExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// LogQuery carries the raw query parameters of a log request.
type LogQuery struct {
	From  string
	To    string
	Limit string
}

// decimalNumber is the accepted numeric grammar. It excludes Go literal forms
// such as hex, underscores, Inf and NaN.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// NormalizeUsername trims the username and rejects blanks.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", invalid("username", "Username is required")
	}
	return username, nil
}

// ParseDuration accepts any finite number greater than zero.
func ParseDuration(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, invalid("duration", "Duration is required")
	}
	if !decimalNumber.MatchString(value) {
		return 0, invalid("duration", "Duration must be a number")
	}
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(duration, 0) {
		return 0, invalid("duration", "Duration must be a number")
	}
	if duration <= 0 {
		return 0, invalid("duration", "Duration must be a positive number")
	}
	return duration, nil
}

// ResolveDate parses an exercise date, falling back to today when the
// value is absent or unparseable. Days at or before 0001-01-01 also fall
// back, since the zero time marks a missing date on read.
func ResolveDate(raw string, now time.Time) time.Time {
	if parsed, ok := ParseDate(raw); ok {
		if day := CalendarDay(parsed); day.After(time.Time{}) {
			return day
		}
	}
	return CalendarDay(now)
}

// BuildLogFilter turns raw query parameters into a LogFilter. Malformed
// bounds degrade to the epoch and now; a malformed limit is dropped.
func BuildLogFilter(q LogQuery, now time.Time) LogFilter {
	var filter LogFilter

	if from := strings.TrimSpace(q.From); from != "" {
		bound, ok := ParseDate(from)
		if !ok {
			bound = Epoch
		}
		filter.From = &bound
	}

	if to := strings.TrimSpace(q.To); to != "" {
		bound, ok := ParseDate(to)
		if !ok {
			bound = now
		}
		filter.To = &bound
	}

	if limit, ok := parseLimit(q.Limit); ok {
		filter.Limit = &limit
	}

	return filter
}

func parseLimit(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || !decimalNumber.MatchString(value) {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(parsed, 0) || parsed < 0 {
		return 0, false
	}
	if parsed > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(parsed), true
}
