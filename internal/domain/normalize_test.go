package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	got, err := NormalizeUsername("  alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", got)

	_, err = NormalizeUsername(" \t ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "username", verr.Field)
}

func TestParseDuration(t *testing.T) {
	ok := map[string]float64{"30": 30, " 12.5 ": 12.5, "1e2": 100, "0.01": 0.01, ".5": 0.5, "5.": 5, "+3": 3}
	for raw, want := range ok {
		got, err := ParseDuration(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got)
	}

	rejected := map[string]string{
		"":      "Duration is required",
		"abc":   "Duration must be a number",
		"NaN":   "Duration must be a number",
		"-Inf":  "Duration must be a number",
		"1_000": "Duration must be a number",
		"0x1p4": "Duration must be a number",
		"0x10":  "Duration must be a number",
		"1e400": "Duration must be a number",
		"3 min": "Duration must be a number",
		"0":     "Duration must be a positive number",
		"-3":    "Duration must be a positive number",
	}
	for raw, message := range rejected {
		_, err := ParseDuration(raw)
		require.EqualError(t, err, message, raw)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.Equal(t, today, ResolveDate("", now))
	require.Equal(t, today, ResolveDate("soon", now))
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ResolveDate("2024-01-01T23:59:00Z", now))
	require.Equal(t, time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC), ResolveDate("0001-01-02", now))
}

func TestResolveDateFirstDayFallsBackToToday(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)

	day := ResolveDate("0001-01-01", now)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), day)
	require.Equal(t, day, toLogEntry(Exercise{Duration: 1, Date: day}, now).Date)
}

func TestBuildLogFilter(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)

	f := BuildLogFilter(LogQuery{}, now)
	require.Nil(t, f.From)
	require.Nil(t, f.To)
	require.Nil(t, f.Limit)

	f = BuildLogFilter(LogQuery{From: "2024-01-01", To: "2024-02-01", Limit: "5"}, now)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.From)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *f.To)
	require.Equal(t, 5, *f.Limit)

	f = BuildLogFilter(LogQuery{From: "nope", To: "nope", Limit: "nope"}, now)
	require.Equal(t, Epoch, *f.From)
	require.Equal(t, now, *f.To)
	require.Nil(t, f.Limit)
}

func TestParseLimit(t *testing.T) {
	cases := map[string]struct {
		want int
		ok   bool
	}{
		"":     {ok: false},
		"10":   {want: 10, ok: true},
		"2.9":  {want: 2, ok: true},
		"0":    {want: 0, ok: true},
		"-1":   {ok: false},
		"NaN":  {ok: false},
		"Inf":  {ok: false},
		"ten":  {ok: false},
		"1e12": {want: math.MaxInt32, ok: true},
	}
	for raw, tc := range cases {
		got, ok := parseLimit(raw)
		require.Equal(t, tc.ok, ok, raw)
		if tc.ok {
			require.Equal(t, tc.want, got, raw)
		}
	}
}

func TestLogFilterMatchesInclusiveBounds(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	f := LogFilter{From: &from, To: &to}

	require.True(t, f.Matches(from))
	require.True(t, f.Matches(to))
	require.False(t, f.Matches(from.AddDate(0, 0, -1)))
	require.False(t, f.Matches(to.AddDate(0, 0, 1)))
}

func TestToLogEntryDefendsAgainstBadRecords(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)

	entry := toLogEntry(Exercise{Description: "run", Duration: math.NaN()}, now)
	require.Equal(t, 0.0, entry.Duration)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), entry.Date)

	entry = toLogEntry(Exercise{Description: "run", Duration: -4, Date: now}, now)
	require.Equal(t, 0.0, entry.Duration)
	require.Equal(t, now, entry.Date)
}
