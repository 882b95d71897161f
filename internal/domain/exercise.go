package domain

import (
	"math"
	"time"
)

// User is an account identified by a store-assigned ID and a username.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Exercise is a logged activity tied to a user. Date is a calendar day at 00:00 UTC.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    float64
	Date        time.Time
	CreatedAt   time.Time
}

// LogFilter bounds a read of a user's exercises. Nil fields are unbounded.
type LogFilter struct {
	From  *time.Time
	To    *time.Time
	Limit *int
}

// Matches reports whether the given calendar day satisfies the date bounds.
func (f LogFilter) Matches(date time.Time) bool {
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// LogEntry is the shape of a single exercise inside a log.
type LogEntry struct {
	Description string
	Duration    float64
	Date        time.Time
}

// ExerciseLog is the result of a log query.
type ExerciseLog struct {
	User    User
	Entries []LogEntry
}

// Count is the number of entries returned.
func (l ExerciseLog) Count() int {
	return len(l.Entries)
}

// toLogEntry shapes a stored exercise, substituting 0 for a non-finite or
// negative duration and now for a missing date.
func toLogEntry(e Exercise, now time.Time) LogEntry {
	duration := e.Duration
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		duration = 0
	}
	date := e.Date
	if date.IsZero() {
		date = CalendarDay(now)
	}
	return LogEntry{Description: e.Description, Duration: duration, Date: date}
}
