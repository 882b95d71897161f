// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Repository captures persistence operations. GetUser returns (nil, nil)
// when the user does not exist. Create methods assign the record ID when empty.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateExercise(ctx context.Context, user User, exercise *Exercise) error
	FindExercises(ctx context.Context, userID string, filter LogFilter) ([]Exercise, error)
}

// Recorder observes domain outcomes. A nil Recorder is allowed.
type Recorder interface {
	UserCreated()
	ExerciseLogged(date time.Time)
	ValidationFailed(field string)
	LogServed(entries int)
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// Service orchestrates user and exercise workflows.
type Service struct {
	repo     Repository
	now      func() time.Time
	recorder Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a new user under the trimmed username.
func (s *Service) CreateUser(ctx context.Context, rawUsername string) (*User, error) {
	username, err := NormalizeUsername(rawUsername)
	if err != nil {
		return nil, s.rejected(err)
	}

	user := User{Username: username, CreatedAt: s.now()}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, storeErr("create user", err)
	}
	if s.recorder != nil {
		s.recorder.UserCreated()
	}
	return &user, nil
}

// ListUsers returns every user in store order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// AddExercise validates and records an exercise for an existing user.
func (s *Service) AddExercise(ctx context.Context, input NewExerciseInput) (*User, *Exercise, error) {
	now := s.now()

	description, duration, err := s.validateExercise(input)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.lookupUser(ctx, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	exercise := Exercise{
		UserID:      user.ID,
		Description: description,
		Duration:    duration,
		Date:        ResolveDate(input.Date, now),
		CreatedAt:   now,
	}
	if err := s.repo.CreateExercise(ctx, *user, &exercise); err != nil {
		return nil, nil, storeErr("create exercise", err)
	}
	if s.recorder != nil {
		s.recorder.ExerciseLogged(exercise.Date)
	}
	return user, &exercise, nil
}

// GetLog returns the user's exercises filtered by the query. A limit of zero
// yields an empty log without reading the exercise collection.
func (s *Service) GetLog(ctx context.Context, userID string, q LogQuery) (*ExerciseLog, error) {
	now := s.now()

	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := BuildLogFilter(q, now)
	result := &ExerciseLog{User: *user, Entries: []LogEntry{}}

	if filter.Limit != nil && *filter.Limit == 0 {
		s.served(0)
		return result, nil
	}

	exercises, err := s.repo.FindExercises(ctx, user.ID, filter)
	if err != nil {
		return nil, storeErr("find exercises", err)
	}
	if filter.Limit != nil && len(exercises) > *filter.Limit {
		exercises = exercises[:*filter.Limit]
	}

	for _, e := range exercises {
		result.Entries = append(result.Entries, toLogEntry(e, now))
	}
	s.served(len(result.Entries))
	return result, nil
}

func (s *Service) validateExercise(input NewExerciseInput) (string, float64, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return "", 0, s.rejected(invalid("description", "Description is required"))
	}
	duration, err := ParseDuration(input.Duration)
	if err != nil {
		return "", 0, s.rejected(err)
	}
	return description, duration, nil
}

func (s *Service) lookupUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Reject reports a validation failure detected outside the service, such as a
// malformed request body, to the Recorder and returns err unchanged.
func (s *Service) Reject(err error) error {
	return s.rejected(err)
}

func (s *Service) rejected(err error) error {
	var v *ValidationError
	if errors.As(err, &v) && s.recorder != nil {
		s.recorder.ValidationFailed(v.Field)
	}
	return err
}

func (s *Service) served(entries int) {
	if s.recorder != nil {
		s.recorder.LogServed(entries)
	}
}
