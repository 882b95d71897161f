// Package memory provides an in-process store for local development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

// Repository keeps users and exercises in insertion order.
type Repository struct {
	mu        sync.RWMutex
	users     []domain.User
	userIndex map[string]int
	exercises []domain.Exercise
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{userIndex: make(map[string]int)}
}

// CreateUser implements domain.Repository.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(user.ID) == "" {
		user.ID = uuid.NewString()
	}
	r.userIndex[user.ID] = len(r.users)
	r.users = append(r.users, *user)
	return nil
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.userIndex[id]
	if !ok {
		return nil, nil
	}
	user := r.users[idx]
	return &user, nil
}

// CreateExercise implements domain.Repository.
func (r *Repository) CreateExercise(ctx context.Context, user domain.User, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(exercise.ID) == "" {
		exercise.ID = uuid.NewString()
	}
	r.exercises = append(r.exercises, *exercise)
	return nil
}

// FindExercises implements domain.Repository.
func (r *Repository) FindExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.Exercise, 0)
	for _, e := range r.exercises {
		if filter.Limit != nil && len(results) >= *filter.Limit {
			break
		}
		if e.UserID != userID || !filter.Matches(e.Date) {
			continue
		}
		results = append(results, e)
	}
	return results, nil
}
