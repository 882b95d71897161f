// Package postgres provides Postgres-backed persistence for users, exercises and outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

// Repository implements domain.Repository on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists the user and its user.created outbox event in one transaction.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (err error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`INSERT INTO users (user_id, username, created_at) VALUES ($1,$2,$3)`,
		user.ID, user.Username, user.CreatedAt,
	); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "user", user.ID, user.ID, events.TypeUserCreated, events.UserCreated{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListUsers returns users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, username, created_at FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser retrieves a user by ID, returning nil when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT user_id, username, created_at FROM users WHERE user_id=$1`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateExercise persists the exercise and its exercise.logged outbox event in one transaction.
func (r *Repository) CreateExercise(ctx context.Context, user domain.User, exercise *domain.Exercise) (err error) {
	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`INSERT INTO exercises (exercise_id, user_id, description, duration_min, exercise_date, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
		exercise.CreatedAt,
	); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "exercise", exercise.ID, user.ID, events.TypeExerciseLogged, events.ExerciseLogged{
		ExerciseID:  exercise.ID,
		UserID:      user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		DurationMin: exercise.Duration,
		Date:        exercise.Date.Format("2006-01-02"),
		LoggedAt:    exercise.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindExercises reads a user's exercises in insertion order, applying the
// filter's date bounds and limit.
func (r *Repository) FindExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	query, args := buildExerciseQuery(userID, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Duration, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		results = append(results, e)
	}
	return results, rows.Err()
}

func buildExerciseQuery(userID string, filter domain.LogFilter) (string, []any) {
	args := []any{userID}
	query := `SELECT exercise_id, user_id, description, duration_min, exercise_date, created_at
        FROM exercises WHERE user_id=$1`

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND exercise_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND exercise_date <= $%d`, len(args))
	}
	query += ` ORDER BY seq`
	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	return query, args
}

// insertOutbox records an event partitioned by user so a user's events stay ordered.
func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, partitionKey, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		fmt.Sprintf("%s:%s", aggregateID, eventType),
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeUserCreated: {
		Topic:         "exercise_events",
		SchemaSubject: "exercise_events-user.created",
	},
	events.TypeExerciseLogged: {
		Topic:         "exercise_events",
		SchemaSubject: "exercise_events-exercise.logged",
	},
}
