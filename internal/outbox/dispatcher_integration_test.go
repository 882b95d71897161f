//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/postgres"
)

func TestDispatcherPublishesRecordedEvents(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	seedUserWithExercise(t, ctx, pool)

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(pool, producer, registry, 10*time.Millisecond, 5, logrus.New())

	beforeUsers := testutil.ToFloat64(deliveredCounter.WithLabelValues("user.created"))
	beforeExercises := testutil.ToFloat64(deliveredCounter.WithLabelValues("exercise.logged"))
	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "exercise_events", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.InDelta(t, beforeUsers+1, testutil.ToFloat64(deliveredCounter.WithLabelValues("user.created")), 0.0001)
	require.InDelta(t, beforeExercises+1, testutil.ToFloat64(deliveredCounter.WithLabelValues("exercise.logged")), 0.0001)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Zero(t, pending)

	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1, "published events are not redelivered")
}

func TestDispatcherRoutesFailedBatchToDLQ(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	seedUserWithExercise(t, ctx, pool)

	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 7}, 10*time.Millisecond, 5, logrus.New())

	beforeFailed := testutil.ToFloat64(failedCounter.WithLabelValues("exercise.logged"))
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("user.created"))

	require.NoError(t, dispatcher.processBatch(ctx))

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter.WithLabelValues("exercise.logged")), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("user.created")), 0.0001)

	var dlqCount int
	var reason string
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*), MAX(reason) FROM outbox_dlq`).Scan(&dlqCount, &reason))
	require.Equal(t, 2, dlqCount)
	require.Contains(t, reason, "kafka write failed")
}

func seedUserWithExercise(t *testing.T, ctx context.Context, pool *pgxpool.Pool) domain.User {
	t.Helper()

	repo := postgres.NewRepository(pool)
	now := time.Now().UTC()
	user := domain.User{Username: "alice", CreatedAt: now}
	require.NoError(t, repo.CreateUser(ctx, &user))

	exercise := domain.Exercise{
		UserID:      user.ID,
		Description: "run",
		Duration:    30,
		Date:        domain.CalendarDay(now),
		CreatedAt:   now,
	}
	require.NoError(t, repo.CreateExercise(ctx, user, &exercise))
	return user
}

func setupPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("exercisetracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return pool, cleanup
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
