package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
)

func TestRepositoryPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	for _, name := range []string{"carol", "alice", "bob"} {
		u := domain.User{Username: name}
		require.NoError(t, repo.CreateUser(ctx, &u))
		require.NotEmpty(t, u.ID)
	}

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "carol", users[0].Username)
	require.Equal(t, "bob", users[2].Username)
}

func TestGetUserMissingReturnsNil(t *testing.T) {
	user, err := NewRepository().GetUser(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestFindExercisesScopesByUserAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	alice := domain.User{Username: "alice"}
	bob := domain.User{Username: "bob"}
	require.NoError(t, repo.CreateUser(ctx, &alice))
	require.NoError(t, repo.CreateUser(ctx, &bob))

	add := func(u domain.User, day int) {
		e := domain.Exercise{UserID: u.ID, Description: "run", Duration: 10, Date: time.Date(2024, time.May, day, 0, 0, 0, 0, time.UTC)}
		require.NoError(t, repo.CreateExercise(ctx, u, &e))
	}
	add(alice, 1)
	add(bob, 2)
	add(alice, 3)
	add(alice, 5)

	from := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
	found, err := repo.FindExercises(ctx, alice.ID, domain.LogFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, 3, found[0].Date.Day())

	limit := 1
	capped, err := repo.FindExercises(ctx, alice.ID, domain.LogFilter{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, capped, 1)
	require.Equal(t, 1, capped[0].Date.Day())
}
