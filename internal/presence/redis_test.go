package presence

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupRedisRepo(t *testing.T) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return NewRedisRepository(client, "", time.Minute), m
}

func TestRedisJoinListLeave(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRedisRepo(t)

	require.NoError(t, repo.Join(ctx, "n1", "s1", "u1"))
	require.NoError(t, repo.Join(ctx, "n1", "s2", "u2"))
	require.NoError(t, repo.Join(ctx, "n2", "s3", "u3"))

	entries, err := repo.List(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, repo.Leave(ctx, "n1", "s1"))
	entries, err = repo.List(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "s2", entries[0].SessionID)

	// leaving twice is harmless
	require.NoError(t, repo.Leave(ctx, "n1", "s1"))
}

func TestRedisPresenceExpires(t *testing.T) {
	ctx := context.Background()
	repo, m := setupRedisRepo(t)

	require.NoError(t, repo.Join(ctx, "n1", "s1", "u1"))
	m.FastForward(2 * time.Minute)

	entries, err := repo.List(ctx, "n1")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestServiceCollaboratorsDedup(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	// same user from two sessions, plus an anonymous share viewer
	require.NoError(t, svc.Join(ctx, "n1", "s1", "u1"))
	require.NoError(t, svc.Join(ctx, "n1", "s2", "u1"))
	require.NoError(t, svc.Join(ctx, "n1", "s3", ""))
	require.NoError(t, svc.Join(ctx, "n1", "s4", "u2"))

	got, err := svc.Collaborators(ctx, "n1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u1", "u2"}, got)
}

func TestMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Join(ctx, "n1", "s1", "u1"))
	require.NoError(t, repo.Leave(ctx, "n1", "s1"))

	entries, err := repo.List(ctx, "n1")
	require.NoError(t, err)
	require.Empty(t, entries)
}
