package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/redis"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a session with ttl", func(t *testing.T) {
		mr, client := setupRedis(t)
		repo := NewRedisSessionRepository(client, 15*time.Minute)

		require.NoError(t, repo.Create(ctx, &model.VerificationSession{
			ID:            "s-1",
			CustomerEmail: "jane@example.com",
			Status:        model.SessionStatusCreated,
		}))

		assert.Equal(t, 15*time.Minute, mr.TTL(redis.SessionKey("s-1")))

		found, err := repo.FindByID(ctx, "s-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "jane@example.com", found.CustomerEmail)
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		_, client := setupRedis(t)
		repo := NewRedisSessionRepository(client, 0)

		found, err := repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update keeps remaining ttl", func(t *testing.T) {
		mr, client := setupRedis(t)
		repo := NewRedisSessionRepository(client, 10*time.Minute)

		session := &model.VerificationSession{ID: "s-1", Status: model.SessionStatusCreated}
		require.NoError(t, repo.Create(ctx, session))
		mr.FastForward(4 * time.Minute)

		session.Status = model.SessionStatusIssued
		require.NoError(t, repo.Update(ctx, session))

		assert.Equal(t, 6*time.Minute, mr.TTL(redis.SessionKey("s-1")))
		found, err := repo.FindByID(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusIssued, found.Status)
	})

	t.Run("update of expired session fails", func(t *testing.T) {
		mr, client := setupRedis(t)
		repo := NewRedisSessionRepository(client, time.Minute)

		session := &model.VerificationSession{ID: "s-1"}
		require.NoError(t, repo.Create(ctx, session))
		mr.FastForward(2 * time.Minute)

		assert.ErrorIs(t, repo.Update(ctx, session), ErrNotFound)
	})
}
