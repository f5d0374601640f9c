package repository_test

import (
	"context"
	"testing"
	"time"

	"henna_gallery/internal/repository"
	redisapp "henna_gallery/internal/storage/redis"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepo(t *testing.T) (*repository.RedisTokenRepo, redismock.ClientMock) {
	t.Helper()

	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisTokenRepo(&redisapp.Client{Client: db})

	return repo, mock
}

func TestRedisTokenRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo, mock := newTokenRepo(t)

	mock.ExpectSet("admin_refresh:admin:tok-1", "1", time.Hour).SetVal("OK")
	mock.ExpectGet("admin_refresh:admin:tok-1").SetVal("1")

	require.NoError(t, repo.SaveRefreshToken(ctx, "admin", "tok-1", time.Hour))

	found, err := repo.GetRefreshToken(ctx, "admin", "tok-1")
	require.NoError(t, err)
	assert.True(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenRepo_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo, mock := newTokenRepo(t)

	mock.ExpectGet("admin_refresh:admin:gone").RedisNil()

	found, err := repo.GetRefreshToken(ctx, "admin", "gone")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTokenRepo_Delete(t *testing.T) {
	ctx := context.Background()
	repo, mock := newTokenRepo(t)

	mock.ExpectDel("admin_refresh:admin:tok-1").SetVal(1)

	require.NoError(t, repo.DeleteRefreshToken(ctx, "admin", "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenRepo_DeleteAllUserTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every key", func(t *testing.T) {
		repo, mock := newTokenRepo(t)

		mock.ExpectKeys("admin_refresh:admin:*").SetVal([]string{
			"admin_refresh:admin:tok-1",
			"admin_refresh:admin:tok-2",
		})
		mock.ExpectDel("admin_refresh:admin:tok-1", "admin_refresh:admin:tok-2").SetVal(2)

		require.NoError(t, repo.DeleteAllUserTokens(ctx, "admin"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no keys is a no-op", func(t *testing.T) {
		repo, mock := newTokenRepo(t)

		mock.ExpectKeys("admin_refresh:admin:*").SetVal([]string{})

		require.NoError(t, repo.DeleteAllUserTokens(ctx, "admin"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
