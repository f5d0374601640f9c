package repository

import (
	"context"
	"time"

	redisapp "henna_gallery/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) SaveRefreshToken(ctx context.Context, username, token string, exp time.Duration) error {
	return r.Client.Set(ctx, refreshTokenKey(username, token), "1", exp).Err()
}

func (r *RedisTokenRepo) GetRefreshToken(ctx context.Context, username, token string) (bool, error) {
	val, err := r.Client.Get(ctx, refreshTokenKey(username, token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	return val == "1", err
}

func (r *RedisTokenRepo) DeleteRefreshToken(ctx context.Context, username, token string) error {
	return r.Client.Del(ctx, refreshTokenKey(username, token)).Err()
}

func (r *RedisTokenRepo) DeleteAllUserTokens(ctx context.Context, username string) error {
	keys, err := r.Client.Keys(ctx, refreshTokenKey(username, "*")).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

func refreshTokenKey(username, token string) string {
	return "admin_refresh:" + username + ":" + token
}
