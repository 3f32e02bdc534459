package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCache — минимальный контракт кэша refresh-сессий.
// Кэш — наблюдательное зеркало хэша текущего refresh-токена по user_id:
// расхождение с хранилищем допустимо и никогда не влияет на решение
// о валидности токена; источник истины — compare-and-swap в PostgreSQL.
type SessionCache interface {
	// Get возвращает хэш текущего refresh-токена и признак наличия в кэше.
	Get(ctx context.Context, userID uuid.UUID) (string, bool, error)
	// Set сохраняет хэш с TTL (обычно ExpiresAt-now).
	Set(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error
	// Delete удаляет запись (logout).
	Delete(ctx context.Context, userID uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:sess:".
func NewRedisCache(redisURL, prefix string) (SessionCache, error) {
	if prefix == "" {
		prefix = "auth:sess:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(userID uuid.UUID) string { return c.prefix + userID.String() }

func (c *redisCache) Get(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	hash, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return hash, true, nil
}

func (c *redisCache) Set(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(userID), tokenHash, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
