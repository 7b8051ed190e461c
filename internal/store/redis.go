package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Store backed by a Redis hash, for shared tooling setups where
// several machines (or a CI runner) drive the same portal account.
type Redis struct {
	rdb *redis.Client
	key string
}

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// NewRedis creates a Redis store. All credential slots live in the hash
// named by prefix (e.g. "mk:cred").
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, key: prefix}
}

func (r *Redis) Get(ctx context.Context, key Key) (string, error) {
	v, err := r.rdb.HGet(ctx, r.key, string(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key Key, value string) error {
	if err := r.rdb.HSet(ctx, r.key, string(key), value).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key Key) error {
	if err := r.rdb.HDel(ctx, r.key, string(key)).Err(); err != nil {
		return fmt.Errorf("redis remove %s: %w", key, err)
	}
	return nil
}
