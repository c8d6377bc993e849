package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the keys in one hash per profile: kiosk:session:<profile>.
type RedisStore struct {
	conn *redis.Client
	hash string
}

func NewRedisStore(conn *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{conn: conn, hash: "kiosk:session:" + profile}
}

// DialRedis connects and pings before handing the store back.
func DialRedis(ctx context.Context, addr string, db int, profile string) (*RedisStore, error) {
	conn := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: redis ping %s: %w", addr, err)
	}
	return NewRedisStore(conn, profile), nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.conn.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.conn.HSet(ctx, r.hash, key, value).Err(); err != nil {
		return fmt.Errorf("storage: redis hset %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.conn.HDel(ctx, r.hash, keys...).Err(); err != nil {
		return fmt.Errorf("storage: redis hdel: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.conn.Close()
}
