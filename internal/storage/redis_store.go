package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps one key per announced ID and lets Redis expire it.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func openRedis(opts Options) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
	}
	return newRedisStore(client, opts), nil
}

func newRedisStore(client *redis.Client, opts Options) *redisStore {
	return &redisStore{client: client, prefix: opts.RedisPrefix, ttl: opts.ArticleTTL}
}

func (r *redisStore) key(id string) string { return r.prefix + id }

func (r *redisStore) SeenArticle(ctx context.Context, id string) (bool, error) {
	err := r.client.Get(ctx, r.key(id)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis get: %w", err)
	}
}

// MarkArticle sets the key only if absent so the original expiry is kept.
func (r *redisStore) MarkArticle(ctx context.Context, id string) error {
	if err := r.client.SetNX(ctx, r.key(id), time.Now().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
