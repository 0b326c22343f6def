// Package storage remembers which article IDs have already been announced.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store tracks announced article IDs. Entries expire after the configured TTL.
type Store interface {
	SeenArticle(ctx context.Context, id string) (bool, error)
	MarkArticle(ctx context.Context, id string) error
	Close() error
}

const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
	TypeRedis = "redis"
)

// Options selects and tunes a backend.
type Options struct {
	ArticleTTL      time.Duration
	CleanupInterval time.Duration

	// BBoltPath is the database file for the bbolt backend.
	BBoltPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

const (
	defaultArticleTTL      = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
	defaultRedisPrefix     = "khobor:announced:"
)

// NewStore creates the configured storage backend. The default keeps nothing.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(opts.BBoltPath, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		store, err := openRedis(opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ArticleTTL <= 0 {
		opts.ArticleTTL = defaultArticleTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.RedisPrefix == "" {
		opts.RedisPrefix = defaultRedisPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                      { return nil }
func (noopStore) SeenArticle(context.Context, string) (bool, error) { return false, nil }
func (noopStore) MarkArticle(context.Context, string) error         { return nil }
