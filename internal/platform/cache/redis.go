package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Redis is a cache backed by a Redis server. Command failures are logged
// and treated as misses.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedis(client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return redis.NewClient(opts), nil
}

// Connect returns a Redis cache when url is reachable. An empty url selects
// the in-process cache. A bad url or a failed ping yields Noop and the
// service runs uncached.
func Connect(ctx context.Context, url string, logger zerolog.Logger) Cache {
	if url == "" {
		logger.Info().Msg("no REDIS_URL, using in-process cache")
		m := NewMemory()
		m.StartCleanup(ctx, time.Minute)
		return m
	}

	client, err := NewClient(url)
	if err != nil {
		logger.Warn().Err(err).Msg("cache disabled")
		return Noop{}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("cache unreachable, running without cache")
		_ = client.Close()
		return Noop{}
	}

	logger.Info().Str("addr", client.Options().Addr).Msg("cache connected")
	return NewRedis(client, logger)
}
